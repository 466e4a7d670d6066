package llm

import (
	"context"
	"time"

	llmclient "mindflow/internal/llm/client"
)

// RetryPolicy bounds the attempts made for one call.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// PolicyFor derives the retry policy from a provider config.
func PolicyFor(cfg llmclient.ProviderConfig) RetryPolicy {
	return RetryPolicy{MaxAttempts: cfg.MaxRetryAttempts, BaseBackoff: cfg.BaseBackoff}
}

// MaxBackoff caps the computed delay between attempts.
const MaxBackoff = 5 * time.Minute

// Backoff returns BaseBackoff * 2^attempt, capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseBackoff
	if d <= 0 {
		return 0
	}
	for i := 0; i < attempt; i++ {
		if d >= MaxBackoff/2 {
			return MaxBackoff
		}
		d *= 2
	}
	return min(d, MaxBackoff)
}

// Retry re-issues rate-limited and timed-out calls with exponential backoff.
// A rate-limit hint from the server replaces the computed delay. Hard
// failures are returned immediately without a retry.
func Retry(p RetryPolicy) Middleware {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = 300 * time.Millisecond
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, policy: p}
	}
}

type retrying struct {
	next   llmclient.LLMClient
	policy RetryPolicy
}

// retryState is the per-call retry context.
type retryState struct {
	attempt   int
	max       int
	nextDelay time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	st := retryState{max: r.policy.MaxAttempts}
	var last *llmclient.Failure
	for ; st.attempt < st.max; st.attempt++ {
		resp, err := r.next.Complete(ctx, req)
		if err == nil {
			resp.Attempts = st.attempt + 1
			return resp, nil
		}
		last = llmclient.AsFailure(r.next.Name(), err)
		if !last.Retryable() {
			return llmclient.Response{}, last
		}
		if st.attempt == st.max-1 {
			break
		}
		st.nextDelay = r.policy.Backoff(st.attempt)
		if last.Kind == llmclient.FailureRateLimited && last.RetryAfter > 0 {
			st.nextDelay = last.RetryAfter
		}
		if err := r.policy.Sleep(ctx, st.nextDelay); err != nil {
			return llmclient.Response{}, llmclient.NewHard(r.next.Name(), err)
		}
	}
	return llmclient.Response{}, last
}
