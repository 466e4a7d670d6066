package llm

import (
	"context"
	"log"
	"time"

	llmclient "mindflow/internal/llm/client"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

type ctxKeyPhase struct{}

// WithPhase labels the calls made with ctx (e.g. "lesson", "quiz") in logs.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// WithLogging logs request size, outcome and latency. Provide a custom
// logger or nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	start := time.Now()
	l.log.Printf("LLM request (%s) -> %s: %d bytes", PhaseFrom(ctx), l.next.Name(), len(req.System)+len(req.Prompt))
	resp, err := l.next.Complete(ctx, req)
	if err != nil {
		l.log.Printf("LLM error (%s) <- %s after %s: %v", PhaseFrom(ctx), l.next.Name(), time.Since(start).Round(time.Millisecond), err)
		return resp, err
	}
	l.log.Printf("LLM response (%s) <- %s/%s: %d chars, %d attempt(s), %s",
		PhaseFrom(ctx), resp.Provider, resp.Model, len(resp.Text), resp.Attempts, time.Since(start).Round(time.Millisecond))
	return resp, nil
}
