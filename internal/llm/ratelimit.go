package llm

import (
	"context"
	"sync"
	"time"

	llmclient "mindflow/internal/llm/client"
)

// IntervalLimiter enforces a minimum spacing between consecutive dispatches
// to the same provider. The check, the sleep and the timestamp update happen
// under one per-provider lock, so concurrent callers are released one at a
// time at least MinInterval apart.
type IntervalLimiter struct {
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	lock     chan struct{} // one-slot semaphore; lets waiters give up on ctx
	interval time.Duration
	last     time.Time
}

// NewIntervalLimiter returns a limiter using the wall clock.
func NewIntervalLimiter() *IntervalLimiter {
	return &IntervalLimiter{now: time.Now, sleep: sleepCtx, slots: make(map[string]*slot)}
}

// SetInterval registers or updates the spacing for provider.
func (l *IntervalLimiter) SetInterval(provider string, interval time.Duration) {
	s := l.slot(provider)
	s.lock <- struct{}{}
	s.interval = interval
	<-s.lock
}

func (l *IntervalLimiter) slot(provider string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[provider]
	if !ok {
		s = &slot{lock: make(chan struct{}, 1)}
		l.slots[provider] = s
	}
	return s
}

// Wait blocks until provider may be called again, then records the dispatch.
func (l *IntervalLimiter) Wait(ctx context.Context, provider string) error {
	s := l.slot(provider)
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.lock }()

	if s.interval > 0 && !s.last.IsZero() {
		if wait := s.interval - l.now().Sub(s.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	s.last = l.now()
	return nil
}

// LastDispatch reports the last recorded dispatch time for provider.
func (l *IntervalLimiter) LastDispatch(provider string) (time.Time, bool) {
	s := l.slot(provider)
	s.lock <- struct{}{}
	defer func() { <-s.lock }()
	return s.last, !s.last.IsZero()
}

// RateLimit gates every call to the wrapped client through limiter, keyed by
// the client's provider name.
func RateLimit(limiter *IntervalLimiter) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{next: next, rl: limiter}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *IntervalLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx, c.next.Name()); err != nil {
			return llmclient.Response{}, llmclient.NewHard(c.next.Name(), err)
		}
	}
	return c.next.Complete(ctx, req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
