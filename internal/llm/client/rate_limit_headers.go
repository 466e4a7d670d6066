package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders represents normalized provider rate-limit signals.
type RateLimitHeaders struct {
	RetryAfter time.Duration

	LimitRequests     int
	RemainingRequests int
	ResetRequests     time.Duration
	ResetTokens       time.Duration
}

// parseRateLimitHeaders reads the OpenAI-style rate-limit headers that both
// GitHub Models and Groq send.
func parseRateLimitHeaders(h http.Header, now time.Time) (RateLimitHeaders, bool) {
	out := RateLimitHeaders{}
	found := false

	readInt := func(key string) (int, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	readDur := func(key string) (time.Duration, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		return d, true
	}

	if v := strings.TrimSpace(h.Get("retry-after")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			out.RetryAfter = time.Duration(secs * float64(time.Second))
			found = true
		} else if at, err := http.ParseTime(v); err == nil {
			if d := at.Sub(now); d > 0 {
				out.RetryAfter = d
			}
			found = true
		}
	}
	if v, ok := readInt("x-ratelimit-limit-requests"); ok {
		out.LimitRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-requests"); ok {
		out.RemainingRequests = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-requests"); ok {
		out.ResetRequests = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-tokens"); ok {
		out.ResetTokens = v
		found = true
	}
	return out, found
}

// NextWait converts the signals to the delay a rate-limited caller should
// honour before retrying. Zero means no hint.
func (h RateLimitHeaders) NextWait() time.Duration {
	if h.RetryAfter > 0 {
		return h.RetryAfter
	}
	if h.RemainingRequests == 0 && h.ResetRequests > 0 {
		return h.ResetRequests
	}
	if h.ResetTokens > 0 {
		return h.ResetTokens
	}
	return 0
}
