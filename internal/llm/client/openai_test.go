package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestOpenAI(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultGitHubConfig("token-123")
	cfg.Endpoint = srv.URL
	return NewOpenAIClient(cfg)
}

func TestOpenAIClient_Complete_Success(t *testing.T) {
	var got chatReq
	cli := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-123" {
			t.Errorf("authorization: got=%q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"model":"openai/gpt-4o","choices":[{"message":{"content":"hello"}}]}`))
	})

	resp, err := cli.Complete(context.Background(), Request{System: "sys", Prompt: "hi"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "hello" || resp.Provider != ProviderGitHub || resp.Attempts != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hi" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.Model != "openai/gpt-4o" {
		t.Fatalf("model: got=%s", got.Model)
	}
}

func TestOpenAIClient_Complete_ModelOverride(t *testing.T) {
	var got chatReq
	cli := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	resp, err := cli.Complete(context.Background(), Request{Prompt: "hi", Model: "openai/gpt-4o-mini"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Model != "openai/gpt-4o-mini" || resp.Model != "openai/gpt-4o-mini" {
		t.Fatalf("model override not applied: req=%s resp=%s", got.Model, resp.Model)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected no system message, got %d messages", len(got.Messages))
	}
}

func TestOpenAIClient_Complete_RateLimitedCarriesRetryAfter(t *testing.T) {
	cli := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("retry-after", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	})
	_, err := cli.Complete(context.Background(), Request{Prompt: "hi"})
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T (%v)", err, err)
	}
	if f.Kind != FailureRateLimited || f.RetryAfter != 3*time.Second {
		t.Fatalf("unexpected failure: kind=%s retryAfter=%s", f.Kind, f.RetryAfter)
	}
}

func TestOpenAIClient_Complete_ServerErrorIsHard(t *testing.T) {
	cli := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := cli.Complete(context.Background(), Request{Prompt: "hi"})
	if f := AsFailure("", err); f == nil || f.Kind != FailureHard {
		t.Fatalf("expected hard failure, got %v", err)
	}
}

func TestOpenAIClient_Complete_EmptyChoicesIsHard(t *testing.T) {
	cli := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := cli.Complete(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if f := AsFailure("", err); f.Kind != FailureHard {
		t.Fatalf("kind: got=%s", f.Kind)
	}
}

func TestOpenAIClient_Complete_TimeoutIsClassified(t *testing.T) {
	block := make(chan struct{})
	cli := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)
	cli.http.Timeout = 50 * time.Millisecond

	_, err := cli.Complete(context.Background(), Request{Prompt: "hi"})
	if f := AsFailure("", err); f == nil || f.Kind != FailureTimeout {
		t.Fatalf("expected timeout failure, got %v", err)
	}
}
