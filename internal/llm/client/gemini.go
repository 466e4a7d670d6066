package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	genai "google.golang.org/genai"
)

const (
	geminiKeyPrefix = "AIzaSy"
	retryInfoType   = "type.googleapis.com/google.rpc.RetryInfo"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging) are applied via Middleware.
//
// A missing or malformed key does not fail construction: every call then
// fails fast with a hard failure and no network traffic.
type GeminiClient struct {
	cfg ProviderConfig

	initOnce sync.Once
	cli      *genai.Client
	initErr  error
}

func NewGeminiClient(cfg ProviderConfig) *GeminiClient {
	return &GeminiClient{cfg: cfg}
}

func (g *GeminiClient) Name() string { return g.cfg.Name }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) checkKey() error {
	key := strings.TrimSpace(g.cfg.APIKey)
	if key == "" {
		return ErrMissingAPIKey
	}
	if !strings.HasPrefix(key, geminiKeyPrefix) {
		return fmt.Errorf("%w: expected prefix %q", ErrInvalidAPIKey, geminiKeyPrefix)
	}
	return nil
}

func (g *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	g.initOnce.Do(func() {
		timeout := g.cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		cc := &genai.ClientConfig{
			APIKey:     strings.TrimSpace(g.cfg.APIKey),
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: timeout},
		}
		if ep := strings.TrimSpace(g.cfg.Endpoint); ep != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: ep}
		}
		g.cli, g.initErr = genai.NewClient(ctx, cc)
	})
	return g.cli, g.initErr
}

// Complete sends the prompt as a single user turn.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	if err := g.checkKey(); err != nil {
		return Response{}, NewHard(g.cfg.Name, err)
	}
	cli, err := g.client(ctx)
	if err != nil {
		return Response{}, NewHard(g.cfg.Name, err)
	}
	model := req.Model
	if model == "" {
		model = g.cfg.Model
	}
	full := req.Prompt
	if s := strings.TrimSpace(req.System); s != "" {
		full = s + "\n\n" + req.Prompt
	}

	resp, err := cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: full}}}},
		nil,
	)
	if err != nil {
		return Response{}, classifyGeminiError(g.cfg.Name, err)
	}
	text := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		return Response{}, NewHard(g.cfg.Name, ErrEmptyResponse)
	}
	return Response{Text: text, Provider: g.cfg.Name, Model: model, Attempts: 1}, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// classifyGeminiError maps genai errors onto failure kinds. A 429 carries the
// RetryInfo delay from the error details when the server supplied one.
func classifyGeminiError(provider string, err error) error {
	apiErr, ok := asAPIError(err)
	if !ok {
		return AsFailure(provider, err)
	}
	if apiErr.Code == http.StatusTooManyRequests {
		return NewRateLimited(provider, retryDelay(apiErr.Details), err)
	}
	return NewHard(provider, err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// retryDelay extracts google.rpc.RetryInfo.retryDelay (e.g. "37s").
func retryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		if t, _ := d["@type"].(string); t != retryInfoType {
			continue
		}
		raw, _ := d["retryDelay"].(string)
		if delay, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && delay > 0 {
			return delay
		}
	}
	return 0
}
