package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient calls an OpenAI-compatible Chat Completions API. GitHub Models
// and Groq both speak this protocol.
// See: https://console.groq.com/docs/api-reference
type OpenAIClient struct {
	http    *http.Client
	cfg     ProviderConfig
	baseURL string
	now     func() time.Time
}

// NewOpenAIClient creates a chat-completions client for cfg. The endpoint is
// the API root; "/chat/completions" is appended.
func NewOpenAIClient(cfg ProviderConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		http:    &http.Client{Timeout: timeout},
		cfg:     cfg,
		baseURL: strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/") + "/chat/completions",
		now:     time.Now,
	}
}

func (c *OpenAIClient) Name() string { return c.cfg.Name }
func (c *OpenAIClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type chatResp struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the system and user messages and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	b, err := json.Marshal(chatReq{
		Model:       model,
		Messages:    messages,
		Temperature: 1,
		TopP:        1,
		MaxTokens:   4096,
	})
	if err != nil {
		return Response{}, NewHard(c.cfg.Name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return Response{}, NewHard(c.cfg.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, AsFailure(c.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("%s: unexpected status %s: %s", c.cfg.Name, resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests {
			headers, _ := parseRateLimitHeaders(resp.Header, c.now())
			return Response{}, NewRateLimited(c.cfg.Name, headers.NextWait(), statusErr)
		}
		return Response{}, NewHard(c.cfg.Name, statusErr)
	}

	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, AsFailure(c.cfg.Name, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return Response{}, NewHard(c.cfg.Name, ErrEmptyResponse)
	}
	if out.Model != "" {
		model = out.Model
	}
	return Response{
		Text:     out.Choices[0].Message.Content,
		Provider: c.cfg.Name,
		Model:    model,
		Attempts: 1,
	}, nil
}
