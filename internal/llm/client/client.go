package llmclient

import "context"

// Request is a single completion call as seen by one provider.
type Request struct {
	// System is sent as a system message by chat-style providers and
	// prepended to the prompt by providers without one.
	System string
	Prompt string
	// Model overrides the client's default model when non-empty.
	Model string
}

// Response is a normalized successful completion.
type Response struct {
	Text     string
	Provider string
	Model    string
	// Attempts counts network calls made for this response, retries included.
	Attempts int
}

// LLMClient defines the interface for completion providers.
// Implementations perform exactly one network call per Complete and report
// failures as *Failure so callers can branch on Kind.
type LLMClient interface {
	Name() string
	Close() error
	Complete(ctx context.Context, req Request) (Response, error)
}
