// Package collab defines the collaborators the gateway delegates to: the
// tutoring agent and the speech services.
package collab

import "context"

// SampleRate is the rate, in Hz, of samples returned by a Synthesizer.
const SampleRate = 24000

// Serializable is a collaborator result rendered as a JSON object.
type Serializable interface {
	ToMap() map[string]any
}

// AgentInput is one turn of a tutoring session.
type AgentInput struct {
	Input          string `json:"input"`
	CurrentTopic   string `json:"current_topic"`
	ActiveSubtopic string `json:"active_subtopic"`
	SessionHistory any    `json:"session_history"`
}

// Agent runs a tutoring session.
type Agent interface {
	StartTopic(ctx context.Context, in AgentInput) (Serializable, error)
	Summary(ctx context.Context) (Serializable, error)
}

// Transcriber turns a recorded audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer turns text into mono samples in [-1, 1] at SampleRate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]float32, error)
}
