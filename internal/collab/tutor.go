package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mindflow/internal/llm"
	llmclient "mindflow/internal/llm/client"
	"mindflow/internal/prompt"
)

// Completer is the provider router as seen by the tutor.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (llmclient.Response, error)
}

// TutorReply is the result of one tutoring turn.
type TutorReply struct {
	Topic     string
	Subtopic  string
	Response  string
	Provider  string
	Timestamp time.Time
}

func (r TutorReply) ToMap() map[string]any {
	return map[string]any{
		"topic":     r.Topic,
		"subtopic":  r.Subtopic,
		"response":  r.Response,
		"provider":  r.Provider,
		"timestamp": r.Timestamp.Format(time.RFC3339),
	}
}

// SessionSummary describes the tutoring session so far.
type SessionSummary struct {
	CurrentTopic  string
	TopicsCovered []string
	Turns         int
}

func (s SessionSummary) ToMap() map[string]any {
	topics := s.TopicsCovered
	if topics == nil {
		topics = []string{}
	}
	return map[string]any{
		"current_topic":  s.CurrentTopic,
		"topics_covered": topics,
		"turns":          s.Turns,
	}
}

// Tutor is an Agent backed by the provider router. Session state is
// process-wide and held in memory.
type Tutor struct {
	llm Completer
	now func() time.Time

	mu      sync.Mutex
	current string
	topics  []string
	turns   int
}

// NewTutor creates a Tutor.
func NewTutor(router Completer) *Tutor {
	return &Tutor{llm: router, now: time.Now}
}

func (t *Tutor) StartTopic(ctx context.Context, in AgentInput) (Serializable, error) {
	input := strings.TrimSpace(in.Input)
	if input == "" {
		return nil, errors.New("tutor: no input provided")
	}
	topic := strings.TrimSpace(in.CurrentTopic)
	if topic == "" {
		topic = t.currentTopic()
	}
	if topic == "" {
		topic = input
	}

	text, err := prompt.Build(turnContent(topic, in, input), prompt.ModeTutor)
	if err != nil {
		return nil, err
	}
	resp, err := t.llm.Complete(llm.WithPhase(ctx, "tutor"), llm.CompletionRequest{Prompt: text, System: prompt.System})
	if err != nil {
		return nil, fmt.Errorf("tutor: %w", err)
	}

	t.record(topic)
	return TutorReply{
		Topic:     topic,
		Subtopic:  strings.TrimSpace(in.ActiveSubtopic),
		Response:  resp.Text,
		Provider:  resp.Provider,
		Timestamp: t.now(),
	}, nil
}

func (t *Tutor) Summary(context.Context) (Serializable, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SessionSummary{
		CurrentTopic:  t.current,
		TopicsCovered: append([]string(nil), t.topics...),
		Turns:         t.turns,
	}, nil
}

func (t *Tutor) currentTopic() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *Tutor) record(topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns++
	t.current = topic
	for _, seen := range t.topics {
		if strings.EqualFold(seen, topic) {
			return
		}
	}
	t.topics = append(t.topics, topic)
}

func turnContent(topic string, in AgentInput, input string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if sub := strings.TrimSpace(in.ActiveSubtopic); sub != "" {
		fmt.Fprintf(&b, "Subtopic: %s\n", sub)
	}
	if in.SessionHistory != nil {
		if hist, err := json.Marshal(in.SessionHistory); err == nil && string(hist) != "null" {
			fmt.Fprintf(&b, "Session history: %s\n", hist)
		}
	}
	fmt.Fprintf(&b, "Student: %s", input)
	return b.String()
}
