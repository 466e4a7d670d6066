package llmclient

import (
	"context"
	"encoding/json"
	"strings"
)

// FakeClient returns deterministic output for offline runs (LLM_FAKE=1).
// Quiz prompts get a valid question array, everything else a short lesson.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return ProviderFake }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, AsFailure(ProviderFake, err)
	}
	text := "# 📘 Lesson\n\n- fake lesson generated offline\n\n```\n[input] --> [lesson]\n```\n"
	if strings.Contains(req.Prompt, "question_text") {
		b, _ := json.Marshal([]map[string]any{{
			"question_text":  "What does the fake provider return?",
			"options":        []string{"A lesson", "A quiz", "Nothing", "An error"},
			"correct_answer": "A quiz",
			"explanation":    "Quiz prompts receive a fixed question array.",
			"diagram":        "[prompt] --> [fake] --> [quiz]",
		}})
		text = string(b)
	}
	return Response{Text: text, Provider: ProviderFake, Model: "fake", Attempts: 1}, nil
}
