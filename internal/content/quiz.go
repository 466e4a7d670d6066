package content

import (
	"context"

	"mindflow/internal/interaction"
	"mindflow/internal/llm"
	"mindflow/internal/prompt"
	"mindflow/internal/util/jsonutil"
)

// Question is one generated quiz item.
type Question struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Diagram       string   `json:"diagram"`
}

// PlaceholderQuestions is returned when provider output cannot be parsed.
func PlaceholderQuestions() []Question {
	return []Question{{
		QuestionText:  "Could not generate proper questions.",
		Options:       []string{"Try again", "Contact support"},
		CorrectAnswer: "Try again",
		Explanation:   "There was an error processing the content.",
	}}
}

// Quiz generates questions about material. Unparseable output yields the
// placeholder question rather than an error; only provider failure errors.
func (p *Pipeline) Quiz(ctx context.Context, material string) ([]Question, error) {
	text, err := prompt.Build(material, prompt.ModeQuiz)
	if err != nil {
		return nil, &Error{Kind: KindServer, Message: "could not build prompt", Err: err}
	}
	resp, err := p.llm.Complete(llm.WithPhase(ctx, "quiz"), llm.CompletionRequest{Prompt: text, System: prompt.System})
	if err != nil {
		p.log.Printf("content: quiz generation failed: %v", err)
		return nil, providerError(err)
	}
	questions := ParseQuestions(resp.Text)
	p.history.Append(interaction.Entry{Kind: interaction.KindQuiz, Questions: questions})
	return questions, nil
}

// ParseQuestions decodes a JSON question array, tolerating code fences and
// surrounding prose. Anything else becomes the placeholder.
func ParseQuestions(raw string) []Question {
	var qs []Question
	if err := jsonutil.UnmarshalArray(raw, &qs); err != nil || len(qs) == 0 {
		return PlaceholderQuestions()
	}
	return qs
}
