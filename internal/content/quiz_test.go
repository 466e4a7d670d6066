package content

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"mindflow/internal/interaction"
	"mindflow/internal/tester"
)

const twoQuestions = "```json\n" + `[
  {"question_text":"What is $F$?","options":["$ma$","$mv$","$m/a$","$a/m$"],"correct_answer":"$ma$","explanation":"Second law.","diagram":"[m]--F-->"},
  {"question_text":"Unit of force?","options":["N","J","W","Pa"],"correct_answer":"N","explanation":"Newton.","diagram":""}
]` + "\n```"

func TestQuiz_ParsesFencedArray(t *testing.T) {
	e := newEnv(t)
	e.router.reply = twoQuestions
	qs, err := e.pipe.Quiz(context.Background(), "Newton's laws")
	tester.NoErr(t, err)

	tester.Eq(t, len(qs), 2)
	tester.Eq(t, qs[0].CorrectAnswer, "$ma$")
	tester.Eq(t, qs[0].Diagram, "[m]--F-->")
	tester.Contains(t, e.router.reqs[0].Prompt, "question_text")

	entries := e.pipe.History().Entries()
	tester.Eq(t, len(entries), 1)
	tester.Eq(t, entries[0].Kind, interaction.KindQuiz)
}

func TestQuiz_MalformedOutputYieldsPlaceholder(t *testing.T) {
	e := newEnv(t)
	e.router.reply = "Sure! Here are some questions: 1) What is force?"
	qs, err := e.pipe.Quiz(context.Background(), "Newton's laws")
	tester.NoErr(t, err, "malformed output is not an error")
	tester.Eq(t, qs, PlaceholderQuestions())
}

func TestQuiz_ProviderFailure(t *testing.T) {
	e := newEnv(t)
	e.router.err = errors.New("all providers down")
	_, err := e.pipe.Quiz(context.Background(), "x")
	tester.Eq(t, HTTPStatus(err), http.StatusServiceUnavailable)
	tester.Eq(t, len(e.pipe.History().Entries()), 0)
}

func TestParseQuestions_EmptyArray(t *testing.T) {
	tester.Eq(t, ParseQuestions("[]"), PlaceholderQuestions())
}
