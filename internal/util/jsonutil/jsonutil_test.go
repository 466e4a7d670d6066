package jsonutil

import (
	"errors"
	"testing"

	"mindflow/internal/tester"
)

type question struct {
	Text    string   `json:"question_text"`
	Options []string `json:"options"`
}

func TestUnmarshalArray_FencedWithProse(t *testing.T) {
	in := "Here you go:\n```json\n[{\"question_text\":\"What is F?\",\"options\":[\"ma\",\"mv\"]}]\n```\nGood luck!"
	var got []question
	tester.NoErr(t, UnmarshalArray(in, &got))
	tester.Eq(t, len(got), 1)
	tester.Eq(t, got[0].Text, "What is F?")
	tester.Eq(t, got[0].Options, []string{"ma", "mv"})
}

func TestUnmarshalArray_RepairsLatexEscapes(t *testing.T) {
	in := `[{"question_text":"Evaluate $\sqrt{4}$ and \(x\)","options":["2"]}]`
	var got []question
	tester.NoErr(t, UnmarshalArray(in, &got))
	tester.Eq(t, got[0].Text, `Evaluate $\sqrt{4}$ and \(x\)`)
}

func TestUnmarshalArray_UnescapesLeftoverUnicode(t *testing.T) {
	in := `[{"question_text":"a \\u003e b","options":[]}]`
	var got []question
	tester.NoErr(t, UnmarshalArray(in, &got))
	tester.Eq(t, got[0].Text, "a > b")
}

func TestUnmarshalArray_NoArray(t *testing.T) {
	var got []question
	err := UnmarshalArray("I cannot help with that.", &got)
	tester.True(t, errors.Is(err, ErrNoJSON), "expected ErrNoJSON")
}

func TestStripFences(t *testing.T) {
	tester.Eq(t, StripFences("```\n[1]\n```"), "[1]")
	tester.Eq(t, StripFences("```json\n[1]\n```"), "[1]")
	tester.Eq(t, StripFences("  [1] "), "[1]")
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"k": "a<b>&c"})
	tester.NoErr(t, err)
	tester.Eq(t, string(b), `{"k":"a<b>&c"}`)
}
