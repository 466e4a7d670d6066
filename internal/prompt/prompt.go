// Package prompt renders the instruction templates sent to the providers.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
)

// Mode selects a template.
type Mode string

const (
	ModeLesson  Mode = "lesson"
	ModeQuiz    Mode = "quiz"
	ModeExplain Mode = "explain"
	ModeTutor   Mode = "tutor"
)

// System is the system message for providers that accept one.
const System = "You are a helpful AI assistant that creates educational content and answers questions."

// QuestionCount is the number of quiz questions requested.
const QuestionCount = 3

// Field describes one key of a structured output item.
type Field struct {
	Name        string
	Type        string
	Description string
}

// template is the sectioned layout every mode renders through.
type template struct {
	Purpose      string
	Rules        []string
	OutputFields []Field
	OutputFormat string
}

// QuizFields is the per-question schema of quiz output.
var QuizFields = []Field{
	{Name: "question_text", Type: "string", Description: "the actual question"},
	{Name: "options", Type: "[4]string", Description: "exactly 4 possible answers"},
	{Name: "correct_answer", Type: "string", Description: "the correct answer, copied verbatim from options"},
	{Name: "explanation", Type: "string", Description: "why this answer is correct"},
	{Name: "diagram", Type: "string", Description: "an ASCII diagram or visual analogy that supports the question"},
}

var templates = map[Mode]template{
	ModeLesson: {
		Purpose: "Create an interactive learning module from this content.",
		Rules: []string{
			"Start with a markdown heading that includes an emoji icon matching the topic.",
			"Include at least one diagram: an image reference, ASCII art, or a visual analogy. Never omit it; if no real image is available, invent a fitting one.",
			"Use bullet points, not prose paragraphs.",
			"Use LaTeX for mathematical expressions and wrap them in single or double dollar signs if required.",
			"Use markdown for other content.",
		},
		OutputFormat: "Markdown.",
	},
	ModeQuiz: {
		Purpose: fmt.Sprintf("Based on this content, generate %d interactive questions to test understanding.", QuestionCount),
		Rules: []string{
			"Each question has exactly 4 options.",
			"Use LaTeX in dollar signs for mathematics.",
		},
		OutputFields: QuizFields,
		OutputFormat: "Return ONLY a JSON array of question objects. No prose, no code fences, nothing before or after the array.",
	},
	ModeExplain: {
		Purpose: "Using the following context and question, provide a detailed explanation.",
		Rules: []string{
			"Provide a thorough explanation that incorporates the context and addresses the question directly.",
			"Use bullet points and markdown; use LaTeX in dollar signs for mathematics.",
		},
		OutputFormat: "Markdown.",
	},
	ModeTutor: {
		Purpose: "Act as a patient tutor continuing a learning session. Answer the student's latest input.",
		Rules: []string{
			"Stay on the current topic and subtopic when they are given.",
			"Use short bullet points; use LaTeX in dollar signs for mathematics.",
			"End with one follow-up question that checks understanding.",
			"If the input is harmful or unrelated to learning, decline politely in one sentence.",
		},
		OutputFormat: "Markdown.",
	},
}

// Build renders the template for mode around content.
func Build(content string, mode Mode) (string, error) {
	tpl, ok := templates[mode]
	if !ok {
		return "", fmt.Errorf("prompt: unknown mode %q", mode)
	}
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", tpl.Purpose)
	writeSection(&buf, "RULES", formatList(tpl.Rules))
	writeSection(&buf, "OUTPUT", formatFields(tpl.OutputFields))
	writeSection(&buf, "OUTPUT_FORMAT", tpl.OutputFormat)
	writeSection(&buf, "CONTENT", content)
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Explain renders the explain template for a question about material.
func Explain(question, material string) (string, error) {
	return Build(fmt.Sprintf("Context: %s\n\nQuestion: %s", strings.TrimSpace(material), strings.TrimSpace(question)), ModeExplain)
}

func formatFields(fields []Field) string {
	var buf strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&buf, "- %s (%s): %s\n", f.Name, f.Type, f.Description)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintf(buf, "[%s]\n%s\n\n", title, strings.TrimRight(body, "\n"))
}
