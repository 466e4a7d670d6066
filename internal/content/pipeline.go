// Package content turns notes and remote documents into provider-generated
// learning material, quizzes and explanations.
package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"mindflow/internal/document"
	"mindflow/internal/extract"
	"mindflow/internal/interaction"
	"mindflow/internal/llm"
	llmclient "mindflow/internal/llm/client"
	"mindflow/internal/prompt"
)

const (
	msgNothingProvided = "No files or notes provided. Please upload PDF files or add notes."
	msgNoContent       = "No content to process. Please provide PDF files with readable text or add notes."
	msgNoQuestion      = "A question is required."

	defaultTestPrompt = "What is the capital of France?"
	testSystem        = "You are a helpful AI assistant."
)

// Completer is the provider router as seen by the pipeline.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (llmclient.Response, error)
}

// Fetcher downloads one validated document.
type Fetcher interface {
	ValidateAndFetch(ctx context.Context, url string) (*document.DocumentSource, error)
}

// Extractor reads text out of a local document.
type Extractor interface {
	Open(path string) error
	Extract(ctx context.Context, path string) extract.Result
}

// ProcessRequest is one lesson-generation request.
type ProcessRequest struct {
	Notes             string
	Files             []string
	ModelHint         string
	PreferredProvider string
	// ModelOverride pins the model id, for the preferred provider when one
	// is named.
	ModelOverride string
}

// DebugInfo is returned alongside a generated lesson.
type DebugInfo struct {
	ContentLength  int  `json:"content_length"`
	FilesProcessed int  `json:"files_processed"`
	HadNotes       bool `json:"had_notes"`
}

// ProcessResult is a generated lesson.
type ProcessResult struct {
	Response string
	Provider string
	Model    string
	Debug    DebugInfo
}

// Pipeline wires fetching, extraction, prompting and routing together.
type Pipeline struct {
	fetch   Fetcher
	extract Extractor
	llm     Completer
	history interaction.History
	log     *log.Logger
}

// NewPipeline creates a Pipeline. history may be nil.
func NewPipeline(fetch Fetcher, ext Extractor, router Completer, history interaction.History, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	if history == nil {
		history = interaction.NewLog()
	}
	return &Pipeline{fetch: fetch, extract: ext, llm: router, history: history, log: logger}
}

// History returns the interaction log the pipeline appends to.
func (p *Pipeline) History() interaction.History { return p.history }

// Process builds a lesson from trimmed notes followed by the text of each
// file, in order. Files are handled one at a time and every local copy is
// removed before the next download starts.
func (p *Pipeline) Process(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	notes := strings.TrimSpace(req.Notes)
	if len(req.Files) == 0 && notes == "" {
		return ProcessResult{}, validationError(msgNothingProvided, map[string]any{
			"received_files":        nonNil(req.Files),
			"received_notes_length": len(req.Notes),
		})
	}

	var parts []string
	if notes != "" {
		parts = append(parts, notes)
	}
	for i, raw := range req.Files {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		text, err := p.readFile(ctx, i+1, u)
		if err != nil {
			return ProcessResult{}, err
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		} else {
			p.log.Printf("content: no text extracted from file %d", i+1)
		}
	}
	if len(parts) == 0 {
		return ProcessResult{}, validationError(msgNoContent, map[string]any{
			"files_received": len(req.Files),
			"notes_length":   len(req.Notes),
			"text_extracted": 0,
		})
	}

	combined := strings.Join(parts, "\n\n")
	text, err := prompt.Build(combined, prompt.ModeLesson)
	if err != nil {
		return ProcessResult{}, &Error{Kind: KindServer, Message: "could not build prompt", Err: err}
	}
	resp, err := p.llm.Complete(llm.WithPhase(ctx, "lesson"), llm.CompletionRequest{
		Prompt:            text,
		System:            prompt.System,
		PreferredProvider: req.PreferredProvider,
		ModelHint:         req.ModelHint,
		ModelOverride:     req.ModelOverride,
	})
	if err != nil {
		p.log.Printf("content: lesson generation failed: %v", err)
		return ProcessResult{}, providerError(err)
	}
	return ProcessResult{
		Response: resp.Text,
		Provider: resp.Provider,
		Model:    resp.Model,
		Debug: DebugInfo{
			ContentLength:  len(combined),
			FilesProcessed: len(req.Files),
			HadNotes:       notes != "",
		},
	}, nil
}

// readFile downloads, extracts and deletes the document at index (1-based).
func (p *Pipeline) readFile(ctx context.Context, index int, url string) (string, error) {
	src, err := p.fetch.ValidateAndFetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &Error{
			Kind:    KindDownload,
			Message: fmt.Sprintf("Could not download file %d. Please check the URL: %s", index, url),
			Index:   index,
			URL:     url,
			Err:     err,
		}
	}
	defer func() {
		if err := src.Close(); err != nil {
			p.log.Printf("content: could not clean up %s: %v", src.LocalPath, err)
		}
	}()

	if err := p.extract.Open(src.LocalPath); err != nil {
		cause := err
		if inner := errors.Unwrap(err); inner != nil {
			cause = inner
		}
		return "", &Error{
			Kind:    KindExtraction,
			Message: fmt.Sprintf("Could not extract text from PDF %d: %v", index, cause),
			Index:   index,
			URL:     url,
			Err:     err,
		}
	}
	res := p.extract.Extract(ctx, src.LocalPath)
	if res.Succeeded {
		p.log.Printf("content: %s extracted %d characters from file %d", res.Strategy, len(res.Text), index)
	}
	return res.Text, nil
}

// Explain answers question against material and records the exchange.
func (p *Pipeline) Explain(ctx context.Context, question, material string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", validationError(msgNoQuestion, nil)
	}
	text, err := prompt.Explain(question, material)
	if err != nil {
		return "", &Error{Kind: KindServer, Message: "could not build prompt", Err: err}
	}
	resp, err := p.llm.Complete(llm.WithPhase(ctx, "explain"), llm.CompletionRequest{Prompt: text, System: prompt.System})
	if err != nil {
		p.log.Printf("content: explanation failed: %v", err)
		return "", providerError(err)
	}
	p.history.Append(interaction.Entry{Kind: interaction.KindExplain, Question: question, Answer: resp.Text})
	return resp.Text, nil
}

// TestProvider sends prompt to provider ahead of the rest of the chain. It
// fails with a validation error when provider is not registered.
func (p *Pipeline) TestProvider(ctx context.Context, provider, prompt string) (llmclient.Response, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return llmclient.Response{}, validationError("A provider is required.", nil)
	}
	if lister, ok := p.llm.(interface{ Providers() []string }); ok && !slices.Contains(lister.Providers(), provider) {
		return llmclient.Response{}, validationError(fmt.Sprintf("Provider %s is not configured.", provider), map[string]any{
			"configured": lister.Providers(),
		})
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultTestPrompt
	}
	resp, err := p.llm.Complete(llm.WithPhase(ctx, "test"), llm.CompletionRequest{
		Prompt:            prompt,
		System:            testSystem,
		PreferredProvider: provider,
	})
	if err != nil {
		p.log.Printf("content: provider test %s failed: %v", provider, err)
		return llmclient.Response{}, providerError(err)
	}
	return resp, nil
}

func nonNil(files []string) []string {
	if files == nil {
		return []string{}
	}
	return files
}
