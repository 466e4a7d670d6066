// Package extract turns a local PDF into plain text with an ordered list of
// strategies.
package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

// ExtractionError reports a local file that cannot be opened at all.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result is the outcome of one extraction. Strategy names the strategy that
// produced Text and is empty when nothing succeeded.
type Result struct {
	Text      string
	Strategy  string
	Succeeded bool
}

// Strategy is one way of reading text out of a PDF.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// Extractor runs its strategies in order until one yields non-blank text.
type Extractor struct {
	strategies []Strategy
	log        *log.Logger
}

// New builds an Extractor. With no strategies the structured and layout
// readers are used, in that order.
func New(logger *log.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	if len(strategies) == 0 {
		strategies = []Strategy{Structured{}, Layout{}}
	}
	return &Extractor{strategies: strategies, log: logger}
}

// Open checks that path names a readable regular file.
func (e *Extractor) Open(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ExtractionError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &ExtractionError{Path: path, Err: fmt.Errorf("is a directory")}
	}
	f, err := os.Open(path)
	if err != nil {
		return &ExtractionError{Path: path, Err: err}
	}
	return f.Close()
}

// Extract returns the first non-blank strategy output. A failing or
// panicking strategy is logged and the next one runs. When every strategy
// comes back empty the result is empty; that is not an error.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}
		text, err := e.run(ctx, s, path)
		if err != nil {
			e.log.Printf("extract: %s failed on %s: %v", s.Name(), path, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		e.log.Printf("extract: %s read %d characters from %s", s.Name(), len(text), path)
		return Result{Text: text, Strategy: s.Name(), Succeeded: true}
	}
	e.log.Printf("extract: no strategy produced text for %s", path)
	return Result{}
}

func (e *Extractor) run(ctx context.Context, s Strategy, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Extract(ctx, path)
}
