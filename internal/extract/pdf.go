package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Structured concatenates the plain text of every page.
type Structured struct{}

func (Structured) Name() string { return "structured" }

func (Structured) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// Layout rebuilds each page row by row from positioned glyph runs, then
// rejoins words that were split across line breaks.
type Layout struct{}

func (Layout) Name() string { return "layout" }

var brokenLine = regexp.MustCompile(`(\w+)\s*\n\s*(\w+)`)

// JoinBrokenLines replaces a line break between two word characters with a
// single space.
func JoinBrokenLines(s string) string {
	return brokenLine.ReplaceAllString(s, "${1} ${2}")
}

func (Layout) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var b strings.Builder
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			if line := strings.TrimSpace(b.String()); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	if len(pages) == 0 {
		return "", nil
	}
	return JoinBrokenLines(strings.Join(pages, "\n")), nil
}
