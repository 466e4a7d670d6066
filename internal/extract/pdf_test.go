package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mindflow/internal/tester"
)

// writePDF writes a one-page PDF whose page content is stream, using a
// WinAnsi Helvetica font registered as /F1.
func writePDF(t *testing.T, stream string) string {
	t.Helper()
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "lecture.pdf")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Each line placed with its own text matrix.
const positionedLines = `BT
/F1 12 Tf
1 0 0 1 72 720 Tm
(Newton's first law) Tj
1 0 0 1 72 700 Tm
(states inertia) Tj
1 0 0 1 72 680 Tm
(third line) Tj
ET`

// Lines advanced with T* after a single Td.
const leadingLines = `BT
/F1 12 Tf
14 TL
72 720 Td
(Newton's first law) Tj
T*
(states inertia) Tj
ET`

func TestStructured_ReadsPageText(t *testing.T) {
	path := writePDF(t, leadingLines)
	text, err := Structured{}.Extract(context.Background(), path)
	tester.NoErr(t, err)
	tester.Eq(t, strings.TrimSpace(text), "Newton's first law\nstates inertia")
}

func TestStructured_PositionedLines(t *testing.T) {
	path := writePDF(t, positionedLines)
	text, err := Structured{}.Extract(context.Background(), path)
	tester.NoErr(t, err)
	for _, want := range []string{"Newton's first law", "states inertia", "third line"} {
		tester.Contains(t, text, want)
	}
}

func TestExtract_RealPDFUsesStructured(t *testing.T) {
	path := writePDF(t, leadingLines)
	want, err := Structured{}.Extract(context.Background(), path)
	tester.NoErr(t, err)

	res := New(quiet).Extract(context.Background(), path)
	tester.Eq(t, res, Result{Text: want, Strategy: "structured", Succeeded: true})
}

func TestLayout_JoinsPositionedRows(t *testing.T) {
	path := writePDF(t, positionedLines)
	text, err := Layout{}.Extract(context.Background(), path)
	tester.NoErr(t, err)
	tester.Eq(t, text, "Newton's first law states inertia third line")
}

// The row walker does not follow T*, so both runs land on one row.
func TestLayout_LeadingAdvanceSharesRow(t *testing.T) {
	path := writePDF(t, leadingLines)
	text, err := Layout{}.Extract(context.Background(), path)
	tester.NoErr(t, err)
	tester.Eq(t, text, "Newton's first lawstates inertia")
}

func TestStrategies_HonorCancelledContext(t *testing.T) {
	path := writePDF(t, positionedLines)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range []Strategy{Structured{}, Layout{}} {
		_, err := s.Extract(ctx, path)
		tester.ErrIs(t, err, context.Canceled)
	}
	tester.Eq(t, New(quiet).Extract(ctx, path), Result{})
}
