package content

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"mindflow/internal/document"
	"mindflow/internal/extract"
	"mindflow/internal/interaction"
	"mindflow/internal/llm"
	llmclient "mindflow/internal/llm/client"
	"mindflow/internal/safeio"
	"mindflow/internal/tester"
)

var quiet = log.New(io.Discard, "", 0)

type fakeRouter struct {
	mu    sync.Mutex
	reqs  []llm.CompletionRequest
	reply string
	err   error
}

func (f *fakeRouter) Complete(_ context.Context, req llm.CompletionRequest) (llmclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return llmclient.Response{}, f.err
	}
	return llmclient.Response{Text: f.reply, Provider: "github", Model: "gpt-4o", Attempts: 1}, nil
}

// fileText maps a local file's content to extracted text.
type fileText struct {
	openErr error
	seen    []string
}

func (f *fileText) Open(path string) error { return f.openErr }
func (f *fileText) Extract(_ context.Context, path string) extract.Result {
	f.seen = append(f.seen, path)
	b, err := os.ReadFile(path)
	if err != nil {
		return extract.Result{}
	}
	return extract.Result{Text: string(b), Strategy: "fake", Succeeded: len(b) > 0}
}

type env struct {
	pipe   *Pipeline
	router *fakeRouter
	ext    *fileText
	fs     *safeio.SafeFS
	srv    *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.pdf":
			http.NotFound(w, r)
		case "/blank.pdf":
		default:
			_, _ = w.Write([]byte("text of " + strings.TrimPrefix(r.URL.Path, "/")))
		}
	}))
	t.Cleanup(srv.Close)

	fs, err := safeio.NewSafeFS(t.TempDir())
	tester.NoErr(t, err)
	fetcher, err := document.NewFetcher(fs, document.WithLogger(quiet))
	tester.NoErr(t, err)

	e := &env{router: &fakeRouter{reply: "# 🍎 Newton's laws"}, ext: &fileText{}, fs: fs, srv: srv}
	e.pipe = NewPipeline(fetcher, e.ext, e.router, interaction.NewLog(), quiet)
	return e
}

func (e *env) leftovers(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.fs.Root())
	tester.NoErr(t, err)
	return len(entries)
}

func TestProcess_NotesOnly(t *testing.T) {
	e := newEnv(t)
	res, err := e.pipe.Process(context.Background(), ProcessRequest{Notes: "  Newton's laws of motion  "})
	tester.NoErr(t, err)

	tester.Eq(t, res.Response, "# 🍎 Newton's laws")
	tester.Eq(t, res.Debug, DebugInfo{ContentLength: len("Newton's laws of motion"), FilesProcessed: 0, HadNotes: true})
	tester.Eq(t, len(e.router.reqs), 1)
	tester.Contains(t, e.router.reqs[0].Prompt, "Newton's laws of motion")
	tester.Contains(t, e.router.reqs[0].Prompt, "diagram")
}

func TestProcess_NotesThenFilesInOrder(t *testing.T) {
	e := newEnv(t)
	res, err := e.pipe.Process(context.Background(), ProcessRequest{
		Notes:     "my notes",
		Files:     []string{e.srv.URL + "/a.pdf", " ", e.srv.URL + "/blank.pdf", e.srv.URL + "/b.pdf"},
		ModelHint: "flash",
	})
	tester.NoErr(t, err)

	p := e.router.reqs[0].Prompt
	tester.Contains(t, p, "my notes\n\ntext of a.pdf\n\ntext of b.pdf")
	tester.Eq(t, e.router.reqs[0].ModelHint, "flash")
	tester.Eq(t, res.Debug.FilesProcessed, 4)
	tester.Eq(t, len(e.ext.seen), 3, "blank URL skipped, blank file still extracted")
	tester.Eq(t, e.leftovers(t), 0, "every download is removed")
}

func TestProcess_DownloadFailureReportsIndex(t *testing.T) {
	e := newEnv(t)
	bad := e.srv.URL + "/missing.pdf"
	_, err := e.pipe.Process(context.Background(), ProcessRequest{
		Notes: "notes",
		Files: []string{bad, e.srv.URL + "/a.pdf"},
	})

	var ce *Error
	tester.True(t, errors.As(err, &ce), "expected *Error")
	tester.Eq(t, ce.Kind, KindDownload)
	tester.Eq(t, ce.Index, 1)
	tester.Eq(t, ce.URL, bad)
	tester.Eq(t, ce.Message, "Could not download file 1. Please check the URL: "+bad)
	tester.Eq(t, HTTPStatus(err), http.StatusBadRequest)
	tester.Eq(t, len(e.router.reqs), 0, "no provider call after a download failure")
}

func TestProcess_LaterFailureCleansEarlierDownloads(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipe.Process(context.Background(), ProcessRequest{
		Files: []string{e.srv.URL + "/a.pdf", e.srv.URL + "/missing.pdf"},
	})
	var ce *Error
	tester.True(t, errors.As(err, &ce), "expected *Error")
	tester.Eq(t, ce.Index, 2)
	tester.Eq(t, e.leftovers(t), 0)
}

func TestProcess_NothingProvided(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipe.Process(context.Background(), ProcessRequest{Notes: "   "})

	var ce *Error
	tester.True(t, errors.As(err, &ce), "expected *Error")
	tester.Eq(t, ce.Kind, KindValidation)
	tester.Eq(t, ce.Message, msgNothingProvided)
	tester.Eq(t, ce.Debug["received_notes_length"], any(3))
	tester.Eq(t, len(e.router.reqs), 0)
}

func TestProcess_NoReadableContent(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipe.Process(context.Background(), ProcessRequest{Files: []string{"", e.srv.URL + "/blank.pdf"}})

	var ce *Error
	tester.True(t, errors.As(err, &ce), "expected *Error")
	tester.Eq(t, ce.Message, msgNoContent)
	tester.Eq(t, ce.Debug["files_received"], any(2))
	tester.Eq(t, HTTPStatus(err), http.StatusBadRequest)
}

func TestProcess_ExtractionOpenFailure(t *testing.T) {
	e := newEnv(t)
	e.ext.openErr = &extract.ExtractionError{Path: "/x", Err: errors.New("permission denied")}
	_, err := e.pipe.Process(context.Background(), ProcessRequest{Files: []string{e.srv.URL + "/a.pdf"}})

	var ce *Error
	tester.True(t, errors.As(err, &ce), "expected *Error")
	tester.Eq(t, ce.Kind, KindExtraction)
	tester.Eq(t, ce.Message, "Could not extract text from PDF 1: permission denied")
	tester.Eq(t, e.leftovers(t), 0)
}

func TestProcess_ProviderExhaustion(t *testing.T) {
	e := newEnv(t)
	e.router.err = llmclient.NewRateLimited("gemini", 0, errors.New("429"))
	_, err := e.pipe.Process(context.Background(), ProcessRequest{Notes: "n"})

	var ce *Error
	tester.True(t, errors.As(err, &ce), "expected *Error")
	tester.Eq(t, ce.Message, MsgProviderFailed)
	tester.Eq(t, HTTPStatus(err), http.StatusServiceUnavailable)
	var f *llmclient.Failure
	tester.True(t, errors.As(err, &f), "provider failure stays inspectable")
}

func TestExplain_RecordsExchange(t *testing.T) {
	e := newEnv(t)
	e.router.reply = "Because of gravity."
	answer, err := e.pipe.Explain(context.Background(), "Why does the apple fall?", "Newton")
	tester.NoErr(t, err)
	tester.Eq(t, answer, "Because of gravity.")

	entries := e.pipe.History().Entries()
	tester.Eq(t, len(entries), 1)
	tester.Eq(t, entries[0].Kind, interaction.KindExplain)
	tester.Eq(t, entries[0].Question, "Why does the apple fall?")
	tester.Eq(t, entries[0].Answer, "Because of gravity.")
}

func TestExplain_RequiresQuestion(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipe.Explain(context.Background(), " ", "ctx")
	tester.Eq(t, HTTPStatus(err), http.StatusBadRequest)
	tester.Eq(t, len(e.pipe.History().Entries()), 0)
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	tester.Eq(t, HTTPStatus(errors.New("boom")), http.StatusInternalServerError)
	tester.Eq(t, HTTPStatus(&Error{Kind: KindServer}), http.StatusInternalServerError)
}
