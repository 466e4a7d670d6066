package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"mindflow/internal/collab"
	"mindflow/internal/content"
	"mindflow/internal/extract"
	llmclient "mindflow/internal/llm/client"
	"mindflow/internal/safeio"
	"mindflow/internal/util/jsonutil"
)

const maxJSONBody = 4 << 20

// Handler serves the HTTP surface. Collaborators left nil answer 501.
type Handler struct {
	Pipeline *content.Pipeline
	Uploads  *safeio.SafeFS
	// Extractor reads uploaded PDFs for text-to-speech.
	Extractor   *extract.Extractor
	Agent       collab.Agent
	Transcriber collab.Transcriber
	Synthesizer collab.Synthesizer
	// Origins may open the tutor websocket; "*" allows any.
	Origins []string
	// WSPongWait overrides the tutor websocket read deadline.
	WSPongWait time.Duration
	Log        *log.Logger
}

func (h *Handler) logger() *log.Logger {
	if h.Log != nil {
		return h.Log
	}
	return log.Default()
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "MindFlow backend is running 🚀"})
}

type processContentRequest struct {
	Notes             string   `json:"notes"`
	Files             []string `json:"files"`
	ModelHint         string   `json:"model_hint"`
	PreferredProvider string   `json:"preferred_provider"`
	ModelOverride     string   `json:"model_override"`
}

func (h *Handler) ProcessContent(w http.ResponseWriter, r *http.Request) {
	var in processContentRequest
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.Pipeline.Process(r.Context(), content.ProcessRequest{
		Notes:             in.Notes,
		Files:             in.Files,
		ModelHint:         in.ModelHint,
		PreferredProvider: in.PreferredProvider,
		ModelOverride:     in.ModelOverride,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response":   res.Response,
		"status":     "success",
		"provider":   res.Provider,
		"model":      res.Model,
		"debug_info": res.Debug,
	})
}

func (h *Handler) InteractiveQuestions(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Context string `json:"context"`
	}
	if !h.decode(w, r, &in) {
		return
	}
	questions, err := h.Pipeline.Quiz(r.Context(), in.Context)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions, "status": "success"})
}

func (h *Handler) ExplainMore(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	}
	if !h.decode(w, r, &in) {
		return
	}
	answer, err := h.Pipeline.Explain(r.Context(), in.Question, in.Context)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": answer, "status": "success"})
}

// TestProvider is a smoke test for one provider. The default provider is
// github; the answer names the provider that actually replied.
func (h *Handler) TestProvider(w http.ResponseWriter, r *http.Request) {
	in := struct {
		Prompt   string `json:"prompt"`
		Provider string `json:"provider"`
	}{}
	if r.ContentLength != 0 && !h.decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Provider) == "" {
		in.Provider = llmclient.ProviderGitHub
	}
	resp, err := h.Pipeline.TestProvider(r.Context(), in.Provider, in.Prompt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response": resp.Text,
		"status":   "success",
		"api_used": resp.Provider,
		"model":    resp.Model,
	})
}

func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": h.Pipeline.History().Entries()})
}

// decode reads a JSON object body; it writes the 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Could not read request body"})
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 || strings.TrimSpace(string(body)) == "null" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No data provided"})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON body"})
		return false
	}
	return true
}

// writeError renders pipeline failures. Provider details never reach the
// client; server errors carry the technical message for operators.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := content.HTTPStatus(err)
	var ce *content.Error
	switch {
	case errors.As(err, &ce) && status < http.StatusInternalServerError:
		body := map[string]any{"error": ce.Message}
		if ce.Debug != nil {
			body["debug_info"] = ce.Debug
		}
		writeJSON(w, status, body)
	case status == http.StatusServiceUnavailable:
		h.logger().Printf("gateway: provider failure: %v", err)
		writeJSON(w, status, map[string]any{"error": content.MsgProviderFailed})
	default:
		h.logger().Printf("gateway: unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":           "Server error occurred",
			"technical_error": err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
