package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mindflow/internal/collab"
	"mindflow/internal/content"
	"mindflow/internal/extract"
	"mindflow/internal/llm"
	llmclient "mindflow/internal/llm/client"
)

const maxUpload = 32 << 20

func notConfigured(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotImplemented, map[string]any{"error": what + " is not configured"})
}

func (h *Handler) ProcessInteraction(w http.ResponseWriter, r *http.Request) {
	if h.Agent == nil {
		notConfigured(w, "Agent")
		return
	}
	var in collab.AgentInput
	if !h.decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Input) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No input provided"})
		return
	}
	out, err := h.Agent.StartTopic(r.Context(), in)
	if err != nil {
		status, msg := h.agentError(err)
		writeJSON(w, status, map[string]any{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, out.ToMap())
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.Agent == nil {
		notConfigured(w, "Agent")
		return
	}
	out, err := h.Agent.Summary(r.Context())
	if err != nil {
		status, msg := h.agentError(err)
		writeJSON(w, status, map[string]any{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, out.ToMap())
}

// agentError keeps provider detail in the log; clients only see the generic
// provider message.
func (h *Handler) agentError(err error) (int, string) {
	h.logger().Printf("gateway: agent failed: %v", err)
	var f *llmclient.Failure
	if errors.As(err, &f) || errors.Is(err, llm.ErrNoProviders) {
		return http.StatusServiceUnavailable, content.MsgProviderFailed
	}
	return http.StatusInternalServerError, err.Error()
}

// SpeechToText accepts a multipart "file" field or the raw request body.
func (h *Handler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	if h.Transcriber == nil {
		notConfigured(w, "Speech-to-text")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var src io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No audio data received"})
			return
		}
		defer f.Close()
		src = f
	} else {
		src = r.Body
	}

	path, n, err := h.saveUpload(src, "audio.wav")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	defer h.removeUpload(path)
	if n == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No audio data received"})
		return
	}

	text, err := h.Transcriber.Transcribe(r.Context(), path)
	if err != nil {
		h.logger().Printf("gateway: transcription failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text})
}

// TextToSpeech reads text from an uploaded "pdf" file or the "text" form
// field and answers with a WAV file.
func (h *Handler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	if h.Synthesizer == nil {
		notConfigured(w, "Text-to-speech")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid form data"})
		return
	}

	var text string
	if f, hdr, err := r.FormFile("pdf"); err == nil {
		defer f.Close()
		t, status, err := h.pdfText(r, f, hdr)
		if err != nil {
			writeJSON(w, status, map[string]any{"error": err.Error()})
			return
		}
		text = t
	} else {
		text = strings.TrimSpace(r.FormValue("text"))
	}
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No text provided"})
		return
	}

	samples, err := h.Synthesizer.Synthesize(r.Context(), text)
	if err != nil {
		h.logger().Printf("gateway: synthesis failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": fmt.Sprintf("Could not generate audio: %v", err)})
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(collab.EncodeWAV(samples, collab.SampleRate))
}

func (h *Handler) pdfText(r *http.Request, f multipart.File, hdr *multipart.FileHeader) (string, int, error) {
	if hdr.Filename == "" {
		return "", http.StatusBadRequest, errors.New("No selected file")
	}
	if h.Extractor == nil {
		return "", http.StatusNotImplemented, errors.New("PDF extraction is not configured")
	}
	path, _, err := h.saveUpload(f, hdr.Filename)
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	defer h.removeUpload(path)

	if err := h.Extractor.Open(path); err != nil {
		return "", http.StatusBadRequest, fmt.Errorf("Could not extract text from PDF: %v", err)
	}
	res := h.Extractor.Extract(r.Context(), path)
	return extract.JoinBrokenLines(strings.TrimSpace(res.Text)), http.StatusOK, nil
}

// saveUpload streams r into the uploads directory under a unique name.
func (h *Handler) saveUpload(r io.Reader, name string) (string, int64, error) {
	if h.Uploads == nil {
		return "", 0, errors.New("uploads directory is not configured")
	}
	base := strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == ':' {
			return '_'
		}
		return c
	}, filepath.Base(name))
	out, path, err := h.Uploads.SafeCreate(uuid.NewString() + "_" + base)
	if err != nil {
		return "", 0, err
	}
	n, copyErr := io.Copy(out, r)
	if err := out.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		h.removeUpload(path)
		return "", 0, copyErr
	}
	return path, n, nil
}

func (h *Handler) removeUpload(path string) {
	if err := h.Uploads.SafeRemove(path); err != nil {
		h.logger().Printf("gateway: could not remove upload %s: %v", path, err)
	}
}
