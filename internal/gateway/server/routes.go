package server

import (
	"net/http"

	"mindflow/internal/gateway/handler"
	"mindflow/internal/gateway/middleware"
)

func NewMux(h *handler.Handler, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Home)

	// Content
	mux.HandleFunc("POST /process-content", h.ProcessContent)
	mux.HandleFunc("POST /interactive-questions", h.InteractiveQuestions)
	mux.HandleFunc("POST /explain-more", h.ExplainMore)
	mux.HandleFunc("GET /interactions", h.Interactions)
	mux.HandleFunc("POST /test-provider", h.TestProvider)

	// Collaborators
	mux.HandleFunc("POST /process-interaction", h.ProcessInteraction)
	mux.HandleFunc("GET /get-summary", h.Summary)
	mux.HandleFunc("GET /ws/tutor", h.TutorWS)
	mux.HandleFunc("POST /speech2text", h.SpeechToText)
	mux.HandleFunc("POST /process-text2speech", h.TextToSpeech)

	return middleware.CORS(allowedOrigins)(mux)
}
