package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mindflow/internal/collab"
	"mindflow/internal/gateway/middleware"
)

const (
	tutorWSWriteWait = 10 * time.Second
	tutorWSPongWait  = 60 * time.Second
	tutorWSQueue     = 8
)

type tutorWSInbound struct {
	Type string `json:"type"`
	collab.AgentInput
}

type tutorWSOutbound struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	allowed := middleware.OriginAllowed(h.Origins)
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed(origin)
		},
	}
}

func (h *Handler) pongWait() time.Duration {
	if h.WSPongWait > 0 {
		return h.WSPongWait
	}
	return tutorWSPongWait
}

// TutorWS runs a tutoring session over a websocket. Each "input" message is
// one agent turn; "summary" returns the session summary. Turns run one at a
// time on a worker so the read loop keeps answering pongs during slow turns.
func (h *Handler) TutorWS(w http.ResponseWriter, r *http.Request) {
	if h.Agent == nil {
		notConfigured(w, "Agent")
		return
	}
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pongWait := h.pongWait()
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger().Printf("gateway: tutor ws read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeCh := make(chan tutorWSOutbound, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pongWait * 9 / 10)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(tutorWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(tutorWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
	push := func(out tutorWSOutbound) {
		select {
		case writeCh <- out:
		case <-writerDone:
		}
	}

	turns := make(chan tutorWSInbound, tutorWSQueue)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case in := <-turns:
				push(h.tutorTurn(ctx, in))
			}
		}
	}()

	for {
		var in tutorWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			<-workerDone
			return
		}
		in.Type = strings.ToLower(strings.TrimSpace(in.Type))
		switch in.Type {
		case "ping":
			push(tutorWSOutbound{Type: "pong"})
		case "input", "summary":
			select {
			case turns <- in:
			default:
				push(tutorWSOutbound{Type: "error", Code: "resource_exhausted", Message: "too many pending turns"})
			}
		case "":
			push(tutorWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			push(tutorWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

func (h *Handler) tutorTurn(ctx context.Context, in tutorWSInbound) tutorWSOutbound {
	if in.Type == "summary" {
		out, err := h.Agent.Summary(ctx)
		if err != nil {
			_, msg := h.agentError(err)
			return tutorWSOutbound{Type: "error", Code: "internal", Message: msg}
		}
		return tutorWSOutbound{Type: "summary", Data: out.ToMap()}
	}
	if strings.TrimSpace(in.Input) == "" {
		return tutorWSOutbound{Type: "error", Code: "invalid_argument", Message: "No input provided"}
	}
	out, err := h.Agent.StartTopic(ctx, in.AgentInput)
	if err != nil {
		status, msg := h.agentError(err)
		code := "internal"
		if status == http.StatusServiceUnavailable {
			code = "unavailable"
		}
		return tutorWSOutbound{Type: "error", Code: code, Message: msg}
	}
	return tutorWSOutbound{Type: "reply", Data: out.ToMap()}
}
