package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/http/response"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator func(token string) (string, error)

// Handler serves GET /api/v1/notifications/stream. Browsers cannot set
// headers on EventSource, so the token may also come as ?token=.
type Handler struct {
	manager      *Manager
	authenticate Authenticator
	logger       *slog.Logger
}

// NewHandler wires a stream handler.
func NewHandler(manager *Manager, authenticate Authenticator, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, authenticate: authenticate, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w, "method not allowed", h.logger)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(w, "missing token", h.logger)
		return
	}
	userID, err := h.authenticate(token)
	if err != nil {
		response.HandleError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming unsupported", "error", err)
		response.InternalError(w, "streaming not supported", h.logger)
		return
	}

	client := h.manager.Connect(userID)
	defer h.manager.Disconnect(client.ID)
	log := h.logger.With("client_id", client.ID, "user_id", userID)

	hello := Event{
		Type:      EventConnected,
		Data:      map[string]string{"client_id": client.ID},
		Timestamp: time.Now(),
	}
	if err := writeEvent(rc, w, hello); err != nil {
		log.Warn("failed to send connected event", "error", err)
		return
	}

	ctx := r.Context()
	for {
		select {
		case evt := <-client.Events:
			if err := writeEvent(rc, w, evt); err != nil {
				log.Info("client went away during send")
				return
			}
		case <-client.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// writeEvent emits one "event:/data:" frame and flushes it.
func writeEvent(rc *http.ResponseController, w http.ResponseWriter, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	// Not every writer supports deadlines; the flush already succeeded.
	_ = rc.SetWriteDeadline(time.Now().Add(time.Minute))
	return nil
}
