package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/rasync/internal/api/response"
	"github.com/mcoot/rasync/internal/web/sse"
)

// EventsHandler streams notifications to presentation clients
type EventsHandler struct {
	hub      *sse.Hub
	sessions SessionController
	logger   *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub, sessions SessionController, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:      hub,
		sessions: sessions,
		logger:   logger,
	}
}

// Stream handles GET /api/v1/events. The current snapshot is sent first so
// a client never has to poll before the first change arrives.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	snapshot := response.SnapshotFromModel(h.sessions.Snapshot())
	initial, err := sse.EncodeEvent("snapshot", snapshot)
	if err != nil {
		h.logger.Error("failed to encode initial snapshot", slog.String("error", err.Error()))
		initial = nil
	}
	sse.ServeSSE(w, r, h.hub, initial)
}
