package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/rasync/internal/api/request"
	"github.com/mcoot/rasync/internal/api/response"
	"github.com/mcoot/rasync/internal/model"
)

// maxEventsPerBatch bounds a single POST of runtime events
const maxEventsPerBatch = 1000

// SessionController drives the achievements session of the running game
type SessionController interface {
	Load(ctx context.Context, ident model.GameIdentifier) (model.GameAchievementData, error)
	End()
	Snapshot() model.GameAchievementData
	HandleEvents(events []model.Event) (int, error)
	Retry(ctx context.Context) (int, error)
}

// SessionHandler handles session and event endpoints
type SessionHandler struct {
	sessions SessionController
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionController) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Load handles POST /api/v1/session
func (h *SessionHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req request.LoadGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	data, err := h.sessions.Load(r.Context(), req.Identifier())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.SnapshotFromModel(data))
}

// End handles DELETE /api/v1/session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.sessions.End()
	response.NoContent(w)
}

// Snapshot handles GET /api/v1/session/snapshot
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SnapshotFromModel(h.sessions.Snapshot()))
}

// Events handles POST /api/v1/session/events. Events are applied in
// order; the first rejected one ends the batch with a 400 naming its index.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	var req request.EventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if len(req.Events) == 0 {
		WriteError(w, NewInvalidRequestError("events is required"))
		return
	}
	if len(req.Events) > maxEventsPerBatch {
		WriteError(w, NewInvalidRequestError("too many events in one batch"))
		return
	}

	events := make([]model.Event, len(req.Events))
	for i, e := range req.Events {
		events[i] = e.Model()
	}

	applied, err := h.sessions.HandleEvents(events)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EventsResponse{
		Applied:  applied,
		Snapshot: response.SnapshotFromModel(h.sessions.Snapshot()),
	})
}

// Retry handles POST /api/v1/submissions/retry
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	queued, err := h.sessions.Retry(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Accepted(w, response.RetryResponse{Queued: queued})
}
