package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
)

// Broadcaster pushes notifications to SSE clients as JSON events named
// after the notification type
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// Ensure Broadcaster implements Notifier
var _ notify.Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Notify broadcasts n. It never blocks; a full hub drops the message.
func (b *Broadcaster) Notify(n model.Notification) {
	message, err := EncodeEvent(string(n.Type), n)
	if err != nil {
		b.logger.Error("sse failed to encode notification",
			slog.String("type", string(n.Type)),
			slog.Any("error", err))
		return
	}
	b.hub.Broadcast(message)
}

// EncodeEvent formats v as a JSON SSE event
func EncodeEvent(eventName string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(eventName, string(data)), nil
}
