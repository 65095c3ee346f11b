package sse

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	hub         *Hub
	id          string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(hub *Hub) *Client {
	return &Client{
		hub:         hub,
		id:          uuid.NewString(),
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ID returns the client's connection id
func (c *Client) ID() string {
	return c.id
}

// ServeSSE handles the SSE connection for a client. initial, when not nil,
// is written right after the connected event.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, initial []byte) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	client := NewClient(hub)
	if !hub.Register(client) {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	_, _ = w.Write(formatSSEMessage("connected", `{"client_id":"`+client.id+`"}`))
	if initial != nil {
		_, _ = w.Write(initial)
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
