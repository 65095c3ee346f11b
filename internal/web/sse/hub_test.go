package sse

import (
	"testing"
	"time"

	"github.com/mcoot/rasync/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "test-event",
			data:      "hello world",
			expected:  "event: test-event\ndata: hello world\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "snapshot-changed",
			data:      "{\n  \"type\": \"snapshot-changed\"\n}",
			expected:  "event: snapshot-changed\ndata: {\ndata:   \"type\": \"snapshot-changed\"\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single line",
			input:    "hello",
			expected: []string{"hello"},
		},
		{
			name:     "two lines",
			input:    "line1\nline2",
			expected: []string{"line1", "line2"},
		},
		{
			name:     "trailing newline",
			input:    "line1\n",
			expected: []string{"line1"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{""},
		},
		{
			name:     "crlf line endings",
			input:    "line1\r\nline2\r\n",
			expected: []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func newTestHub(t *testing.T) *Hub {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub)
	hub.Register(client)

	waitForClients(t, hub, 1)

	hub.BroadcastEvent("test-event", "test data")

	select {
	case msg := <-client.send:
		expected := "event: test-event\ndata: test data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub)
	hub.Register(client)
	hub.Unregister(client)

	hub.Register(NewClient(hub))

	if _, ok := <-client.send; ok {
		t.Error("unregistered client channel still open")
	}
	waitForClients(t, hub, 1)
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := newTestHub(t)

	clients := []*Client{NewClient(hub), NewClient(hub), NewClient(hub)}
	for _, c := range clients {
		hub.Register(c)
	}

	waitForClients(t, hub, 3)

	hub.BroadcastEvent("update", "data")

	for i, client := range clients {
		select {
		case msg := <-client.send:
			expected := "event: update\ndata: data\n\n"
			if string(msg) != expected {
				t.Errorf("client %d received %q, want %q", i+1, string(msg), expected)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i+1)
		}
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub)
	hub.Register(client)
	waitForClients(t, hub, 1)
	hub.Close()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed channel, got message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client channel not closed")
	}

	if hub.Register(NewClient(hub)) {
		t.Error("Register succeeded on closed hub")
	}
	hub.Close()
}

func TestClient_IDsAreUnique(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	a, b := NewClient(hub), NewClient(hub)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("client ids %q and %q should be unique and non-empty", a.ID(), b.ID())
	}
}
