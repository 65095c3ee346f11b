package request

import (
	"time"

	"github.com/mcoot/rasync/internal/model"
)

// LoginRequest is the request body for logging in to the achievements service
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadGameRequest is the request body for opening a session. One of
// GameID or Hash is required.
type LoadGameRequest struct {
	GameID int64  `json:"game_id,omitempty"`
	Hash   string `json:"hash,omitempty"`
}

// Identifier converts the request into a game identifier
func (r LoadGameRequest) Identifier() model.GameIdentifier {
	return model.GameIdentifier{ID: model.GameID(r.GameID), Hash: r.Hash}
}

// Event is a runtime event as posted by the emulator
type Event struct {
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	AchievementID int64     `json:"achievement_id,omitempty"`
	LeaderboardID int64     `json:"leaderboard_id,omitempty"`
	Current       int       `json:"current,omitempty"`
	Target        int       `json:"target,omitempty"`
	Display       string    `json:"display,omitempty"`
	Value         int       `json:"value,omitempty"`
}

// Model converts the event into its model form
func (e Event) Model() model.Event {
	return model.Event{
		Type:          model.EventType(e.Type),
		Timestamp:     e.Timestamp,
		AchievementID: model.AchievementID(e.AchievementID),
		LeaderboardID: model.LeaderboardID(e.LeaderboardID),
		Current:       e.Current,
		Target:        e.Target,
		Display:       e.Display,
		Value:         e.Value,
	}
}

// EventsRequest is the request body for posting a batch of runtime events
type EventsRequest struct {
	Events []Event `json:"events"`
}
