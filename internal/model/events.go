package model

import "time"

// EventType identifies the type of runtime event emitted by the emulator
type EventType string

const (
	// Achievement events
	EventAchievementPrimed          EventType = "achievement_primed"
	EventAchievementUnprimed        EventType = "achievement_unprimed"
	EventAchievementTriggered       EventType = "achievement_triggered"
	EventAchievementProgressUpdated EventType = "achievement_progress_updated"

	// Leaderboard events
	EventLeaderboardAttemptStarted   EventType = "leaderboard_attempt_started"
	EventLeaderboardAttemptUpdated   EventType = "leaderboard_attempt_updated"
	EventLeaderboardAttemptCanceled  EventType = "leaderboard_attempt_canceled"
	EventLeaderboardAttemptCompleted EventType = "leaderboard_attempt_completed"
)

// IsLeaderboardEvent reports whether the event refers to a leaderboard
func (t EventType) IsLeaderboardEvent() bool {
	switch t {
	case EventLeaderboardAttemptStarted, EventLeaderboardAttemptUpdated,
		EventLeaderboardAttemptCanceled, EventLeaderboardAttemptCompleted:
		return true
	}
	return false
}

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventAchievementPrimed, EventAchievementUnprimed, EventAchievementTriggered,
		EventAchievementProgressUpdated:
		return true
	}
	return t.IsLeaderboardEvent()
}

// Event is a single achievement-runtime event. Only the fields relevant to
// Type are populated.
type Event struct {
	Type          EventType     `json:"type"`
	Timestamp     time.Time     `json:"timestamp,omitempty"`
	AchievementID AchievementID `json:"achievement_id,omitempty"`
	LeaderboardID LeaderboardID `json:"leaderboard_id,omitempty"`

	// Progress payload
	Current int    `json:"current,omitempty"`
	Target  int    `json:"target,omitempty"`
	Display string `json:"display,omitempty"`

	// Leaderboard payload
	Value int `json:"value,omitempty"`
}

// Primed builds an achievement primed event
func Primed(id AchievementID) Event {
	return Event{Type: EventAchievementPrimed, AchievementID: id}
}

// Unprimed builds an achievement unprimed event
func Unprimed(id AchievementID) Event {
	return Event{Type: EventAchievementUnprimed, AchievementID: id}
}

// Triggered builds an achievement triggered event
func Triggered(id AchievementID) Event {
	return Event{Type: EventAchievementTriggered, AchievementID: id}
}

// ProgressUpdated builds an achievement progress event
func ProgressUpdated(id AchievementID, current, target int, display string) Event {
	return Event{
		Type:          EventAchievementProgressUpdated,
		AchievementID: id,
		Current:       current,
		Target:        target,
		Display:       display,
	}
}

// LeaderboardStarted builds a leaderboard attempt started event
func LeaderboardStarted(id LeaderboardID) Event {
	return Event{Type: EventLeaderboardAttemptStarted, LeaderboardID: id}
}

// LeaderboardUpdated builds a leaderboard attempt updated event
func LeaderboardUpdated(id LeaderboardID, display string) Event {
	return Event{Type: EventLeaderboardAttemptUpdated, LeaderboardID: id, Display: display}
}

// LeaderboardCanceled builds a leaderboard attempt canceled event
func LeaderboardCanceled(id LeaderboardID) Event {
	return Event{Type: EventLeaderboardAttemptCanceled, LeaderboardID: id}
}

// LeaderboardCompleted builds a leaderboard attempt completed event
func LeaderboardCompleted(id LeaderboardID, value int) Event {
	return Event{Type: EventLeaderboardAttemptCompleted, LeaderboardID: id, Value: value}
}
