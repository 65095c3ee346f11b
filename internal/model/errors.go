package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAuthRequired     = errors.New("achievements login required")
	ErrAuthRejected     = errors.New("achievements credentials rejected")
	ErrUserAuthNotFound = errors.New("user auth not found")

	// Service errors
	ErrNetwork         = errors.New("achievements service unreachable")
	ErrInvalidResponse = errors.New("invalid achievements service response")

	// Game errors
	ErrGameNotFound          = errors.New("game not found")
	ErrInvalidGameIdentifier = errors.New("game id or hash is required")
	ErrGameSetsNotCached     = errors.New("game achievement sets not cached")
	ErrUserUnlocksNotCached  = errors.New("user unlocks not cached")
	ErrHashLibraryNotCached  = errors.New("hash library not cached")

	// Session errors
	ErrNoActiveSession = errors.New("no active achievements session")
	ErrSessionClosed   = errors.New("achievements session closed")
	ErrInvalidEvent    = errors.New("invalid runtime event")

	// ErrDuplicateEvent marks an event that did not change state. It is
	// absorbed by the tracker and never returned to callers of OnEvent.
	ErrDuplicateEvent = errors.New("duplicate runtime event")

	// ErrUnknownAchievement and ErrUnknownLeaderboard mark an event for an
	// id outside the loaded set
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrUnknownLeaderboard = errors.New("unknown leaderboard")
)
