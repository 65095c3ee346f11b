package model

import "time"

// SessionSeed is everything the tracker needs to open a session for a game.
// Unlocked holds ids the server reports as already unlocked; Pending holds
// ids unlocked locally whose submission has not been confirmed.
type SessionSeed struct {
	Game         Game
	HardcoreMode bool
	Achievements []Achievement
	Leaderboards []Leaderboard
	Unlocked     []AchievementID
	Pending      []AchievementID
}

// GameSetMetadata records when cached data for a game was last refreshed
type GameSetMetadata struct {
	GameID                    GameID    `json:"game_id"`
	LastAchievementSetUpdated time.Time `json:"last_achievement_set_updated,omitempty"`
	LastUserDataUpdated       time.Time `json:"last_user_data_updated,omitempty"`
}

// UserUnlocks is the cached unlock list of one user for one game
type UserUnlocks struct {
	GameID       GameID          `json:"game_id"`
	Username     string          `json:"username"`
	HardcoreMode bool            `json:"hardcore_mode"`
	Achievements []AchievementID `json:"achievements"`
}

// SessionView is a point-in-time copy of the tracker's session state.
// Achievements are in display order; Leaderboards holds active attempts.
type SessionView struct {
	SessionID    string
	Game         Game
	HardcoreMode bool
	Achievements []AchievementRuntimeState
	Leaderboards []LeaderboardAttempt
}
