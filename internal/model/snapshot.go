package model

// AchievementProgress pairs an achievement with its reported progress
type AchievementProgress struct {
	AchievementID AchievementID `json:"achievement_id"`
	Progress      Progress      `json:"progress"`
}

// LeaderboardAttempt is an in-progress leaderboard attempt
type LeaderboardAttempt struct {
	Leaderboard Leaderboard `json:"leaderboard"`
	Display     string      `json:"display,omitempty"`
}

// GameAchievementData is the presentation-facing snapshot of the running
// session. LockedAchievements holds achievements that have not fired yet
// (Locked or Primed); triggered achievements count as unlocked.
type GameAchievementData struct {
	IntegrationEnabled    bool          `json:"integration_enabled"`
	GameID                GameID        `json:"game_id,omitempty"`
	Title                 string        `json:"title,omitempty"`
	Icon                  string        `json:"icon,omitempty"`
	RichPresencePatch     string        `json:"rich_presence_patch,omitempty"`
	HardcoreMode          bool          `json:"hardcore_mode"`
	LockedAchievements    []Achievement `json:"locked_achievements"`
	TotalAchievementCount int           `json:"total_achievement_count"`

	PrimedAchievements  []Achievement         `json:"primed_achievements"`
	Progress            []AchievementProgress `json:"progress"`
	ActiveLeaderboards  []LeaderboardAttempt  `json:"active_leaderboards"`
	PendingConfirmation int                   `json:"pending_confirmation"`
	TotalPoints         int                   `json:"total_points"`
	UnlockedPoints      int                   `json:"unlocked_points"`
}

// UnlockedAchievementCount returns the number of unlocked achievements
func (d GameAchievementData) UnlockedAchievementCount() int {
	return d.TotalAchievementCount - len(d.LockedAchievements)
}

// DisabledGameAchievementData is the snapshot used whenever the
// integration is unavailable for the running game
func DisabledGameAchievementData() GameAchievementData {
	return GameAchievementData{
		IntegrationEnabled: false,
		LockedAchievements: []Achievement{},
		PrimedAchievements: []Achievement{},
		Progress:           []AchievementProgress{},
		ActiveLeaderboards: []LeaderboardAttempt{},
	}
}
