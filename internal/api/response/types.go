package response

import (
	"github.com/mcoot/rasync/internal/model"
)

// Account represents the account state in API responses
type Account struct {
	Status      string `json:"status"`
	AccountName string `json:"account_name,omitempty"`
}

// AccountFromModel converts a model.AccountState to a response Account
func AccountFromModel(s model.AccountState) Account {
	return Account{
		Status:      string(s.Status),
		AccountName: s.AccountName,
	}
}

// Achievement represents an achievement definition
type Achievement struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
	BadgeURL    string `json:"badge_url,omitempty"`
	Type        string `json:"type"`
}

// AchievementFromModel converts model.Achievement
func AchievementFromModel(a model.Achievement) Achievement {
	return Achievement{
		ID:          int64(a.ID),
		Title:       a.Title,
		Description: a.Description,
		Points:      a.Points,
		BadgeURL:    a.BadgeURLLocked,
		Type:        string(a.Type),
	}
}

func achievementsFromModel(as []model.Achievement) []Achievement {
	out := make([]Achievement, len(as))
	for i, a := range as {
		out[i] = AchievementFromModel(a)
	}
	return out
}

// Progress represents reported progress towards an achievement
type Progress struct {
	AchievementID int64  `json:"achievement_id"`
	Current       int    `json:"current"`
	Target        int    `json:"target"`
	Display       string `json:"display,omitempty"`
}

// LeaderboardAttempt represents an active leaderboard attempt
type LeaderboardAttempt struct {
	LeaderboardID int64  `json:"leaderboard_id"`
	Title         string `json:"title"`
	Display       string `json:"display,omitempty"`
}

// Snapshot is the presentation snapshot of the running session
type Snapshot struct {
	IntegrationEnabled    bool                 `json:"integration_enabled"`
	GameID                int64                `json:"game_id,omitempty"`
	Title                 string               `json:"title,omitempty"`
	Icon                  string               `json:"icon,omitempty"`
	RichPresencePatch     string               `json:"rich_presence_patch,omitempty"`
	HardcoreMode          bool                 `json:"hardcore_mode"`
	TotalAchievementCount int                  `json:"total_achievement_count"`
	UnlockedCount         int                  `json:"unlocked_count"`
	TotalPoints           int                  `json:"total_points"`
	UnlockedPoints        int                  `json:"unlocked_points"`
	PendingConfirmation   int                  `json:"pending_confirmation"`
	LockedAchievements    []Achievement        `json:"locked_achievements"`
	PrimedAchievements    []Achievement        `json:"primed_achievements"`
	Progress              []Progress           `json:"progress"`
	ActiveLeaderboards    []LeaderboardAttempt `json:"active_leaderboards"`
}

// SnapshotFromModel converts model.GameAchievementData
func SnapshotFromModel(d model.GameAchievementData) Snapshot {
	s := Snapshot{
		IntegrationEnabled:    d.IntegrationEnabled,
		GameID:                int64(d.GameID),
		Title:                 d.Title,
		Icon:                  d.Icon,
		RichPresencePatch:     d.RichPresencePatch,
		HardcoreMode:          d.HardcoreMode,
		TotalAchievementCount: d.TotalAchievementCount,
		UnlockedCount:         d.UnlockedAchievementCount(),
		TotalPoints:           d.TotalPoints,
		UnlockedPoints:        d.UnlockedPoints,
		PendingConfirmation:   d.PendingConfirmation,
		LockedAchievements:    achievementsFromModel(d.LockedAchievements),
		PrimedAchievements:    achievementsFromModel(d.PrimedAchievements),
		Progress:              make([]Progress, len(d.Progress)),
		ActiveLeaderboards:    make([]LeaderboardAttempt, len(d.ActiveLeaderboards)),
	}

	for i, p := range d.Progress {
		s.Progress[i] = Progress{
			AchievementID: int64(p.AchievementID),
			Current:       p.Progress.Current,
			Target:        p.Progress.Target,
			Display:       p.Progress.Display,
		}
	}

	for i, a := range d.ActiveLeaderboards {
		s.ActiveLeaderboards[i] = LeaderboardAttempt{
			LeaderboardID: int64(a.Leaderboard.ID),
			Title:         a.Leaderboard.Title,
			Display:       a.Display,
		}
	}

	return s
}

// EventsResponse reports how many events of a batch were applied
type EventsResponse struct {
	Applied  int      `json:"applied"`
	Snapshot Snapshot `json:"snapshot"`
}

// RetryResponse reports how many submissions were queued again
type RetryResponse struct {
	Queued int `json:"queued"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status     string `json:"status"`
	SSEClients int    `json:"sse_clients"`
}
