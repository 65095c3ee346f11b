package model

import "time"

// NotificationType identifies a presentation notification
type NotificationType string

const (
	NotificationAchievementPrimed    NotificationType = "achievement-primed"
	NotificationAchievementUnprimed  NotificationType = "achievement-unprimed"
	NotificationAchievementTriggered NotificationType = "achievement-triggered"
	NotificationAchievementConfirmed NotificationType = "achievement-confirmed"
	NotificationSetMastered          NotificationType = "set-mastered"
	NotificationLeaderboardStarted   NotificationType = "leaderboard-started"
	NotificationLeaderboardCanceled  NotificationType = "leaderboard-canceled"
	NotificationLeaderboardSubmitted NotificationType = "leaderboard-submitted"
	NotificationSnapshotChanged      NotificationType = "snapshot-changed"
	NotificationAccountChanged       NotificationType = "account-changed"
)

// Notification is a side effect surfaced to the presentation layer
type Notification struct {
	Type        NotificationType          `json:"type"`
	Timestamp   time.Time                 `json:"timestamp"`
	GameID      GameID                    `json:"game_id,omitempty"`
	Achievement *Achievement              `json:"achievement,omitempty"`
	Leaderboard *Leaderboard              `json:"leaderboard,omitempty"`
	Entry       *LeaderboardEntryResponse `json:"entry,omitempty"`
	Account     *AccountState             `json:"account,omitempty"`
	GameTitle   string                    `json:"game_title,omitempty"`
	GameIconURL string                    `json:"game_icon_url,omitempty"`
}
