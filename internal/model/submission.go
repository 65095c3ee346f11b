package model

import "time"

// SubmissionKind distinguishes unlock submissions from leaderboard entries
type SubmissionKind string

const (
	SubmissionUnlock      SubmissionKind = "unlock"
	SubmissionLeaderboard SubmissionKind = "leaderboard"
)

// SubmissionTask is a single unit of work for the submission pipeline.
// UserAuth, Signature and Attempt are filled in while the task is processed.
// Requeued marks unlocks restored from the pending store.
type SubmissionTask struct {
	ID            string         `json:"id"`
	Kind          SubmissionKind `json:"kind"`
	SessionID     string         `json:"session_id,omitempty"`
	GameID        GameID         `json:"game_id"`
	AchievementID AchievementID  `json:"achievement_id,omitempty"`
	LeaderboardID LeaderboardID  `json:"leaderboard_id,omitempty"`
	Score         int            `json:"score,omitempty"`
	HardcoreMode  bool           `json:"hardcore_mode"`
	UserAuth      UserAuth       `json:"-"`
	Signature     string         `json:"-"`
	Attempt       int            `json:"attempt"`
	Requeued      bool           `json:"requeued,omitempty"`
}

// UnclaimedUsername owns pending unlocks triggered while nobody was logged
// in. The next login takes them over.
const UnclaimedUsername = ""

// PendingUnlock is an unlock that has not been confirmed by the server yet
type PendingUnlock struct {
	AchievementID AchievementID `json:"achievement_id"`
	GameID        GameID        `json:"game_id"`
	Username      string        `json:"username"`
	HardcoreMode  bool          `json:"hardcore_mode"`
	CreatedAt     time.Time     `json:"created_at"`
}

// UnlockResponse is the server's answer to an unlock submission.
// AchievementAwarded is false when the user already had the achievement.
type UnlockResponse struct {
	AchievementAwarded    bool `json:"achievement_awarded"`
	RemainingAchievements int  `json:"remaining_achievements"`
	Score                 int  `json:"score"`
}

// SetMastered reports whether this unlock completed the game's achievements
func (r UnlockResponse) SetMastered() bool {
	return r.AchievementAwarded && r.RemainingAchievements == 0
}

// LeaderboardEntryResponse is the server's answer to a leaderboard entry
type LeaderboardEntryResponse struct {
	Rank           int    `json:"rank"`
	NumEntries     int    `json:"num_entries"`
	Score          int    `json:"score"`
	BestScore      int    `json:"best_score"`
	FormattedScore string `json:"formatted_score"`
}

// SubmissionStatus is the terminal outcome of a submission task
type SubmissionStatus string

const (
	// SubmissionConfirmed means the server accepted the submission
	SubmissionConfirmed SubmissionStatus = "confirmed"
	// SubmissionDeferred means the unlock stays pending and will be requeued
	SubmissionDeferred SubmissionStatus = "deferred"
	// SubmissionDropped means a leaderboard entry was abandoned
	SubmissionDropped SubmissionStatus = "dropped"
)

// SubmissionResult is sent back to the tracker when a task finishes
type SubmissionResult struct {
	Task        SubmissionTask
	Status      SubmissionStatus
	Unlock      *UnlockResponse
	Leaderboard *LeaderboardEntryResponse
	Err         error
}
