package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Account:
		o.printAccount(v)
	case Snapshot:
		o.printSnapshot(v)
	case EventsResult:
		o.printEventsResult(v)
	case RetryResult:
		o.printRetryResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	Status      string `json:"status"`
	AccountName string `json:"account_name,omitempty"`
}

// Achievement response type
type Achievement struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
	Type        string `json:"type"`
}

// Progress response type
type Progress struct {
	AchievementID int64  `json:"achievement_id"`
	Current       int    `json:"current"`
	Target        int    `json:"target"`
	Display       string `json:"display,omitempty"`
}

// LeaderboardAttempt response type
type LeaderboardAttempt struct {
	LeaderboardID int64  `json:"leaderboard_id"`
	Title         string `json:"title"`
	Display       string `json:"display,omitempty"`
}

// Snapshot response type
type Snapshot struct {
	IntegrationEnabled    bool                 `json:"integration_enabled"`
	GameID                int64                `json:"game_id,omitempty"`
	Title                 string               `json:"title,omitempty"`
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

// EventsResult response type
type EventsResult struct {
	Applied  int      `json:"applied"`
	Snapshot Snapshot `json:"snapshot"`
}

// RetryResult response type
type RetryResult struct {
	Queued int `json:"queued"`
}

// HealthResult response type
type HealthResult struct {
	Status     string `json:"status"`
	SSEClients int    `json:"sse_clients"`
}

func (o *Output) printAccount(a Account) {
	if a.AccountName != "" {
		fmt.Printf("Account: %s (%s)\n", a.AccountName, a.Status)
		return
	}
	fmt.Printf("Account: %s\n", a.Status)
}

func (o *Output) printSnapshot(s Snapshot) {
	if !s.IntegrationEnabled {
		fmt.Println("Achievements: disabled")
		return
	}

	mode := "softcore"
	if s.HardcoreMode {
		mode = "hardcore"
	}
	fmt.Printf("Game: %s (%d)\n", s.Title, s.GameID)
	fmt.Printf("Mode: %s\n", mode)
	fmt.Printf("Unlocked: %d/%d achievements, %d/%d points\n",
		s.UnlockedCount, s.TotalAchievementCount, s.UnlockedPoints, s.TotalPoints)
	if s.PendingConfirmation > 0 {
		fmt.Printf("Awaiting confirmation: %d\n", s.PendingConfirmation)
	}

	if len(s.PrimedAchievements) > 0 {
		fmt.Println("\nPrimed:")
		for _, a := range s.PrimedAchievements {
			fmt.Printf("  - %s (%d)\n", a.Title, a.ID)
		}
	}

	if len(s.Progress) > 0 {
		fmt.Println("\nProgress:")
		for _, p := range s.Progress {
			display := p.Display
			if display == "" {
				display = fmt.Sprintf("%d/%d", p.Current, p.Target)
			}
			fmt.Printf("  - %d: %s\n", p.AchievementID, display)
		}
	}

	if len(s.ActiveLeaderboards) > 0 {
		fmt.Println("\nLeaderboards:")
		for _, l := range s.ActiveLeaderboards {
			fmt.Printf("  - %s (%d) %s\n", l.Title, l.LeaderboardID, l.Display)
		}
	}

	if len(s.LockedAchievements) > 0 {
		fmt.Printf("\nLocked (%d):\n", len(s.LockedAchievements))
		for _, a := range s.LockedAchievements {
			fmt.Printf("  - %s (%d) %d pts\n", a.Title, a.ID, a.Points)
		}
	}
}

func (o *Output) printEventsResult(r EventsResult) {
	fmt.Printf("Applied %d event(s)\n", r.Applied)
	o.printSnapshot(r.Snapshot)
}

func (o *Output) printRetryResult(r RetryResult) {
	fmt.Printf("Queued %d submission(s)\n", r.Queued)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Stream clients: %d\n", h.SSEClients)
}
