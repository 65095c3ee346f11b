package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// Event is a runtime event as accepted by the daemon
type Event struct {
	Type          string `json:"type"`
	AchievementID int64  `json:"achievement_id,omitempty"`
	LeaderboardID int64  `json:"leaderboard_id,omitempty"`
	Current       int    `json:"current,omitempty"`
	Target        int    `json:"target,omitempty"`
	Display       string `json:"display,omitempty"`
	Value         int    `json:"value,omitempty"`
}

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Post runtime events as the emulator would",
	}

	cmd.AddCommand(newAchievementEventCmd("prime <achievement-id>", "Prime an achievement", "achievement_primed"))
	cmd.AddCommand(newAchievementEventCmd("unprime <achievement-id>", "Unprime an achievement", "achievement_unprimed"))
	cmd.AddCommand(newAchievementEventCmd("trigger <achievement-id>", "Trigger an achievement", "achievement_triggered"))
	cmd.AddCommand(newProgressEventCmd())
	cmd.AddCommand(newLeaderboardEventCmd("lb-start <leaderboard-id>", "Start a leaderboard attempt", "leaderboard_attempt_started"))
	cmd.AddCommand(newLeaderboardEventCmd("lb-cancel <leaderboard-id>", "Cancel a leaderboard attempt", "leaderboard_attempt_canceled"))
	cmd.AddCommand(newLeaderboardUpdateCmd())
	cmd.AddCommand(newLeaderboardCompleteCmd())
	cmd.AddCommand(newEventBatchCmd())

	return cmd
}

func newAchievementEventCmd(use, short, eventType string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return postEvents([]Event{{Type: eventType, AchievementID: id}})
		},
	}
}

func newProgressEventCmd() *cobra.Command {
	var display string

	cmd := &cobra.Command{
		Use:   "progress <achievement-id> <current> <target>",
		Short: "Report progress towards an achievement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid current value %q", args[1])
			}
			target, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid target value %q", args[2])
			}
			return postEvents([]Event{{
				Type:          "achievement_progress_updated",
				AchievementID: id,
				Current:       current,
				Target:        target,
				Display:       display,
			}})
		},
	}

	cmd.Flags().StringVar(&display, "display", "", "Formatted progress text")

	return cmd
}

func newLeaderboardEventCmd(use, short, eventType string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return postEvents([]Event{{Type: eventType, LeaderboardID: id}})
		},
	}
}

func newLeaderboardUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lb-update <leaderboard-id> <display>",
		Short: "Update the displayed value of a leaderboard attempt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return postEvents([]Event{{Type: "leaderboard_attempt_updated", LeaderboardID: id, Display: args[1]}})
		},
	}
}

func newLeaderboardCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lb-complete <leaderboard-id> <value>",
		Short: "Complete a leaderboard attempt and submit its value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q", args[1])
			}
			return postEvents([]Event{{Type: "leaderboard_attempt_completed", LeaderboardID: id, Value: value}})
		},
	}
}

func newEventBatchCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Post a JSON array of events from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			var events []Event
			if err := json.NewDecoder(r).Decode(&events); err != nil {
				return fmt.Errorf("failed to parse events: %w", err)
			}
			return postEvents(events)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Events file, - for stdin")

	return cmd
}

func postEvents(events []Event) error {
	req := map[string]any{"events": events}
	var result EventsResult

	if err := client.Post("/api/v1/session/events", req, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output)
	out.Print(result)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
