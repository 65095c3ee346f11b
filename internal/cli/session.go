package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Game session commands",
	}

	cmd.AddCommand(newSessionLoadCmd())
	cmd.AddCommand(newSessionEndCmd())
	cmd.AddCommand(newSessionSnapshotCmd())

	return cmd
}

func newSessionLoadCmd() *cobra.Command {
	var gameID int64
	var hash string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load achievements for a game and open a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == 0 && hash == "" {
				return fmt.Errorf("--game-id or --hash is required")
			}

			req := map[string]any{}
			if gameID != 0 {
				req["game_id"] = gameID
			}
			if hash != "" {
				req["hash"] = hash
			}
			var result Snapshot

			if err := client.Post("/api/v1/session", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&gameID, "game-id", 0, "Game id")
	cmd.Flags().StringVar(&hash, "hash", "", "ROM hash")
	cmd.MarkFlagsOneRequired("game-id", "hash")

	return cmd
}

func newSessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the current game session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/session"); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Session ended")
			return nil
		},
	}
}

func newSessionSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Show the achievements snapshot of the running game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Snapshot

			if err := client.Get("/api/v1/session/snapshot", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Resubmit every unconfirmed unlock",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RetryResult

			if err := client.Post("/api/v1/submissions/retry", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
