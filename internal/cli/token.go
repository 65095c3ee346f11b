package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored daemon API token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save <token>",
		Short: "Store the daemon API token for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.SaveToken(args[0]); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			client.SetToken(args[0])

			out := NewOutput(cfg.Output)
			out.PrintMessage("Token saved to " + cfg.TokenFile)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored daemon API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Token removed")
			return nil
		},
	})

	return cmd
}
