package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const healthPollInterval = 200 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the daemon is up",
		Long: `Check that the daemon is up and report how many event streams are connected.

With --wait the check is repeated until the daemon answers or the duration
runs out, which lets scripts start the daemon and the emulator together.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			deadline := time.Now().Add(wait)
			for {
				err := client.Get("/api/v1/health", &result)
				if err == nil {
					break
				}
				if !time.Now().Before(deadline) {
					return err
				}
				time.Sleep(healthPollInterval)
			}

			if result.Status != "ok" {
				return fmt.Errorf("daemon reported status %q", result.Status)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying until the daemon answers, up to this long")

	return cmd
}
