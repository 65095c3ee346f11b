package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Achievements account commands",
	}

	cmd.AddCommand(newAccountLoginCmd())
	cmd.AddCommand(newAccountLogoutCmd())
	cmd.AddCommand(newAccountStatusCmd())

	return cmd
}

func newAccountLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log the daemon in to the achievements service",
		Long: `Log the daemon in to the achievements service. The password is only
used to obtain a token and is never stored. It can be given with --pass
or the RASYNC_PASSWORD environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				pass = os.Getenv("RASYNC_PASSWORD")
			}
			if user == "" || pass == "" {
				return fmt.Errorf("--user and --pass are required")
			}

			req := map[string]string{
				"username": user,
				"password": pass,
			}
			var result Account

			if err := client.Post("/api/v1/account/login", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (env: RASYNC_PASSWORD)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newAccountLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored achievements credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/account/logout", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newAccountStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the account state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			if err := client.Get("/api/v1/account", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
