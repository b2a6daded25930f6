package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(server)
			defer e.Store.Close()

			// Logging out while already logged out is fine.
			e.Store.Logout(context.Background())
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL (or set AUTH_URL)")

	return cmd
}
