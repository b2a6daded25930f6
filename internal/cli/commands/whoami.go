package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(server)
			defer e.Store.Close()

			if !e.Store.IsConfigured() {
				return fmt.Errorf("not configured: set AUTH_URL and AUTH_ANON_KEY")
			}

			e.Store.Bootstrap(context.Background())

			user := e.Store.User()
			if user == nil {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL (or set AUTH_URL)")

	return cmd
}
