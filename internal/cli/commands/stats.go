package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/admitd-dev/admitd/internal/guard"
	"github.com/admitd-dev/admitd/internal/models"
)

// NewStatsCmd creates the stats command (counselor/admin only)
func NewStatsCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show admissions statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(server)
			defer e.Store.Close()

			if !e.Store.IsConfigured() {
				return fmt.Errorf("not configured: set AUTH_URL and AUTH_ANON_KEY")
			}

			e.Store.Bootstrap(context.Background())

			decision := guard.Decide(e.Store.State(),
				[]models.Role{models.RoleCounselor, models.RoleAdmin}, "stats")
			switch decision.Outcome {
			case guard.Authorized:
			case guard.Unauthenticated:
				return fmt.Errorf("not authenticated. Please run 'admitd login' first")
			default:
				return fmt.Errorf("access denied: requires one of %v", decision.Allowed)
			}

			token, err := e.Tokens.LoadToken(e.ServerURL)
			if err != nil {
				return err
			}

			stats, err := e.Client.GetStats(token)
			if err != nil {
				return err
			}

			fmt.Printf("Students:    %d\n", stats.TotalStudents)
			fmt.Printf("Enquiries:   %d (%d pending)\n", stats.TotalEnquiries, stats.PendingEnquiries)
			fmt.Printf("Enrollments: %d (%d pending)\n", stats.TotalEnrollments, stats.PendingEnrollments)
			fmt.Printf("Payments:    %d (%d pending)\n", stats.TotalPayments, stats.PendingPayments)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL (or set AUTH_URL)")

	return cmd
}
