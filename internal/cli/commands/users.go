package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/admitd-dev/admitd/internal/guard"
	"github.com/admitd-dev/admitd/internal/models"
)

// NewUsersCmd creates the users command group (admin only)
func NewUsersCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage portal users (admin only)",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "Server URL (or set AUTH_URL)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, token, err := adminSession(server)
			if err != nil {
				return err
			}
			defer e.Store.Close()

			users, err := e.Client.ListUsers(token)
			if err != nil {
				return err
			}

			for _, user := range users {
				fmt.Printf("%-26s  %-10s  %s <%s>\n", user.ID, user.Role, user.Name, user.Email)
			}
			return nil
		},
	}

	var name, email, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			e, token, err := adminSession(server)
			if err != nil {
				return err
			}
			defer e.Store.Close()

			user, err := e.Client.CreateUser(token, name, email, password, parsedRole)
			if err != nil {
				return err
			}

			fmt.Printf("Created %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Full name")
	create.Flags().StringVar(&email, "email", "", "Email address")
	create.Flags().StringVar(&password, "password", "", "Password")
	create.Flags().StringVar(&role, "role", "student", "Role: student, counselor or admin")
	create.MarkFlagRequired("name")
	create.MarkFlagRequired("email")
	create.MarkFlagRequired("password")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, token, err := adminSession(server)
			if err != nil {
				return err
			}
			defer e.Store.Close()

			if err := e.Client.DeleteUser(token, args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted user %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

// adminSession bootstraps the session store and gates the command behind the
// admin role using the same guard decision the server applies to routes.
func adminSession(server string) (*env, string, error) {
	e := newEnv(server)

	if !e.Store.IsConfigured() {
		e.Store.Close()
		return nil, "", fmt.Errorf("not configured: set AUTH_URL and AUTH_ANON_KEY")
	}

	e.Store.Bootstrap(context.Background())

	decision := guard.Decide(e.Store.State(), []models.Role{models.RoleAdmin}, "users")
	switch decision.Outcome {
	case guard.Authorized:
	case guard.Unauthenticated:
		e.Store.Close()
		return nil, "", fmt.Errorf("not authenticated. Please run 'admitd login' first")
	default:
		e.Store.Close()
		return nil, "", fmt.Errorf("access denied: requires one of %v", decision.Allowed)
	}

	token, err := e.Tokens.LoadToken(e.ServerURL)
	if err != nil {
		e.Store.Close()
		return nil, "", err
	}

	return e, token, nil
}
