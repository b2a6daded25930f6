package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var server, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an admitd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, email, password)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL (or set AUTH_URL)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ADMITD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ADMITD_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(server, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("ADMITD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("ADMITD_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or ADMITD_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or ADMITD_PASSWORD env var)")
		}
	}

	e := newEnv(server)
	defer e.Store.Close()

	if !e.Store.Login(context.Background(), email, password) {
		return fmt.Errorf("login failed")
	}

	user := e.Store.User()
	fmt.Printf("Logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}
