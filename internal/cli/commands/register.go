package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/admitd-dev/admitd/internal/models"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var server, name, email, password, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on an admitd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(server, name, email, password, role)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL (or set AUTH_URL)")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&role, "role", "student", "Account role (student, counselor, admin)")

	return cmd
}

func runRegister(server, name, email, password, roleString string) error {
	if name == "" {
		return fmt.Errorf("name is required (use --name flag)")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	role, err := models.ParseRole(roleString)
	if err != nil {
		return err
	}

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
			return fmt.Errorf("password is required in non-interactive mode (use --password flag)")
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	e := newEnv(server)
	defer e.Store.Close()

	if !e.Store.Register(context.Background(), name, email, password, role) {
		return fmt.Errorf("registration failed")
	}

	fmt.Fprintf(os.Stdout, "Registered %s as %s\n", email, role)
	return nil
}
