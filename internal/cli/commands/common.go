package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/admitd-dev/admitd/internal/cli/auth"
	"github.com/admitd-dev/admitd/internal/cli/client"
	"github.com/admitd-dev/admitd/internal/cli/remote"
	"github.com/admitd-dev/admitd/internal/notify"
	"github.com/admitd-dev/admitd/internal/session"
)

// consoleNotifier prints transient notifications to the terminal
type consoleNotifier struct{}

func (consoleNotifier) Notify(level notify.Level, format string, args ...interface{}) {
	prefix := ""
	if level == notify.Error {
		prefix = "Error: "
	}
	fmt.Printf(prefix+format+"\n", args...)
}

// env is the resolved CLI environment for one invocation
type env struct {
	ServerURL string
	Client    *client.Client
	Tokens    auth.TokenStore
	Store     *session.Store
}

// newEnv builds the API client and session store for a command. The server
// URL and anon key come from AUTH_URL / AUTH_ANON_KEY; the store reports a
// configuration error instead of making network calls when either is missing.
func newEnv(serverFlag string) *env {
	serverURL := serverFlag
	if serverURL == "" {
		serverURL = os.Getenv("AUTH_URL")
	}
	anonKey := os.Getenv("AUTH_ANON_KEY")
	configured := serverURL != "" && anonKey != ""

	apiClient := client.New(serverURL, anonKey)
	tokens := auth.Default
	provider := remote.NewProvider(apiClient, tokens, serverURL)
	profiles := remote.Profiles{Client: apiClient, Tokens: tokens, Server: serverURL}

	store := session.NewStore(provider, profiles, configured, consoleNotifier{}, zerolog.Nop())

	return &env{
		ServerURL: serverURL,
		Client:    apiClient,
		Tokens:    tokens,
		Store:     store,
	}
}
