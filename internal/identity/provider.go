package identity

import (
	"context"
	"errors"
)

// Event is an auth-state-change event kind
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Metadata is the profile metadata attached to an account at sign-up
type Metadata struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Session is an authenticated session issued by the identity provider
type Session struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	Token    string   `json:"token"`
	Metadata Metadata `json:"metadata"`
}

var (
	// ErrNoSession is returned by GetSession when no session is active
	ErrNoSession = errors.New("no active session")
	// ErrInvalidCredentials is returned on a failed password sign-in
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with an email that already has an account
	ErrEmailTaken = errors.New("email is already in use")
)

// Provider is the external identity collaborator. Implementations manage
// their own credential state: GetSession returns whatever session the
// provider currently considers active for this client.
type Provider interface {
	// GetSession returns the currently active session, or ErrNoSession.
	GetSession(ctx context.Context) (*Session, error)

	// SignInWithPassword authenticates with email and password.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignOut ends the current session. Signing out without a session is a no-op.
	SignOut(ctx context.Context) error

	// SignUp creates a new account with profile metadata and signs it in.
	SignUp(ctx context.Context, email, password string, md Metadata) (*Session, error)

	// OnAuthStateChange registers a callback for sign-in/sign-out/refresh events.
	// The returned function unsubscribes the callback.
	OnAuthStateChange(cb func(Event, *Session)) (unsubscribe func())
}
