// Package session owns the single source of truth for "who is the current
// user". A Store is explicitly constructed by its owner and passed down;
// consumers read its state and call the listed operations, never mutating
// the profile directly.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/admitd-dev/admitd/internal/identity"
	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/notify"
)

// State is a point-in-time snapshot of the Store
type State struct {
	User       *models.User
	Loading    bool
	Configured bool
}

// Store holds the current session for one principal. All operations are safe
// for concurrent use; fields resolve last-writer-wins since only one logical
// current session exists per Store.
type Store struct {
	provider identity.Provider
	profiles ProfileStore
	notifier notify.Notifier
	logger   zerolog.Logger

	mu          sync.Mutex
	user        *models.User
	loading     bool
	configured  bool
	alive       bool
	unsubscribe func()
}

// NewStore creates a Store. Loading starts true and is released by the first
// Bootstrap, so guards block instead of redirecting prematurely.
func NewStore(provider identity.Provider, profiles ProfileStore, configured bool, notifier notify.Notifier, logger zerolog.Logger) *Store {
	return &Store{
		provider:   provider,
		profiles:   profiles,
		notifier:   notifier,
		logger:     logger,
		loading:    true,
		configured: configured,
		alive:      true,
	}
}

// State returns a snapshot of the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Loading: s.loading, Configured: s.configured}
}

// User returns the current profile, or nil when unauthenticated.
func (s *Store) User() *models.User {
	return s.State().User
}

// IsConfigured reports whether the identity provider credentials are present.
func (s *Store) IsConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// Bootstrap runs the one-time startup check for an already-active session.
// It never returns an error: every failure path logs, leaves the user empty
// and releases the loading flag.
func (s *Store) Bootstrap(ctx context.Context) {
	defer s.setLoading(false)

	if !s.IsConfigured() {
		s.logger.Warn().Msg("Identity provider not configured, skipping session bootstrap")
		return
	}

	sess, err := s.provider.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, identity.ErrNoSession) {
			s.logger.Error().Err(err).Msg("Session bootstrap failed")
		}
		s.setUser(nil)
		return
	}

	if _, err := s.resolveProfile(ctx, sess); err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to resolve profile during bootstrap")
		s.setUser(nil)
	}
}

// Subscribe registers for provider auth-state-change events (sign-in
// elsewhere, token refresh, sign-out elsewhere) and keeps the Store live.
// The returned handle unsubscribes; Close calls it automatically.
func (s *Store) Subscribe() func() {
	unsubscribe := s.provider.OnAuthStateChange(func(event identity.Event, sess *identity.Session) {
		if !s.isAlive() {
			return
		}
		if event == identity.EventSignedOut || sess == nil {
			s.setUser(nil)
			return
		}
		if _, err := s.resolveProfile(context.Background(), sess); err != nil {
			s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to resolve profile on auth state change")
		}
	})

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return unsubscribe
}

// Close tears the Store down: the event subscription is released and late
// results from in-flight operations are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	s.alive = false
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Login signs in with email and password. Returns whether sign-in and profile
// resolution both succeeded. Errors are surfaced as notifications, never
// propagated.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	if !s.IsConfigured() {
		s.notifier.Notify(notify.Error, "Authentication is not configured. Set AUTH_URL and AUTH_ANON_KEY.")
		return false
	}

	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.notifier.Notify(notify.Error, "%s", loginErrorMessage(err))
		return false
	}

	user, err := s.resolveProfile(ctx, sess)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to resolve profile after login")
		s.notifier.Notify(notify.Error, "Signed in, but your profile could not be loaded")
		s.setUser(nil)
		return false
	}

	s.notifier.Notify(notify.Success, "Welcome back, %s!", user.Name)
	return true
}

// Logout signs out and clears the session. Logging out while already logged
// out leaves the state unchanged and does not error.
func (s *Store) Logout(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	if !s.IsConfigured() {
		s.notifier.Notify(notify.Error, "Authentication is not configured. Set AUTH_URL and AUTH_ANON_KEY.")
		return
	}

	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Sign-out failed")
		s.notifier.Notify(notify.Error, "Sign out failed: %s", err)
		return
	}

	s.setUser(nil)
	s.notifier.Notify(notify.Info, "You have been logged out")
}

// Register creates an account with {name, role} metadata, then inserts the
// matching profile row. A failed profile insert is surfaced but does not undo
// the account creation, so overall success is still reported.
func (s *Store) Register(ctx context.Context, name, email, password string, role models.Role) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	if !s.IsConfigured() {
		s.notifier.Notify(notify.Error, "Authentication is not configured. Set AUTH_URL and AUTH_ANON_KEY.")
		return false
	}

	sess, err := s.provider.SignUp(ctx, email, password, identity.Metadata{Name: name, Role: string(role)})
	if err != nil {
		s.notifier.Notify(notify.Error, "Registration failed: %s", err)
		return false
	}

	profile := &models.User{
		ID:    sess.UserID,
		Name:  name,
		Email: email,
		Role:  role,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		// The auth account exists even though the profile insert failed.
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Profile insert failed after sign-up")
		s.notifier.Notify(notify.Error, "Account created, but profile setup failed. Contact support.")
		return true
	}

	s.setUser(profile)
	s.notifier.Notify(notify.Success, "Registration successful! Welcome, %s.", name)
	return true
}

// resolveProfile resolves the profile row for a session via Resolve and
// publishes it as the current user.
func (s *Store) resolveProfile(ctx context.Context, sess *identity.Session) (*models.User, error) {
	user, err := Resolve(ctx, s.profiles, sess)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func loginErrorMessage(err error) string {
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return "Invalid email or password"
	}
	return "Sign in failed: " + err.Error()
}

func (s *Store) isAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	s.loading = loading
}

func (s *Store) setUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	s.user = user
}
