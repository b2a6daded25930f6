// Package remote adapts the portal API to the identity and profile contracts
// consumed by the session store, so the CLI drives a terminal session the
// same way the web client drives a browser tab. The session token persists
// in the OS keychain across invocations.
package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/admitd-dev/admitd/internal/cli/auth"
	"github.com/admitd-dev/admitd/internal/cli/client"
	"github.com/admitd-dev/admitd/internal/identity"
	"github.com/admitd-dev/admitd/internal/models"
)

// Provider implements identity.Provider over the portal API
type Provider struct {
	client    *client.Client
	tokens    auth.TokenStore
	serverURL string

	mu     sync.Mutex
	nextID int
	subs   map[int]func(identity.Event, *identity.Session)
}

// NewProvider creates a Provider for a portal server
func NewProvider(apiClient *client.Client, tokens auth.TokenStore, serverURL string) *Provider {
	return &Provider{
		client:    apiClient,
		tokens:    tokens,
		serverURL: serverURL,
		subs:      make(map[int]func(identity.Event, *identity.Session)),
	}
}

func sessionFromUser(user *client.User, token string) *identity.Session {
	return &identity.Session{
		UserID: user.ID,
		Email:  user.Email,
		Token:  token,
		Metadata: identity.Metadata{
			Name: user.Name,
			Role: string(user.Role),
		},
	}
}

// GetSession resumes the persisted session, if any.
func (p *Provider) GetSession(ctx context.Context) (*identity.Session, error) {
	token, err := p.tokens.LoadToken(p.serverURL)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, identity.ErrNoSession
		}
		return nil, err
	}

	user, err := p.client.Me(token)
	if err != nil {
		// The stored token is stale; drop it so the next bootstrap is clean.
		_ = p.tokens.DeleteToken(p.serverURL)
		return nil, identity.ErrNoSession
	}

	return sessionFromUser(user, token), nil
}

// SignInWithPassword authenticates and persists the new session token.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	resp, err := p.client.Login(email, password)
	if err != nil {
		return nil, err
	}

	if err := p.tokens.SaveToken(p.serverURL, resp.Token); err != nil {
		return nil, err
	}

	sess := sessionFromUser(resp.User, resp.Token)
	p.broadcast(identity.EventSignedIn, sess)
	return sess, nil
}

// SignOut ends the session and discards the persisted token.
func (p *Provider) SignOut(ctx context.Context) error {
	token, err := p.tokens.LoadToken(p.serverURL)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil // already signed out
		}
		return err
	}

	// Best effort: a failed revoke must not strand the local session.
	_ = p.client.Logout(token)

	if err := p.tokens.DeleteToken(p.serverURL); err != nil {
		return err
	}
	p.broadcast(identity.EventSignedOut, nil)
	return nil
}

// SignUp registers an account and persists its session token.
func (p *Provider) SignUp(ctx context.Context, email, password string, md identity.Metadata) (*identity.Session, error) {
	role, err := models.ParseRole(md.Role)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Register(md.Name, email, password, role)
	if err != nil {
		return nil, err
	}

	if err := p.tokens.SaveToken(p.serverURL, resp.Token); err != nil {
		return nil, err
	}

	var sess *identity.Session
	if resp.User != nil {
		sess = sessionFromUser(resp.User, resp.Token)
	} else {
		// Registered with a profile-setup warning; the server will provision
		// the profile row on the next authenticated call.
		sess = &identity.Session{Token: resp.Token, Email: email, Metadata: md}
	}
	p.broadcast(identity.EventSignedIn, sess)
	return sess, nil
}

// OnAuthStateChange registers a callback for auth events.
func (p *Provider) OnAuthStateChange(cb func(identity.Event, *identity.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = cb

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Provider) broadcast(event identity.Event, sess *identity.Session) {
	p.mu.Lock()
	subs := make([]func(identity.Event, *identity.Session), 0, len(p.subs))
	for _, cb := range p.subs {
		subs = append(subs, cb)
	}
	p.mu.Unlock()

	for _, cb := range subs {
		cb(event, sess)
	}
}

// Profiles implements session.ProfileStore over the portal API. The server's
// auth middleware provisions missing profile rows on its side, so Upsert has
// nothing to do remotely.
type Profiles struct {
	Client *client.Client
	Tokens auth.TokenStore
	Server string
}

func (p Profiles) GetByID(ctx context.Context, id string) (*models.User, error) {
	token, err := p.Tokens.LoadToken(p.Server)
	if err != nil {
		return nil, err
	}

	user, err := p.Client.Me(token)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		Phone:     user.Phone,
		Address:   user.Address,
	}, nil
}

func (p Profiles) Upsert(ctx context.Context, user *models.User) error {
	return nil
}
