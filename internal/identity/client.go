package identity

import (
	"context"
	"sync"
)

// Client adapts a Service to the Provider interface for a single principal.
// It holds the current session token the way a browser tab holds the
// provider's persisted session. Safe for concurrent use.
type Client struct {
	service *Service

	mu    sync.Mutex
	token string
}

// NewClient creates a Provider over the local identity service.
// An initial token may be supplied to resume a persisted session.
func NewClient(service *Service, token string) *Client {
	return &Client{service: service, token: token}
}

// GetSession validates the held token, if any.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		return nil, ErrNoSession
	}
	return c.service.Validate(ctx, token)
}

// SignInWithPassword authenticates and retains the new session token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.service.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = sess.Token
	c.mu.Unlock()
	return sess, nil
}

// SignOut revokes and discards the held token.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	return c.service.Revoke(ctx, token)
}

// SignUp creates an account and retains its session token.
func (c *Client) SignUp(ctx context.Context, email, password string, md Metadata) (*Session, error) {
	sess, err := c.service.CreateAccount(ctx, email, password, md)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = sess.Token
	c.mu.Unlock()
	return sess, nil
}

// OnAuthStateChange subscribes to the underlying service's event stream.
func (c *Client) OnAuthStateChange(cb func(Event, *Session)) func() {
	return c.service.OnAuthStateChange(cb)
}
