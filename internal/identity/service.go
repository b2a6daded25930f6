package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

// Account is the provider-side credential record. It is deliberately separate
// from the portal's users table: the profile row is looked up (and provisioned)
// by the session store, keyed by the account id.
type Account struct {
	models.BaseModel
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Metadata     string `gorm:"type:text"` // JSON-encoded sign-up metadata
}

// JWTClaims represents the session token claims
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

const tokenTTL = 24 * time.Hour

// Service is the local identity provider backing the portal server.
// It owns the accounts table, issues HS256 session tokens, and broadcasts
// auth-state-change events to subscribers.
type Service struct {
	db     *gorm.DB
	secret []byte
	logger zerolog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event, *Session)
}

// NewService creates the local identity provider. The signing secret is the
// provider key from configuration.
func NewService(db *gorm.DB, secret string, logger zerolog.Logger) (*Service, error) {
	if secret == "" {
		return nil, errors.New("identity: signing secret is required")
	}
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, fmt.Errorf("identity: migrate accounts: %w", err)
	}
	return &Service{
		db:     db,
		secret: []byte(secret),
		logger: logger,
		subs:   make(map[int]func(Event, *Session)),
	}, nil
}

// Authenticate verifies email/password and returns a fresh session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	var account Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity: find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessionFor(&account)
	if err != nil {
		return nil, err
	}

	s.broadcast(EventSignedIn, sess)
	return sess, nil
}

// CreateAccount registers a new account with sign-up metadata and returns a
// signed-in session for it.
func (s *Service) CreateAccount(ctx context.Context, email, password string, md Metadata) (*Session, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("identity: check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	mdJSON, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("identity: encode metadata: %w", err)
	}

	account := &Account{
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     string(mdJSON),
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, fmt.Errorf("identity: create account: %w", err)
	}

	sess, err := s.sessionFor(account)
	if err != nil {
		return nil, err
	}

	s.broadcast(EventSignedIn, sess)
	return sess, nil
}

// Validate checks a session token and returns the session it represents.
func (s *Service) Validate(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("identity: parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("identity: invalid token")
	}

	// The account must still exist; deleted accounts invalidate their tokens.
	var account Account
	if err := s.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("identity: find account: %w", err)
	}

	return s.sessionFromAccount(&account, tokenString), nil
}

// Revoke ends the session for a token and notifies subscribers.
func (s *Service) Revoke(ctx context.Context, tokenString string) error {
	// Tokens are stateless; revocation is a client-side discard. Subscribers
	// still need the sign-out event so stores clear their profile.
	s.broadcast(EventSignedOut, nil)
	return nil
}

// DeleteAccount removes the credential record for an account id.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&Account{}).Error
}

// OnAuthStateChange registers a callback for auth events.
func (s *Service) OnAuthStateChange(cb func(Event, *Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = cb

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Service) broadcast(event Event, sess *Session) {
	s.mu.Lock()
	subs := make([]func(Event, *Session), 0, len(s.subs))
	for _, cb := range s.subs {
		subs = append(subs, cb)
	}
	s.mu.Unlock()

	for _, cb := range subs {
		cb(event, sess)
	}
}

func (s *Service) sessionFor(account *Account) (*Session, error) {
	claims := JWTClaims{
		UserID: account.ID,
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("identity: sign token: %w", err)
	}

	return s.sessionFromAccount(account, signed), nil
}

func (s *Service) sessionFromAccount(account *Account, token string) *Session {
	var md Metadata
	if account.Metadata != "" {
		if err := json.Unmarshal([]byte(account.Metadata), &md); err != nil {
			s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to decode account metadata")
		}
	}
	return &Session{
		UserID:   account.ID,
		Email:    account.Email,
		Token:    token,
		Metadata: md,
	}
}
