// Package auth persists CLI session tokens in the OS keychain.
package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "admitd-cli"

// ErrNotAuthenticated is returned when no token is stored for a server
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'admitd login' first")

func keyringKey(serverURL string) string {
	return fmt.Sprintf("token-%s", serverURL)
}

// SaveToken persists the session token securely in the OS keychain
func SaveToken(serverURL, token string) error {
	if err := keyring.Set(service, keyringKey(serverURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the session token from the OS keychain
func LoadToken(serverURL string) (string, error) {
	token, err := keyring.Get(service, keyringKey(serverURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the session token from the OS keychain
func DeleteToken(serverURL string) error {
	if err := keyring.Delete(service, keyringKey(serverURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// TokenStore defines the interface for token storage operations.
// This allows mocking the keyring in tests.
type TokenStore interface {
	SaveToken(serverURL, token string) error
	LoadToken(serverURL string) (string, error)
	DeleteToken(serverURL string) error
}

type defaultTokenStore struct{}

// Default is the keychain-backed TokenStore
var Default TokenStore = &defaultTokenStore{}

func (d *defaultTokenStore) SaveToken(serverURL, token string) error {
	return SaveToken(serverURL, token)
}

func (d *defaultTokenStore) LoadToken(serverURL string) (string, error) {
	return LoadToken(serverURL)
}

func (d *defaultTokenStore) DeleteToken(serverURL string) error {
	return DeleteToken(serverURL)
}
