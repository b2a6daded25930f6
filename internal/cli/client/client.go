// Package client is the HTTP client for the portal API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/admitd-dev/admitd/internal/models"
)

// Client represents an HTTP client for the admitd API
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// User mirrors the API's user detail shape
type User struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Address   string      `json:"address,omitempty"`
}

// LoginResponse represents a login or register response
type LoginResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Warning string `json:"warning,omitempty"`
}

// Stats mirrors the API's stats shape
type Stats struct {
	TotalStudents      int64 `json:"total_students"`
	TotalEnquiries     int64 `json:"total_enquiries"`
	TotalEnrollments   int64 `json:"total_enrollments"`
	TotalPayments      int64 `json:"total_payments"`
	PendingEnquiries   int64 `json:"pending_enquiries"`
	PendingEnrollments int64 `json:"pending_enrollments"`
	PendingPayments    int64 `json:"pending_payments"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(method, path, token string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(data))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Login authenticates and returns a session token with the user's profile
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	req := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.do(http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account with a profile role
func (c *Client) Register(name, email, password string, role models.Role) (*LoginResponse, error) {
	req := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	var resp LoginResponse
	if err := c.do(http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the profile for the holder of a token
func (c *Client) Me(token string) (*User, error) {
	var user User
	if err := c.do(http.MethodGet, "/api/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the session for a token
func (c *Client) Logout(token string) error {
	return c.do(http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// ListUsers lists all users (admin only)
func (c *Client) ListUsers(token string) ([]User, error) {
	var users []User
	if err := c.do(http.MethodGet, "/api/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a user with a role (admin only)
func (c *Client) CreateUser(token, name, email, password string, role models.Role) (*User, error) {
	req := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(http.MethodPost, "/api/users", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// DeleteUser deletes a user by id (admin only)
func (c *Client) DeleteUser(token, userID string) error {
	return c.do(http.MethodDelete, "/api/users/"+userID, token, nil, nil)
}

// GetStats returns dashboard statistics (counselor/admin)
func (c *Client) GetStats(token string) (*Stats, error) {
	var stats Stats
	if err := c.do(http.MethodGet, "/api/stats", token, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
