package apiclient

import (
	"time"
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents the response from the login endpoint.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"` // seconds
	ExpiresAt   time.Time `json:"expires_at"`
}

// User is one registered chat user.
type User struct {
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// Channel is one chat channel with its member names in join order.
type Channel struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Status is the server status payload.
type Status struct {
	UptimeSeconds     int64 `json:"uptime_seconds"`
	ActiveConnections int32 `json:"active_connections"`
	RegisteredUsers   int   `json:"registered_users"`
	Channels          int   `json:"channels"`
}

// Login authenticates with the server and returns a token.
// The token is also installed on the client for subsequent requests.
func (c *Client) Login(username, password string) (*TokenResponse, error) {
	req := LoginRequest{
		Username: username,
		Password: password,
	}

	var resp TokenResponse
	if err := c.post("/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}

	c.token = resp.AccessToken
	return &resp, nil
}

// ListUsers returns all registered users sorted by name.
func (c *Client) ListUsers() ([]User, error) {
	var users []User
	if err := c.get("/api/v1/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListChannels returns all channels sorted by name.
func (c *Client) ListChannels() ([]Channel, error) {
	var channels []Channel
	if err := c.get("/api/v1/channels", &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// Status returns the server status counters.
func (c *Client) Status() (*Status, error) {
	var status Status
	if err := c.get("/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
