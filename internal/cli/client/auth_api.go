package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Envelope is the response shape of every auth endpoint
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	UserEmail string `json:"userEmail"`
	Password  string `json:"password"`
}

// RegisterRequest represents the sign-up request body
type RegisterRequest struct {
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
}

// AuthResponse is the decoded data of a login or session check. User is kept
// as raw JSON and passed through untouched.
type AuthResponse struct {
	Message     string          `json:"-"`
	AccessToken string          `json:"accessToken,omitempty"`
	User        json.RawMessage `json:"user"`
}

// Login authenticates the user and returns the access token and user
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	env, err := c.send(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return nil, err
	}
	return decodeAuth(env)
}

// Register creates an account and returns the backend's confirmation message
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	env, err := c.send(ctx, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// CheckAuth asks the backend who the current token or cookie belongs to
func (c *Client) CheckAuth(ctx context.Context) (*AuthResponse, error) {
	env, err := c.send(ctx, http.MethodGet, "/api/auth/check-auth", nil)
	if err != nil {
		return nil, err
	}
	return decodeAuth(env)
}

// Logout ends the session on the backend
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil)
	return err
}

func decodeAuth(env *Envelope) (*AuthResponse, error) {
	var out AuthResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	out.Message = env.Message
	return &out, nil
}
