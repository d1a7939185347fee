// Package auth integrates the external identity service that owns user
// accounts. The game server never stores credentials; it only forwards a
// login and consumes the success/email/display-name result.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const loginEndpoint = "/api/auth/login"

// LoginResult is the gateway's answer to one login attempt. Failures carry
// a message for logging; the client on the wire only ever sees a generic
// auth_failed error.
type LoginResult struct {
	Success     bool
	Email       string
	DisplayName string
	Message     string
}

// Gateway is the login interface the dispatcher consumes; swapped for a
// stub in tests.
type Gateway interface {
	Login(ctx context.Context, email, password string) LoginResult
}

// Client talks to the identity service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Message   string `json:"message"`
}

// Login posts credentials to the identity service. Transport failures,
// non-2xx statuses, and unreadable payloads all fold into a failed result;
// the caller treats every failure mode the same way.
func (c *Client) Login(ctx context.Context, email, password string) LoginResult {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{Message: fmt.Sprintf("encode login request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return LoginResult{Message: fmt.Sprintf("build login request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LoginResult{Message: fmt.Sprintf("auth gateway unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return LoginResult{Message: fmt.Sprintf("auth gateway rejected login (%d)", resp.StatusCode)}
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return LoginResult{Message: fmt.Sprintf("decode login response: %v", err)}
	}
	if !payload.Success {
		msg := payload.Message
		if msg == "" {
			msg = "login refused"
		}
		return LoginResult{Message: msg}
	}

	name := strings.TrimSpace(strings.Join(nonEmpty(payload.FirstName, payload.LastName), " "))
	if name == "" {
		name = payload.Email
	}

	return LoginResult{
		Success:     true,
		Email:       payload.Email,
		DisplayName: name,
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
