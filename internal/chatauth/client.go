// Package chatauth forwards customer logins to the hosted chat product and
// turns its response into a dashboard redirect.
package chatauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Credentials are what the customer typed into the login form
type Credentials struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// LoginResult is a successful vendor login
type LoginResult struct {
	Token       string
	RedirectURL string
	User        map[string]any
}

// Authenticator logs a customer into the chat product
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
}

// Error is a login the vendor refused, or could not answer.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("chat login failed (%d): %s", e.Status, e.Message)
}

// ErrMissingCredentials is returned before any request is made
var ErrMissingCredentials = errors.New("login id and password are required")

// Client talks to the vendor REST login endpoint.
type Client struct {
	loginURL     string
	dashboardURL string
	teamSlug     string
	httpClient   *http.Client
}

// NewClient creates a new vendor login client.
func NewClient(loginURL, dashboardURL, teamSlug string) *Client {
	return &Client{
		loginURL:     strings.TrimSuffix(loginURL, "/"),
		dashboardURL: dashboardURL,
		teamSlug:     teamSlug,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Login posts the credentials to the vendor. On success the session token is
// taken from the Token header.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if strings.TrimSpace(creds.LoginID) == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	if c.loginURL == "" {
		return nil, fmt.Errorf("chat login URL is not configured")
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to chat server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read chat server response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp.StatusCode, raw)
	}

	// the session token header is optional
	result := &LoginResult{Token: resp.Header.Get("Token"), RedirectURL: c.redirectURL()}
	if len(bytes.TrimSpace(raw)) > 0 {
		var user map[string]any
		// a body that is not a JSON object is ignored
		if json.Unmarshal(raw, &user) == nil {
			result.User = user
		}
	}
	return result, nil
}

func (c *Client) redirectURL() string {
	if c.teamSlug == "" {
		return c.dashboardURL
	}
	sep := "?"
	if strings.Contains(c.dashboardURL, "?") {
		sep = "&"
	}
	return c.dashboardURL + sep + "team=" + url.QueryEscape(c.teamSlug)
}

func errorFromResponse(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return &Error{Status: status, Message: payload.Message}
	}
	return &Error{Status: status, Message: defaultMessage(status)}
}

func defaultMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Invalid login ID or password."
	case status == http.StatusBadRequest:
		return "The login request was malformed."
	case status == http.StatusForbidden:
		return "This account is not allowed to sign in."
	case status == http.StatusTooManyRequests:
		return "Too many login attempts. Please wait and try again."
	case status >= 500:
		return "The chat server is unavailable. Please try again later."
	default:
		return fmt.Sprintf("Unexpected response from chat server (status %d).", status)
	}
}
