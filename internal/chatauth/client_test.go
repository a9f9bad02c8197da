package chatauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds.LoginID)
		assert.Equal(t, "pw", creds.Password)

		w.Header().Set("Token", "session-token")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"u1","username":"alice"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "https://chat.example.com/landing", "dailit")
	result, err := client.Login(context.Background(), Credentials{LoginID: "alice", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "session-token", result.Token)
	assert.Equal(t, "https://chat.example.com/landing?team=dailit", result.RedirectURL)
	assert.Equal(t, "alice", result.User["username"])
}

func TestLoginWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	}))
	defer server.Close()

	result, err := NewClient(server.URL, "https://chat.example.com", "sales").Login(context.Background(), Credentials{LoginID: "a", Password: "b"})

	require.NoError(t, err)
	assert.Empty(t, result.Token)
	assert.Equal(t, "https://chat.example.com?team=sales", result.RedirectURL)
	assert.Equal(t, "u1", result.User["id"])
}

func TestLoginErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"invalid credentials", http.StatusUnauthorized, "", "Invalid login ID or password."},
		{"malformed", http.StatusBadRequest, "", "The login request was malformed."},
		{"forbidden", http.StatusForbidden, "", "This account is not allowed to sign in."},
		{"rate limited", http.StatusTooManyRequests, "", "Too many login attempts. Please wait and try again."},
		{"server error", http.StatusBadGateway, "<html>oops</html>", "The chat server is unavailable. Please try again later."},
		{"vendor message wins", http.StatusUnauthorized, `{"message":"Account locked"}`, "Account locked"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "", "").Login(context.Background(), Credentials{LoginID: "a", Password: "b"})

			var chatErr *Error
			require.True(t, errors.As(err, &chatErr))
			assert.Equal(t, tc.status, chatErr.Status)
			assert.Equal(t, tc.message, chatErr.Message)
		})
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	_, err := NewClient("http://unused", "", "").Login(context.Background(), Credentials{LoginID: " "})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestRedirectURLKeepsExistingQuery(t *testing.T) {
	c := NewClient("http://unused", "https://chat.example.com/landing?src=web", "my team")
	assert.Equal(t, "https://chat.example.com/landing?src=web&team=my+team", c.redirectURL())
}
