package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dailit/dailit-server/internal/api"
	"github.com/dailit/dailit-server/internal/chatauth"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
	"github.com/dailit/dailit-server/internal/service"
	"github.com/dailit/dailit-server/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	TestAdminEmail    = "admin@example.com"
	TestAdminPassword = "testpassword"
	testJWTSecret     = "test-secret-key"
)

// Now is the clock every test service runs on
var Now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// StubAuthenticator answers chat logins without a network call
type StubAuthenticator struct {
	Result *chatauth.LoginResult
	Err    error
	Calls  []chatauth.Credentials
}

func (s *StubAuthenticator) Login(ctx context.Context, creds chatauth.Credentials) (*chatauth.LoginResult, error) {
	s.Calls = append(s.Calls, creds)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  *repository.MemoryRepository
	Service     service.Service
	Chat        *StubAuthenticator
	JWTSecret   []byte
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext creates a new test context backed by the in-memory store
func SetupTestContext(t *testing.T) *TestContext {
	return SetupTestContextWith(t, repository.NewMemoryRepository(), api.Options{LoginPerMinute: 600, LoginBurst: 100})
}

// SetupTestContextWith lets a test swap the store or tighten the login limiter
func SetupTestContextWith(t *testing.T, repo repository.Repository, opts api.Options) *TestContext {
	mem, _ := repo.(*repository.MemoryRepository)
	opts.JWTSecret = testJWTSecret

	logger := utils.NewTestLogger()
	svc := service.NewDefaultService(repo, logger, service.Options{
		JWTSecret:      testJWTSecret,
		SoonWindowDays: 30,
		Now:            func() time.Time { return Now },
	})
	chat := &StubAuthenticator{}
	handler := api.NewHandler(svc, chat, logger, opts)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.SetupRoutes(router)

	testUserID, token := createTestAdmin(t, svc)

	return &TestContext{
		Router:      router,
		Repository:  mem,
		Service:     svc,
		Chat:        chat,
		JWTSecret:   []byte(testJWTSecret),
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

func createTestAdmin(t *testing.T, svc service.Service) (string, string) {
	ctx := context.Background()
	_, err := svc.SignUp(ctx, models.SignUpRequest{
		Email:    TestAdminEmail,
		Password: TestAdminPassword,
		Name:     "Test Admin",
	})
	require.NoError(t, err, "Failed to create test admin")

	resp, err := svc.Login(ctx, models.LoginRequest{Email: TestAdminEmail, Password: TestAdminPassword})
	require.NoError(t, err, "Failed to log in test admin")

	return resp.UserID, resp.Token
}

// ExpiredToken signs a token that expired an hour ago
func (tc *TestContext) ExpiredToken(t *testing.T) string {
	return tc.signToken(t, tc.TestUserID, time.Now().Add(-time.Hour))
}

// TokenFor signs a valid token for an arbitrary admin id
func (tc *TestContext) TokenFor(t *testing.T, adminID string) string {
	return tc.signToken(t, adminID, time.Now().Add(time.Hour))
}

func (tc *TestContext) signToken(t *testing.T, sub string, expires time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": expires.Unix(),
		"iat": expires.Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString(tc.JWTSecret)
	require.NoError(t, err)
	return signed
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeItem unmarshals the "item" of an ItemResponse into out
func DecodeItem(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var envelope struct {
		Item json.RawMessage `json:"item"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Item, out))
}

// DecodeList unmarshals the "items" of a ListResponse into out and returns the count
func DecodeList(t *testing.T, w *httptest.ResponseRecorder, out interface{}) int {
	var envelope struct {
		Count int             `json:"count"`
		Items json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Items, out))
	return envelope.Count
}

// DecodeError unmarshals an ErrorResponse
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
