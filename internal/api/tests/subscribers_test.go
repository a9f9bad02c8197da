package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/dailit/dailit-server/internal/api"
	"github.com/dailit/dailit-server/internal/api/testutils"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
	"github.com/dailit/dailit-server/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createManager(t *testing.T, testCtx *testutils.TestContext, name string) models.Manager {
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/managers",
		models.ManagerRequest{Name: name}, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var m models.Manager
	testutils.DecodeItem(t, w, &m)
	return m
}

func createUser(t *testing.T, testCtx *testutils.TestContext, req models.CreateSubscriptionUserRequest) service.CreateUserResult {
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/users", req, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result service.CreateUserResult
	testutils.DecodeItem(t, w, &result)
	return result
}

func userFields(name, start, expiry string) models.SubscriptionUserFields {
	return models.SubscriptionUserFields{Name: name, SubscriptionStartDate: start, ExpiryDate: expiry}
}

func TestCreateSubscriptionUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	m := createManager(t, testCtx, "Manager One")

	initial := decimal.NewFromInt(100)
	fields := userFields("Acme", "2024-01-01", "2024-12-31")
	fields.ManagerID = m.ID
	fields.Phone = "+1 650-253-0000"

	result := createUser(t, testCtx, models.CreateSubscriptionUserRequest{
		SubscriptionUserFields: fields,
		InitialPayment:         &initial,
		PaymentMethod:          models.PaymentBankTransfer,
	})

	assert.Equal(t, service.OutcomeSuccess, result.Outcome)
	assert.True(t, result.PaymentCreated)
	require.NotNil(t, result.Payment)
	assert.Equal(t, m.ID, result.Payment.CollectedByID)
	assert.Equal(t, models.StatusActive, result.User.Status)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/users/"+result.User.ID, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSubscriptionUserValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	negative := decimal.NewFromInt(-5)

	cases := map[string]models.CreateSubscriptionUserRequest{
		"missing name":        {SubscriptionUserFields: userFields("", "2024-01-01", "2024-12-31")},
		"bad date format":     {SubscriptionUserFields: userFields("Acme", "01/01/2024", "2024-12-31")},
		"expiry before start": {SubscriptionUserFields: userFields("Acme", "2024-06-01", "2024-01-01")},
		"negative payment":    {SubscriptionUserFields: userFields("Acme", "2024-01-01", "2024-12-31"), InitialPayment: &negative},
		"unknown method":      {SubscriptionUserFields: userFields("Acme", "2024-01-01", "2024-12-31"), PaymentMethod: "barter"},
		"bad phone": {SubscriptionUserFields: models.SubscriptionUserFields{
			Name: "Acme", SubscriptionStartDate: "2024-01-01", ExpiryDate: "2024-12-31", Phone: "123",
		}},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/users", req, testutils.AuthHeaders(testCtx.TestUserJWT))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", testutils.DecodeError(t, w).Code)
		})
	}
}

// brokenPayments accepts users but refuses every payment insert.
type brokenPayments struct {
	*repository.MemoryRepository
}

func (b brokenPayments) CreatePayment(ctx context.Context, p *models.Payment) error {
	return &repository.StoreError{Op: "create payment", Kind: repository.ErrAccess, Err: errors.New("new row violates row-level security policy")}
}

func TestCreateSubscriptionUserPartialSuccess(t *testing.T) {
	mem := repository.NewMemoryRepository()
	testCtx := testutils.SetupTestContextWith(t, brokenPayments{mem}, api.Options{LoginPerMinute: 60, LoginBurst: 10})

	initial := decimal.NewFromInt(100)
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/users", models.CreateSubscriptionUserRequest{
		SubscriptionUserFields: userFields("Acme", "2024-01-01", "2024-12-31"),
		InitialPayment:         &initial,
	}, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope models.ItemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, service.OutcomePartial, envelope.Status)

	var result service.CreateUserResult
	testutils.DecodeItem(t, w, &result)
	assert.False(t, result.PaymentCreated)
	assert.NotEmpty(t, result.PaymentError)

	users, err := mem.ListSubscriptionUsers(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestListSubscriptionUsersByStatus(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: userFields("Old", "2023-01-01", "2024-03-09")})
	createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: userFields("Soon", "2023-01-01", "2024-03-15")})
	createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: userFields("Later", "2023-01-01", "2025-03-15")})

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/users?status=expiring_soon", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var users []models.SubscriptionUser
	assert.Equal(t, 1, testutils.DecodeList(t, w, &users))
	assert.Equal(t, "Soon", users[0].Name)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/users?status=bogus", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/expiring-soon", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var expiring []aggregate.ExpiringUser
	assert.Equal(t, 1, testutils.DecodeList(t, w, &expiring))
	assert.Equal(t, 5, expiring[0].DaysUntilExpiry)
}

func TestUpdateAndDeleteSubscriptionUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	created := createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: userFields("Acme", "2024-01-01", "2024-12-31")})
	path := "/api/admin/users/" + created.User.ID

	update := models.UpdateSubscriptionUserRequest{SubscriptionUserFields: userFields("Acme Renamed", "2024-01-01", "2024-03-01")}
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, path, update, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var u models.SubscriptionUser
	testutils.DecodeItem(t, w, &u)
	assert.Equal(t, "Acme Renamed", u.Name)
	assert.Equal(t, models.StatusExpired, u.Status)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, path, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path, update, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParentAccountHierarchy(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	a := createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: userFields("A", "2024-01-01", "2024-12-31")})
	lone := createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: userFields("Lone", "2024-01-01", "2024-12-31")})
	for i := 0; i < 2; i++ {
		f := userFields(fmt.Sprintf("A-child-%d", i), "2024-01-01", "2024-12-31")
		f.ParentAccountID = a.User.ID
		createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: f})
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/hierarchy", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var nodes []aggregate.ParentAccountNode
	require.Equal(t, 2, testutils.DecodeList(t, w, &nodes))
	assert.Equal(t, a.User.ID, nodes[0].ID)
	assert.Equal(t, 2, nodes[0].ChildCount)
	assert.Equal(t, lone.User.ID, nodes[1].ID)
	assert.Equal(t, 0, nodes[1].ChildCount)
	assert.NotNil(t, nodes[1].Children)
}
