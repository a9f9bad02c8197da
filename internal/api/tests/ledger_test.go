package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/dailit/dailit-server/internal/api/testutils"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestPaymentsAndReconciliation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	auth := testutils.AuthHeaders(testCtx.TestUserJWT)
	m1 := createManager(t, testCtx, "M1")

	fields := userFields("Acme", "2024-01-01", "2024-12-31")
	fields.ManagerID = m1.ID
	user := createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: fields}).User

	for _, amt := range []int64{500, 300} {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/payments", models.CreatePaymentRequest{
			UserID:        user.ID,
			Amount:        decimal.NewFromInt(amt),
			PaymentMethod: models.PaymentCash,
		}, auth)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	// a payment collected by nobody known lands in the unknown bucket
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/payments", models.CreatePaymentRequest{
		UserID:        user.ID,
		Amount:        decimal.RequireFromString("12.50"),
		PaymentMethod: models.PaymentOnline,
		CollectedByID: models.AdminCollectorID,
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/submissions", models.CreateSubmissionRequest{
		ManagerID: m1.ID,
		Amount:    decimal.NewFromInt(600),
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/reconciliation", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var rows []aggregate.ReconciliationSummary
	require.Equal(t, 2, testutils.DecodeList(t, w, &rows))
	assert.Equal(t, m1.ID, rows[0].PartyID)
	assert.True(t, rows[0].AmountOwed.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, rows[0].PaymentCount)
	assert.Equal(t, aggregate.UnknownPartyID, rows[1].PartyID)
	assert.True(t, rows[1].AmountOwed.Equal(decimal.RequireFromString("12.5")))

	// response bodies use camelCase keys throughout
	var raw struct {
		Items []map[string]json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw.Items, 2)
	for _, key := range []string{"partyId", "partyName", "amountOwed", "paymentCount"} {
		assert.Contains(t, raw.Items[0], key)
	}
	assert.NotContains(t, raw.Items[0], "party_id")

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/payments?userId="+user.ID, nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []models.Payment
	assert.Equal(t, 3, testutils.DecodeList(t, w, &payments))

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/payments/summary", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var summary []aggregate.PaymentSummary
	require.Equal(t, 1, testutils.DecodeList(t, w, &summary))
	assert.True(t, summary[0].TotalPaid.Equal(decimal.RequireFromString("812.5")))
}

func TestPaymentValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	auth := testutils.AuthHeaders(testCtx.TestUserJWT)

	// zero amount fails binding
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/payments", models.CreatePaymentRequest{
		UserID: "u1", Amount: decimal.Zero, PaymentMethod: models.PaymentCash,
	}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown subscriber
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/payments", models.CreatePaymentRequest{
		UserID: "missing", Amount: decimal.NewFromInt(5), PaymentMethod: models.PaymentCash,
	}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, testutils.DecodeError(t, w).Message, "missing")

	// submission for a manager that does not exist
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/submissions", models.CreateSubmissionRequest{
		ManagerID: "ghost", Amount: decimal.NewFromInt(5),
	}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconciliationExport(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	auth := testutils.AuthHeaders(testCtx.TestUserJWT)
	m := createManager(t, testCtx, "Exporter")

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/submissions", models.CreateSubmissionRequest{
		ManagerID: m.ID, Amount: decimal.NewFromInt(40),
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/reconciliation/export", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reconciliation.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.ReconciliationSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Exporter", rows[1][0])
	assert.Equal(t, "-40", rows[1][4])
}

func TestConcurrentPayments(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	auth := testutils.AuthHeaders(testCtx.TestUserJWT)
	m := createManager(t, testCtx, "Busy")

	fields := userFields("Acme", "2024-01-01", "2024-12-31")
	fields.ManagerID = m.ID
	user := createUser(t, testCtx, models.CreateSubscriptionUserRequest{SubscriptionUserFields: fields}).User

	const numGoroutines = 10
	const paymentsPerGoroutine = 5

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(routineID int) {
			defer wg.Done()
			for j := 0; j < paymentsPerGoroutine; j++ {
				w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/admin/payments", models.CreatePaymentRequest{
					UserID:        user.ID,
					Amount:        decimal.RequireFromString("1.10"),
					PaymentMethod: models.PaymentCash,
					Notes:         fmt.Sprintf("routine %d payment %d", routineID, j),
				}, auth)
				assert.Equal(t, http.StatusCreated, w.Code)
			}
		}(i)
	}
	wg.Wait()

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/reconciliation", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var rows []aggregate.ReconciliationSummary
	require.Equal(t, 1, testutils.DecodeList(t, w, &rows))
	assert.Equal(t, numGoroutines*paymentsPerGoroutine, rows[0].PaymentCount)
	assert.True(t, rows[0].TotalCollected.Equal(decimal.RequireFromString("55")), rows[0].TotalCollected.String())
}
