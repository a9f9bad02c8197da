package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dailit/dailit-server/internal/api/testutils"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadCapture(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	auth := testutils.AuthHeaders(testCtx.TestUserJWT)

	// the public form needs no token
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/leads", models.LeadRequest{
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		ServiceInterest: "hosted pbx",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var lead models.Lead
	testutils.DecodeItem(t, w, &lead)
	assert.Equal(t, "new", lead.Status)
	assert.Equal(t, "website", lead.Source)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/leads", models.LeadRequest{Name: "No Email"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// listing is admin only
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/leads", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/admin/leads/"+lead.ID,
		models.UpdateLeadRequest{Status: "contacted", Notes: "left voicemail"}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/admin/leads/"+lead.ID,
		models.UpdateLeadRequest{Status: "archived"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/leads?status=contacted", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var leads []models.Lead
	require.Equal(t, 1, testutils.DecodeList(t, w, &leads))
	assert.Equal(t, "left voicemail", leads[0].Notes)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/admin/leads/"+lead.ID, nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/admin/leads/"+lead.ID, nil, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContactForm(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	auth := testutils.AuthHeaders(testCtx.TestUserJWT)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/contacts", models.ContactRequest{
		Name:    "Bob",
		Email:   "bob@example.com",
		Subject: "Billing",
		Message: "Please call me",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var contact models.ContactSubmission
	testutils.DecodeItem(t, w, &contact)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/admin/contacts/"+contact.ID,
		models.UpdateContactRequest{Status: "responded"}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.ContactSubmission
	testutils.DecodeItem(t, w, &updated)
	assert.Equal(t, "responded", updated.Status)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/admin/contacts/missing",
		models.UpdateContactRequest{Status: "closed"}, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/admin/contacts", nil, auth)
	var contacts []models.ContactSubmission
	assert.Equal(t, 1, testutils.DecodeList(t, w, &contacts))
}

func TestHealthAndMetrics(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}
