package aggregate_test

import (
	"testing"
	"time"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)

func userExpiring(expiry time.Time) models.SubscriptionUser {
	return models.SubscriptionUser{ID: "u1", ExpiryDate: expiry, Status: models.StatusActive}
}

func TestClassifyExpiryExpiringSoon(t *testing.T) {
	c := aggregate.ClassifyExpiry(userExpiring(now.AddDate(0, 0, 5)), now, 7)

	assert.Equal(t, models.StatusExpiringSoon, c.Status)
	assert.Equal(t, 5, c.DaysUntilExpiry)
}

func TestClassifyExpiryExpired(t *testing.T) {
	c := aggregate.ClassifyExpiry(userExpiring(now.AddDate(0, 0, -1)), now, 7)

	assert.Equal(t, models.StatusExpired, c.Status)
	assert.Equal(t, -1, c.DaysUntilExpiry)
}

func TestClassifyExpiryBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		offset int
		want   string
	}{
		{"today", 0, models.StatusExpiringSoon},
		{"window edge", 7, models.StatusExpiringSoon},
		{"past window", 8, models.StatusActive},
		{"yesterday", -1, models.StatusExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := aggregate.ClassifyExpiry(userExpiring(now.AddDate(0, 0, tc.offset)), now, 7)
			assert.Equal(t, tc.want, c.Status)
			assert.Equal(t, tc.offset, c.DaysUntilExpiry)
		})
	}
}

func TestClassifyExpiryIgnoresTimeOfDay(t *testing.T) {
	// a DATE column scans as UTC midnight
	expiry := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	morning := time.Date(2024, time.March, 10, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, time.March, 10, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, aggregate.ClassifyExpiry(userExpiring(expiry), morning, 30),
		aggregate.ClassifyExpiry(userExpiring(expiry), night, 30))
	assert.Equal(t, 5, aggregate.DaysUntil(expiry, night))
}

func TestClassifyExpiryOtherZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	expiry := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	local := time.Date(2024, time.March, 10, 22, 0, 0, 0, loc)

	assert.Equal(t, 5, aggregate.DaysUntil(expiry, local))
}

func TestClassifyExpiryIgnoresStoredStatus(t *testing.T) {
	u := userExpiring(now.AddDate(0, 0, -3))
	u.Status = models.StatusActive

	assert.Equal(t, models.StatusExpired, aggregate.ClassifyExpiry(u, now, 30).Status)
}

func TestClassifyExpiryMonotonic(t *testing.T) {
	rank := map[string]int{models.StatusActive: 2, models.StatusExpiringSoon: 1, models.StatusExpired: 0}
	prev := rank[models.StatusActive]
	for offset := 60; offset >= -60; offset-- {
		c := aggregate.ClassifyExpiry(userExpiring(now.AddDate(0, 0, offset)), now, aggregate.DefaultSoonWindowDays)
		require.LessOrEqual(t, rank[c.Status], prev, "offset %d", offset)
		prev = rank[c.Status]
	}
}

func TestExpiringSoonOrdersBySoonest(t *testing.T) {
	users := []models.SubscriptionUser{
		{ID: "late", ExpiryDate: now.AddDate(0, 0, 20)},
		{ID: "gone", ExpiryDate: now.AddDate(0, 0, -2)},
		{ID: "soon", ExpiryDate: now.AddDate(0, 0, 2)},
		{ID: "far", ExpiryDate: now.AddDate(0, 0, 90)},
	}

	got := aggregate.ExpiringSoon(users, now, 30)

	require.Len(t, got, 2)
	assert.Equal(t, "soon", got[0].ID)
	assert.Equal(t, 2, got[0].DaysUntilExpiry)
	assert.Equal(t, "late", got[1].ID)
	assert.Equal(t, models.StatusExpiringSoon, got[1].Status)
}

func TestStaleStatuses(t *testing.T) {
	users := []models.SubscriptionUser{
		{ID: "ok", ExpiryDate: now.AddDate(0, 0, 90), Status: models.StatusActive},
		{ID: "drifted", ExpiryDate: now.AddDate(0, 0, -1), Status: models.StatusExpiringSoon},
	}

	stale := aggregate.StaleStatuses(users, now, 30)

	assert.Equal(t, map[string]string{"drifted": models.StatusExpired}, stale)
}

func TestApplyExpiryDoesNotMutateInput(t *testing.T) {
	users := []models.SubscriptionUser{{ID: "u", ExpiryDate: now.AddDate(0, 0, -1), Status: models.StatusActive}}

	out := aggregate.ApplyExpiry(users, now, 30)

	assert.Equal(t, models.StatusExpired, out[0].Status)
	assert.Equal(t, models.StatusActive, users[0].Status)
}
