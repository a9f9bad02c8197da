package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/dailit/dailit-server/internal/models"
)

// DefaultSoonWindowDays is the expiry window used when none is configured.
const DefaultSoonWindowDays = 30

// ExpiryClassification is the computed status of a subscription
type ExpiryClassification struct {
	Status          string `json:"status"`
	DaysUntilExpiry int    `json:"daysUntilExpiry"`
}

// ExpiringUser pairs a user with its computed expiry figures
type ExpiringUser struct {
	models.SubscriptionUser
	DaysUntilExpiry int `json:"daysUntilExpiry"`
}

// startOfDay truncates t to midnight in t's own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil counts calendar days from now's date to the expiry date. Both
// sides are truncated to midnight, so two calls seconds apart on the same day
// always agree. The expiry's own calendar date is used: DATE columns scan as
// UTC midnight and must not shift a day when now is in another zone.
func DaysUntil(expiry, now time.Time) int {
	today := startOfDay(now)
	y, m, d := expiry.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	// Round absorbs 23h and 25h days around DST changes.
	return int(math.Round(day.Sub(today).Hours() / 24))
}

// ClassifyExpiry derives a user's status from its expiry date. The stored
// status column is never consulted.
func ClassifyExpiry(user models.SubscriptionUser, now time.Time, soonWindowDays int) ExpiryClassification {
	days := DaysUntil(user.ExpiryDate, now)

	status := models.StatusActive
	switch {
	case days < 0:
		status = models.StatusExpired
	case days <= soonWindowDays:
		status = models.StatusExpiringSoon
	}
	return ExpiryClassification{Status: status, DaysUntilExpiry: days}
}

// ApplyExpiry overwrites the Status field of each user with the computed value.
func ApplyExpiry(users []models.SubscriptionUser, now time.Time, soonWindowDays int) []models.SubscriptionUser {
	out := make([]models.SubscriptionUser, len(users))
	for i, u := range users {
		u.Status = ClassifyExpiry(u, now, soonWindowDays).Status
		out[i] = u
	}
	return out
}

// ExpiringSoon returns the users currently inside the expiry window, soonest
// first.
func ExpiringSoon(users []models.SubscriptionUser, now time.Time, soonWindowDays int) []ExpiringUser {
	var out []ExpiringUser
	for _, u := range users {
		c := ClassifyExpiry(u, now, soonWindowDays)
		if c.Status != models.StatusExpiringSoon {
			continue
		}
		u.Status = c.Status
		out = append(out, ExpiringUser{SubscriptionUser: u, DaysUntilExpiry: c.DaysUntilExpiry})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilExpiry < out[j].DaysUntilExpiry
	})
	return out
}

// StaleStatuses returns id → computed status for every user whose stored
// status no longer matches the computed one.
func StaleStatuses(users []models.SubscriptionUser, now time.Time, soonWindowDays int) map[string]string {
	stale := make(map[string]string)
	for _, u := range users {
		status := ClassifyExpiry(u, now, soonWindowDays).Status
		if status != u.Status {
			stale[u.ID] = status
		}
	}
	return stale
}
