package aggregate

import (
	"sort"
	"time"

	"github.com/dailit/dailit-server/internal/models"
	"github.com/shopspring/decimal"
)

// PaymentSummary is the per-subscriber payment history rollup
type PaymentSummary struct {
	UserID          string          `json:"userId"`
	UserName        string          `json:"userName"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	PaymentCount    int             `json:"paymentCount"`
	LastPaymentDate *time.Time      `json:"lastPaymentDate,omitempty"`
}

// SummarizePayments rolls payments up per user. Users with no payments are
// listed with a zero total; payments for unknown users keep an empty name.
// Rows are ordered by total paid, largest first, then by user id.
func SummarizePayments(payments []models.Payment, users []models.SubscriptionUser) []PaymentSummary {
	rows := make(map[string]*PaymentSummary, len(users))
	for _, u := range users {
		rows[u.ID] = &PaymentSummary{UserID: u.ID, UserName: u.Name, TotalPaid: decimal.Zero}
	}

	for _, p := range payments {
		r, ok := rows[p.UserID]
		if !ok {
			r = &PaymentSummary{UserID: p.UserID, TotalPaid: decimal.Zero}
			rows[p.UserID] = r
		}
		r.TotalPaid = r.TotalPaid.Add(p.Amount)
		r.PaymentCount++
		if r.LastPaymentDate == nil || p.PaymentDate.After(*r.LastPaymentDate) {
			d := p.PaymentDate
			r.LastPaymentDate = &d
		}
	}

	out := make([]PaymentSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalPaid.Cmp(out[j].TotalPaid); c != 0 {
			return c > 0
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
