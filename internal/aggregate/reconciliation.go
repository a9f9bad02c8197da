// Package aggregate derives dashboard views from row snapshots. Every function
// here is pure: it reads the slices it is given and holds no state.
package aggregate

import (
	"sort"

	"github.com/dailit/dailit-server/internal/models"
	"github.com/shopspring/decimal"
)

// Party types
const (
	PartyManager  = "manager"
	PartyReseller = "reseller"
	PartyUnknown  = "unknown"
)

// UnknownPartyID keys the bucket for collector ids that resolve to no party.
const UnknownPartyID = "unknown"

// Party is a collector that can owe money upstream
type Party struct {
	ID   string
	Name string
	Type string
}

// ReconciliationSummary is the per-collector balance
type ReconciliationSummary struct {
	PartyID         string          `json:"partyId"`
	PartyName       string          `json:"partyName"`
	PartyType       string          `json:"partyType"`
	TotalCollected  decimal.Decimal `json:"totalCollected"`
	TotalSubmitted  decimal.Decimal `json:"totalSubmitted"`
	AmountOwed      decimal.Decimal `json:"amountOwed"`
	PaymentCount    int             `json:"paymentCount"`
	SubmissionCount int             `json:"submissionCount"`
}

// PartiesFrom flattens managers and resellers into one party list.
func PartiesFrom(managers []models.Manager, resellers []models.Reseller) []Party {
	parties := make([]Party, 0, len(managers)+len(resellers))
	for _, m := range managers {
		parties = append(parties, Party{ID: m.ID, Name: m.Name, Type: PartyManager})
	}
	for _, r := range resellers {
		parties = append(parties, Party{ID: r.ID, Name: r.Name, Type: PartyReseller})
	}
	return parties
}

// SubmissionPartyID returns the collector a submission is credited to: the
// reseller when one is named, otherwise the manager.
func SubmissionPartyID(s models.Submission) string {
	if s.ResellerID != nil && *s.ResellerID != "" {
		return *s.ResellerID
	}
	return s.ManagerID
}

// ComputeReconciliation balances collected payments against submissions for
// every party seen on either side. Ids that match no party are pooled under
// UnknownPartyID. Rows are ordered by amount owed, largest first.
func ComputeReconciliation(payments []models.Payment, submissions []models.Submission, parties []Party) []ReconciliationSummary {
	known := make(map[string]Party, len(parties))
	for _, p := range parties {
		known[p.ID] = p
	}

	rows := make(map[string]*ReconciliationSummary)
	row := func(id string) *ReconciliationSummary {
		p, ok := known[id]
		if !ok {
			p = Party{ID: UnknownPartyID, Name: "Unknown", Type: PartyUnknown}
		}
		r, ok := rows[p.ID]
		if !ok {
			r = &ReconciliationSummary{
				PartyID:        p.ID,
				PartyName:      p.Name,
				PartyType:      p.Type,
				TotalCollected: decimal.Zero,
				TotalSubmitted: decimal.Zero,
			}
			rows[p.ID] = r
		}
		return r
	}

	for _, p := range payments {
		r := row(p.CollectedByID)
		r.TotalCollected = r.TotalCollected.Add(p.Amount)
		r.PaymentCount++
	}
	for _, s := range submissions {
		r := row(SubmissionPartyID(s))
		r.TotalSubmitted = r.TotalSubmitted.Add(s.Amount)
		r.SubmissionCount++
	}

	out := make([]ReconciliationSummary, 0, len(rows))
	for _, r := range rows {
		r.AmountOwed = r.TotalCollected.Sub(r.TotalSubmitted)
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].AmountOwed.Cmp(out[j].AmountOwed); c != 0 {
			return c > 0
		}
		if out[i].PartyName != out[j].PartyName {
			return out[i].PartyName < out[j].PartyName
		}
		return out[i].PartyID < out[j].PartyID
	})
	return out
}

// TotalOwed sums amount owed across rows.
func TotalOwed(rows []ReconciliationSummary) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.AmountOwed)
	}
	return total
}
