package report

import (
	"bytes"
	"testing"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteReconciliation(t *testing.T) {
	rows := []aggregate.ReconciliationSummary{
		{
			PartyID: "m1", PartyName: "Manager One", PartyType: aggregate.PartyManager,
			TotalCollected: decimal.RequireFromString("800"), TotalSubmitted: decimal.RequireFromString("600"),
			AmountOwed: decimal.RequireFromString("200"), PaymentCount: 2, SubmissionCount: 1,
		},
		{
			PartyID: aggregate.UnknownPartyID, PartyName: "Unknown", PartyType: aggregate.PartyUnknown,
			TotalCollected: decimal.RequireFromString("50.25"), TotalSubmitted: decimal.Zero,
			AmountOwed: decimal.RequireFromString("50.25"), PaymentCount: 1,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReconciliation(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(ReconciliationSheet)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "Party", got[0][0])
	assert.Equal(t, []string{"Manager One", "manager", "800", "600", "200", "2", "1"}, got[1])
	assert.Equal(t, "Unknown", got[2][0])
	assert.Equal(t, "50.25", got[2][4])
	assert.Equal(t, "Total", got[3][0])
	assert.Equal(t, "250.25", got[3][4])
}

func TestWriteReconciliationEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReconciliation(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(ReconciliationSheet)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0", got[1][4])
}
