// Package report renders aggregate views as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReconciliationSheet is the sheet name of the reconciliation workbook
const ReconciliationSheet = "Reconciliation"

var reconciliationHeadings = []string{
	"Party", "Type", "Collected", "Submitted", "Owed", "Payments", "Submissions",
}

// WriteReconciliation writes one row per party, in the given order, followed
// by a totals row.
func WriteReconciliation(w io.Writer, rows []aggregate.ReconciliationSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReconciliationSheet); err != nil {
		return err
	}

	for i, h := range reconciliationHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(ReconciliationSheet, cell, h); err != nil {
			return err
		}
	}

	collected, submitted := decimal.Zero, decimal.Zero
	for i, r := range rows {
		row := i + 2
		values := []interface{}{
			r.PartyName,
			r.PartyType,
			r.TotalCollected.InexactFloat64(),
			r.TotalSubmitted.InexactFloat64(),
			r.AmountOwed.InexactFloat64(),
			r.PaymentCount,
			r.SubmissionCount,
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		collected = collected.Add(r.TotalCollected)
		submitted = submitted.Add(r.TotalSubmitted)
	}

	totals := []interface{}{
		"Total", "",
		collected.InexactFloat64(),
		submitted.InexactFloat64(),
		collected.Sub(submitted).InexactFloat64(),
	}
	if err := setRow(f, len(rows)+2, totals); err != nil {
		return err
	}

	if err := f.SetColWidth(ReconciliationSheet, "A", "A", 28); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(ReconciliationSheet, cell, &values)
}
