// Package sheets defines the ports for exporting monthly balance reports
// to an external spreadsheet backend.
package sheets

import (
	"context"

	"github.com/glopmts/my-finance-sub000/internal/core"
)

// ReportWriter appends closed monthly balances to a report sheet.
type ReportWriter interface {
	AppendMonthlySummary(ctx context.Context, balance core.MonthlyBalance) error
}

// ReportReader reads back previously exported summary rows. Used by tests
// and by operators verifying an export run.
type ReportReader interface {
	ReadSummaryRows(ctx context.Context) ([][]string, error)
}
