// Package memory provides an in-memory report backend for local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/glopmts/my-finance-sub000/internal/core"
	ports "github.com/glopmts/my-finance-sub000/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows [][]string
}

var (
	_ ports.ReportWriter = (*Store)(nil)
	_ ports.ReportReader = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// AppendMonthlySummary records the balance as a string row, mirroring the
// column layout of the spreadsheet backend.
func (s *Store) AppendMonthlySummary(_ context.Context, balance core.MonthlyBalance) error {
	if err := core.ValidateMonthYear(balance.Month, balance.Year); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, []string{
		balance.UserID,
		fmt.Sprint(balance.Year),
		fmt.Sprint(balance.Month),
		balance.TotalIncome.String(),
		balance.TotalExpenses.String(),
		balance.TotalTransfer.String(),
		balance.Balance.String(),
		balance.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	})
	return nil
}

// ReadSummaryRows returns a copy of the recorded rows.
func (s *Store) ReadSummaryRows(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}
