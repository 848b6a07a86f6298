package memory

import (
	"context"
	"testing"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/core"
)

func TestAppendAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := core.MonthlyBalance{
		UserID:        "u1",
		Month:         3,
		Year:          2024,
		TotalIncome:   core.Money{Cents: 500000},
		TotalExpenses: core.Money{Cents: 150000},
		Balance:       core.Money{Cents: 350000},
		UpdatedAt:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.AppendMonthlySummary(ctx, b); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, err := s.ReadSummaryRows(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][0] != "u1" || rows[0][1] != "2024" || rows[0][6] != "3500.00" {
		t.Errorf("unexpected row: %v", rows[0])
	}

	// Returned slice is a copy, mutating it must not affect the store.
	rows[0][0] = "mutated"
	rows2, _ := s.ReadSummaryRows(ctx)
	if rows2[0][0] != "u1" {
		t.Errorf("store row was mutated through returned copy")
	}
}

func TestAppendRejectsInvalidMonth(t *testing.T) {
	s := New()
	b := core.MonthlyBalance{UserID: "u1", Month: 13, Year: 2024}
	if err := s.AppendMonthlySummary(context.Background(), b); err == nil {
		t.Fatalf("expected error for invalid month")
	}
}
