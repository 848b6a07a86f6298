package google

import (
	"testing"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/core"
)

func TestSummaryRow(t *testing.T) {
	b := core.MonthlyBalance{
		UserID:        "user-1",
		Month:         3,
		Year:          2024,
		TotalIncome:   core.Money{Cents: 500000},
		TotalExpenses: core.Money{Cents: 150000},
		TotalTransfer: core.Money{Cents: 0},
		Balance:       core.Money{Cents: 350000},
		UpdatedAt:     time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC),
	}

	row := summaryRow(b)
	if len(row) != 8 {
		t.Fatalf("expected 8 columns, got %d", len(row))
	}

	want := []any{"user-1", 2024, 3, "5000.00", "1500.00", "0.00", "3500.00", "2024-04-01 08:30:00"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestSummaryRowNegativeBalance(t *testing.T) {
	b := core.MonthlyBalance{
		UserID:        "user-2",
		Month:         12,
		Year:          2024,
		TotalIncome:   core.Money{Cents: 100000},
		TotalExpenses: core.Money{Cents: 125050},
		Balance:       core.Money{Cents: -25050},
		UpdatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	row := summaryRow(b)
	if row[6] != "-250.50" {
		t.Errorf("balance column = %v, want -250.50", row[6])
	}
}
