package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"INCOME", Income, true},
		{"income", Income, true},
		{" Expense ", Expense, true},
		{"TRANSFER", Transfer, true},
		{"withdrawal", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestNextMonth(t *testing.T) {
	cases := []struct {
		month, year         int
		wantMonth, wantYear int
	}{
		{1, 2024, 2, 2024},
		{11, 2024, 12, 2024},
		{12, 2024, 1, 2025}, // calendar year rollover
	}
	for _, tc := range cases {
		m, y := NextMonth(tc.month, tc.year)
		if m != tc.wantMonth || y != tc.wantYear {
			t.Fatalf("NextMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tc.month, tc.year, m, y, tc.wantMonth, tc.wantYear)
		}
	}
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(2024, 3)
	if from != time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected range start: %v", from)
	}
	if to != time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected range end: %v", to)
	}

	// December rolls into January of the next year
	from, to = MonthRange(2024, 12)
	if to != time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected December range end: %v", to)
	}
	if !from.Before(to) {
		t.Fatalf("range start must precede end")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID: "u1",
		Amount: Money{Cents: 100},
		Type:   Income,
		Date:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{UserID: "", Type: Income, Date: good.Date},   // empty user
		{UserID: "u1", Type: "BOGUS", Date: good.Date}, // bad type
		{UserID: "u1", Type: Income},                   // zero date
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	long := good
	long.Category = strings.Repeat("x", 101)
	if err := long.Validate(); !errors.Is(err, ErrCategoryTooLong) {
		t.Fatalf("long category: got %v, want ErrCategoryTooLong", err)
	}
}

func TestValidateMonthYear(t *testing.T) {
	if err := ValidateMonthYear(12, 2024); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, tc := range []struct{ month, year int }{{0, 2024}, {13, 2024}, {6, 0}, {6, 10000}} {
		if err := ValidateMonthYear(tc.month, tc.year); err == nil {
			t.Fatalf("ValidateMonthYear(%d, %d) expected error", tc.month, tc.year)
		}
	}
}
