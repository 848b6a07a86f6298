package core

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func TestComputeTotalsSimpleMonth(t *testing.T) {
	march := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx("a", "u", 500000, Income, march),
		tx("b", "u", 120000, Expense, march),
		tx("c", "u", 30000, Expense, march),
	}
	got := ComputeTotals(txs)
	if got.Income.Cents != 500000 {
		t.Fatalf("income = %d, want 500000", got.Income.Cents)
	}
	if got.Expenses.Cents != 150000 {
		t.Fatalf("expenses = %d, want 150000", got.Expenses.Cents)
	}
	if got.Transfer.Cents != 0 {
		t.Fatalf("transfer = %d, want 0", got.Transfer.Cents)
	}
	if got.Balance.Cents != 350000 {
		t.Fatalf("balance = %d, want 350000", got.Balance.Cents)
	}
	if got.Transactions != 3 {
		t.Fatalf("transactions = %d, want 3", got.Transactions)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil)
	if got.Income.Cents != 0 || got.Expenses.Cents != 0 || got.Transfer.Cents != 0 || got.Balance.Cents != 0 {
		t.Fatalf("expected all-zero totals, got %+v", got)
	}
}

// Property: for any transaction set, balance == sum(income) - sum(expenses)
// - sum(transfer), and recomputation is idempotent.
func TestComputeTotalsBalanceFormulaProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []TransactionType{Income, Expense, Transfer}
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 200; round++ {
		n := rng.Intn(30)
		txs := make([]Transaction, 0, n)
		var income, expenses, transfer int64
		for i := 0; i < n; i++ {
			// Zero, negative and large amounts are all legal
			cents := rng.Int63n(2_000_000_00) - 1_000_000_00
			typ := types[rng.Intn(len(types))]
			switch typ {
			case Income:
				income += cents
			case Expense:
				expenses += cents
			case Transfer:
				transfer += cents
			}
			txs = append(txs, Transaction{
				ID:     fmt.Sprintf("tx-%d-%d", round, i),
				UserID: "u",
				Amount: Money{Cents: cents},
				Type:   typ,
				Date:   date,
			})
		}

		got := ComputeTotals(txs)
		if got.Income.Cents != income || got.Expenses.Cents != expenses || got.Transfer.Cents != transfer {
			t.Fatalf("round %d: bucket mismatch: got %+v want income=%d expenses=%d transfer=%d",
				round, got, income, expenses, transfer)
		}
		if got.Balance.Cents != income-expenses-transfer {
			t.Fatalf("round %d: balance = %d, want %d", round, got.Balance.Cents, income-expenses-transfer)
		}

		again := ComputeTotals(txs)
		if again != got {
			t.Fatalf("round %d: recomputation not idempotent: %+v vs %+v", round, got, again)
		}
	}
}

func TestTotalsApply(t *testing.T) {
	b := MonthlyBalance{UserID: "u", Month: 3, Year: 2024}
	totals := Totals{
		Income:   Money{Cents: 1000},
		Expenses: Money{Cents: 400},
		Transfer: Money{Cents: 100},
		Balance:  Money{Cents: 500},
	}
	totals.Apply(&b)
	if b.TotalIncome.Cents != 1000 || b.TotalExpenses.Cents != 400 || b.TotalTransfer.Cents != 100 || b.Balance.Cents != 500 {
		t.Fatalf("totals not applied: %+v", b)
	}
}
