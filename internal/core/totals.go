package core

// Totals holds the per-month aggregate buckets.
type Totals struct {
	Income       Money
	Expenses     Money
	Transfer     Money
	Balance      Money
	Transactions int
}

// ComputeTotals derives the aggregate buckets from a transaction set.
// Each transaction lands in the bucket named by its type; the balance is
// income minus expenses minus transfer. Recomputing over the same set is
// idempotent by construction.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income.Cents += tx.Amount.Cents
		case Expense:
			t.Expenses.Cents += tx.Amount.Cents
		case Transfer:
			t.Transfer.Cents += tx.Amount.Cents
		}
	}
	t.Balance.Cents = t.Income.Cents - t.Expenses.Cents - t.Transfer.Cents
	t.Transactions = len(txs)
	return t
}

// Apply writes the computed totals onto a balance record.
func (t Totals) Apply(b *MonthlyBalance) {
	b.TotalIncome = t.Income
	b.TotalExpenses = t.Expenses
	b.TotalTransfer = t.Transfer
	b.Balance = t.Balance
}
