package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

type (
	// TransactionType decides which aggregate bucket a transaction falls into.
	// The sign of the amount is independent of the type.
	TransactionType string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID        string
		UserID    string
		Amount    Money
		Type      TransactionType
		Category  string
		Date      time.Time
		Recurring bool
		FolderID  string // optional folder association
	}

	// MonthlyBalance is the per-user, per-(month, year) aggregate record.
	// Totals are recomputed from the live transaction set on every read; the
	// stored row is a write-through cache, never the source of truth.
	MonthlyBalance struct {
		ID            string
		UserID        string
		Month         int // 1-12
		Year          int
		TotalIncome   Money
		TotalExpenses Money
		TotalTransfer Money
		Balance       Money
		Closed        bool
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// RecurringFolder groups transactions expected to repeat on some frequency.
	// The folder does not own the transaction lifecycle.
	RecurringFolder struct {
		ID           string
		UserID       string
		Name         string
		Category     string
		Frequency    string
		Active       bool
		Color        string
		Transactions []Transaction
	}
)

var (
	ErrEmptyUserID     = errors.New("empty user id")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrEmptyName       = errors.New("empty folder name")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
	ErrNameTooLong     = errors.New("folder name too long (max 100 characters)")

	// ErrFolderNotOwned is returned when a folder exists but belongs to a
	// different user.
	ErrFolderNotOwned = errors.New("folder does not belong to user")
)

// ParseTransactionType validates a wire transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	case Transfer:
		return Transfer, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// ValidateMonthYear checks that month/year identify a real calendar month.
func ValidateMonthYear(month, year int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// NextMonth returns the calendar month following (month, year),
// rolling December into January of the next year.
func NextMonth(month, year int) (int, int) {
	if month >= 12 {
		return 1, year + 1
	}
	return month + 1, year
}

// MonthRange returns the half-open interval [first instant of month, first
// instant of next month) used for bucketing transactions.
func MonthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Category) > 100 {
		return ErrCategoryTooLong
	}
	return nil
}

func (f RecurringFolder) Validate() error {
	if strings.TrimSpace(f.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if len(f.Name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// Key returns the month key identifying this balance record.
func (b MonthlyBalance) Key() MonthKey {
	return NewMonthKey(b.Year, b.Month)
}
