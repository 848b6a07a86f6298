// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/core"
	"github.com/glopmts/my-finance-sub000/internal/storage"
)

// TransactionStore is the read side of the ledger the balance service
// aggregates over.
type TransactionStore interface {
	ListMonthTransactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error)
}

// BalanceStore persists monthly balance records.
type BalanceStore interface {
	GetMonthlyBalance(ctx context.Context, userID string, month, year int) (core.MonthlyBalance, error)
	EnsureMonthlyBalance(ctx context.Context, userID string, month, year int, now time.Time) (core.MonthlyBalance, bool, error)
	UpdateMonthlyBalanceTotals(ctx context.Context, id string, totals core.Totals, now time.Time) error
	CloseOpenBalancesBefore(ctx context.Context, userID string, month, year int, now time.Time) ([]core.MonthlyBalance, error)
	ListMonthlyBalances(ctx context.Context, userID string, limit int) ([]core.MonthlyBalance, error)
}

// EventPublisher emits month lifecycle events. A nil publisher disables
// event emission without failing the operation.
type EventPublisher interface {
	PublishMonthClosed(ctx context.Context, userID string, month, year int, balanceCents int64) error
	PublishMonthOpened(ctx context.Context, userID string, month, year int) error
}

// RolloverResult reports the outcome of ensuring a monthly record exists.
type RolloverResult struct {
	Created bool
	Balance core.MonthlyBalance
}

// CloseResult reports the outcome of closing the current month.
type CloseResult struct {
	Closed []core.MonthlyBalance
	Next   core.MonthlyBalance
}

const (
	// DefaultHistoryLimit is the number of months returned when the
	// caller does not ask for a specific window.
	DefaultHistoryLimit = 12
	// MaxHistoryLimit caps a caller-supplied window.
	MaxHistoryLimit = 120
)

// BalanceService orchestrates monthly balance aggregation and rollover
// across SQLite and AMQP.
type BalanceService struct {
	transactions TransactionStore
	balances     BalanceStore
	events       EventPublisher
	historyLimit int
}

func NewBalanceService(transactions TransactionStore, balances BalanceStore, events EventPublisher, historyLimit int) *BalanceService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &BalanceService{
		transactions: transactions,
		balances:     balances,
		events:       events,
		historyLimit: historyLimit,
	}
}

// CurrentBalance returns the balance record for the month containing now
// along with the number of transactions it aggregates, creating the record
// if missing.
func (s *BalanceService) CurrentBalance(ctx context.Context, userID string, now time.Time) (core.MonthlyBalance, int, error) {
	return s.MonthBalance(ctx, userID, int(now.Month()), now.Year(), now)
}

// MonthBalance returns the balance record for the given month, creating it
// if missing. Totals are always recomputed from the transactions table, so
// the stored record is a cache of the ledger rather than a source of truth.
func (s *BalanceService) MonthBalance(ctx context.Context, userID string, month, year int, now time.Time) (core.MonthlyBalance, int, error) {
	if userID == "" {
		return core.MonthlyBalance{}, 0, core.ErrEmptyUserID
	}
	if err := core.ValidateMonthYear(month, year); err != nil {
		return core.MonthlyBalance{}, 0, err
	}

	balance, _, err := s.balances.EnsureMonthlyBalance(ctx, userID, month, year, now)
	if err != nil {
		return core.MonthlyBalance{}, 0, fmt.Errorf("ensure monthly balance: %w", err)
	}

	return s.refreshTotals(ctx, balance, now)
}

// refreshTotals recomputes the aggregates from the month's transactions and
// writes them through to the stored record.
func (s *BalanceService) refreshTotals(ctx context.Context, balance core.MonthlyBalance, now time.Time) (core.MonthlyBalance, int, error) {
	txs, err := s.transactions.ListMonthTransactions(ctx, balance.UserID, balance.Year, balance.Month)
	if err != nil {
		return core.MonthlyBalance{}, 0, fmt.Errorf("list month transactions: %w", err)
	}

	totals := core.ComputeTotals(txs)
	totals.Apply(&balance)
	balance.UpdatedAt = now

	if err := s.balances.UpdateMonthlyBalanceTotals(ctx, balance.ID, totals, now); err != nil {
		return core.MonthlyBalance{}, 0, fmt.Errorf("update monthly balance totals: %w", err)
	}

	slog.DebugContext(ctx, "Refreshed monthly balance",
		"user_id", balance.UserID,
		"month", balance.Month,
		"year", balance.Year,
		"balance_cents", balance.Balance.Cents,
		"tx_count", totals.Transactions)

	return balance, totals.Transactions, nil
}

// CheckAndRollover ensures a record exists for the month containing now.
// When the calendar month has turned, every record still open from earlier
// months is closed before the new record is created. It is idempotent:
// concurrent calls for the same month converge on the single stored record,
// and Created reports whether this call made it.
func (s *BalanceService) CheckAndRollover(ctx context.Context, userID string, now time.Time) (RolloverResult, error) {
	if userID == "" {
		return RolloverResult{}, core.ErrEmptyUserID
	}

	month, year := int(now.Month()), now.Year()

	if err := s.closeSupersededMonths(ctx, userID, month, year, now); err != nil {
		return RolloverResult{}, err
	}

	balance, created, err := s.balances.EnsureMonthlyBalance(ctx, userID, month, year, now)
	if err != nil {
		// A concurrent insert winning the race is not a failure.
		if errors.Is(err, storage.ErrConflict) {
			balance, err = s.balances.GetMonthlyBalance(ctx, userID, month, year)
			created = false
		}
		if err != nil {
			return RolloverResult{}, fmt.Errorf("ensure monthly balance: %w", err)
		}
	}

	balance, _, err = s.refreshTotals(ctx, balance, now)
	if err != nil {
		return RolloverResult{}, err
	}

	if created {
		slog.InfoContext(ctx, "Opened new monthly balance",
			"user_id", userID, "month", month, "year", year)
		s.publishOpened(ctx, userID, month, year)
	}

	return RolloverResult{Created: created, Balance: balance}, nil
}

// closeSupersededMonths closes every record still open from months strictly
// before (month, year) and publishes the close events. Called before a new
// month's record is created so the superseded months never linger open.
func (s *BalanceService) closeSupersededMonths(ctx context.Context, userID string, month, year int, now time.Time) error {
	closed, err := s.balances.CloseOpenBalancesBefore(ctx, userID, month, year, now)
	if err != nil {
		return fmt.Errorf("close superseded months: %w", err)
	}
	for _, b := range closed {
		slog.InfoContext(ctx, "Closed superseded monthly balance",
			"user_id", userID, "month", b.Month, "year", b.Year,
			"balance_cents", b.Balance.Cents)
		s.publishClosed(ctx, userID, b.Month, b.Year, b.Balance.Cents)
	}
	return nil
}

// CloseMonth closes every open record for the user up to and including the
// month containing now, then opens the next month. December rolls into
// January of the following year.
func (s *BalanceService) CloseMonth(ctx context.Context, userID string, now time.Time) (CloseResult, error) {
	if userID == "" {
		return CloseResult{}, core.ErrEmptyUserID
	}

	month, year := int(now.Month()), now.Year()

	// Make sure the current month exists with fresh totals before closing,
	// so the closed record carries the final aggregates.
	if _, _, err := s.MonthBalance(ctx, userID, month, year, now); err != nil {
		return CloseResult{}, err
	}

	// The close sweeps everything still open up to and including the
	// current month, so a straggler from a missed rollover is picked up.
	nextMonth, nextYear := core.NextMonth(month, year)
	closed, err := s.balances.CloseOpenBalancesBefore(ctx, userID, nextMonth, nextYear, now)
	if err != nil {
		return CloseResult{}, fmt.Errorf("close open balances: %w", err)
	}

	for _, b := range closed {
		slog.InfoContext(ctx, "Closed monthly balance",
			"user_id", userID, "month", b.Month, "year", b.Year,
			"balance_cents", b.Balance.Cents)
		s.publishClosed(ctx, userID, b.Month, b.Year, b.Balance.Cents)
	}

	next, _, err := s.balances.EnsureMonthlyBalance(ctx, userID, nextMonth, nextYear, now)
	if err != nil {
		return CloseResult{}, fmt.Errorf("open next month: %w", err)
	}
	s.publishOpened(ctx, userID, nextMonth, nextYear)

	return CloseResult{Closed: closed, Next: next}, nil
}

// History returns the user's balance records newest first. A limit of zero
// uses the configured default; requests above the cap are clamped.
func (s *BalanceService) History(ctx context.Context, userID string, limit int) ([]core.MonthlyBalance, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	balances, err := s.balances.ListMonthlyBalances(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list monthly balances: %w", err)
	}
	return balances, nil
}

func (s *BalanceService) publishClosed(ctx context.Context, userID string, month, year int, balanceCents int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishMonthClosed(ctx, userID, month, year, balanceCents); err != nil {
		// Events are best effort, the balance change already committed.
		slog.ErrorContext(ctx, "Failed to publish month closed event",
			"user_id", userID, "month", month, "year", year, "error", err)
	}
}

func (s *BalanceService) publishOpened(ctx context.Context, userID string, month, year int) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishMonthOpened(ctx, userID, month, year); err != nil {
		slog.ErrorContext(ctx, "Failed to publish month opened event",
			"user_id", userID, "month", month, "year", year, "error", err)
	}
}
