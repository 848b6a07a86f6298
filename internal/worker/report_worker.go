// Package worker exports closed monthly balances to the report backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/amqp"
	"github.com/glopmts/my-finance-sub000/internal/core"
	"github.com/glopmts/my-finance-sub000/internal/sheets"
	"github.com/glopmts/my-finance-sub000/internal/storage"
)

// ReportStore is the slice of the repository the worker needs.
type ReportStore interface {
	GetMonthlyBalance(ctx context.Context, userID string, month, year int) (core.MonthlyBalance, error)
	ListUnexportedClosedBalances(ctx context.Context, limit int) ([]core.MonthlyBalance, error)
	MarkReportExported(ctx context.Context, id string) error
}

// ReportWorker consumes month.closed events and appends the closed balance
// to the report sheet, marking each record exported exactly once.
type ReportWorker struct {
	storage   ReportStore
	writer    sheets.ReportWriter
	batchSize int
}

func NewReportWorker(storage ReportStore, writer sheets.ReportWriter, batchSize int) *ReportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ReportWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleMonthEvent processes a single month event from AMQP. Opened events
// are acknowledged without work; closed events export the balance.
func (w *ReportWorker) HandleMonthEvent(ctx context.Context, msg *amqp.MonthEventMessage) error {
	if msg.Event != amqp.EventMonthClosed {
		slog.DebugContext(ctx, "Ignoring month event", "event", msg.Event)
		return nil
	}

	slog.InfoContext(ctx, "Processing month closed event",
		"user_id", msg.UserID,
		"month", msg.Month,
		"year", msg.Year)

	balance, err := w.storage.GetMonthlyBalance(ctx, msg.UserID, msg.Month, msg.Year)
	if err != nil {
		// The record may have been deleted since the event was published.
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Balance for closed month not found, skipping",
				"user_id", msg.UserID, "month", msg.Month, "year", msg.Year)
			return nil
		}
		return fmt.Errorf("get monthly balance: %w", err)
	}

	return w.export(ctx, balance)
}

func (w *ReportWorker) export(ctx context.Context, balance core.MonthlyBalance) error {
	if err := w.writer.AppendMonthlySummary(ctx, balance); err != nil {
		return fmt.Errorf("append monthly summary: %w", err)
	}
	if err := w.storage.MarkReportExported(ctx, balance.ID); err != nil {
		return fmt.Errorf("mark report exported: %w", err)
	}

	slog.InfoContext(ctx, "Exported monthly balance to report",
		"user_id", balance.UserID,
		"month", balance.Month,
		"year", balance.Year,
		"balance_cents", balance.Balance.Cents)
	return nil
}

// ProcessBacklog exports closed balances that were never written to the
// report, a backup for events lost while the worker was down. Returns the
// number of records exported.
func (w *ReportWorker) ProcessBacklog(ctx context.Context) (int, error) {
	exported := 0
	for {
		pending, err := w.storage.ListUnexportedClosedBalances(ctx, w.batchSize)
		if err != nil {
			return exported, fmt.Errorf("list unexported balances: %w", err)
		}
		if len(pending) == 0 {
			return exported, nil
		}

		slog.InfoContext(ctx, "Processing report backlog", "count", len(pending))

		for _, balance := range pending {
			if err := w.export(ctx, balance); err != nil {
				// Stop the pass rather than retry in a tight loop, the
				// next interval will pick the record up again.
				return exported, err
			}
			exported++
		}
	}
}

// Run performs a startup backlog check and then re-runs it on the given
// interval until the context is cancelled. Event consumption is wired
// separately via HandleMonthEvent.
func (w *ReportWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	if n, err := w.ProcessBacklog(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup backlog check failed", "exported", n, "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Report worker stopping")
			return
		case <-ticker.C:
			if n, err := w.ProcessBacklog(ctx); err != nil {
				slog.ErrorContext(ctx, "Backlog check failed", "exported", n, "error", err)
			}
		}
	}
}
