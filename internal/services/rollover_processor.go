package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// UserLister enumerates users that have balance or ledger activity.
type UserLister interface {
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}

// RolloverProcessor runs the periodic server-side rollover that ensures
// every active user has a record for the current month, independent of
// client traffic.
type RolloverProcessor struct {
	users       UserLister
	balances    *BalanceService
	concurrency int
}

func NewRolloverProcessor(users UserLister, balances *BalanceService, concurrency int) *RolloverProcessor {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &RolloverProcessor{
		users:       users,
		balances:    balances,
		concurrency: concurrency,
	}
}

// ProcessAllUsers runs CheckAndRollover for every active user. It returns
// the number of records created. Per-user failures are logged and counted
// but do not stop the pass.
func (p *RolloverProcessor) ProcessAllUsers(ctx context.Context, now time.Time) (int, error) {
	if p.users == nil || p.balances == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	userIDs, err := p.users.ListActiveUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active users: %w", err)
	}

	slog.InfoContext(ctx, "Processing monthly rollover",
		"total_users", len(userIDs),
		"processing_date", now.Format("2006-01-02"))

	var created, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			result, err := p.balances.CheckAndRollover(gctx, userID, now)
			if err != nil {
				slog.ErrorContext(gctx, "Rollover failed for user",
					"user_id", userID, "error", err)
				failed.Add(1)
				return nil
			}
			if result.Created {
				created.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Monthly rollover pass complete",
		"total_users", len(userIDs),
		"created", created.Load(),
		"failed", failed.Load())

	return int(created.Load()), nil
}

// Run executes rollover passes on the given interval until the context is
// cancelled. The first pass runs immediately.
func (p *RolloverProcessor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	if _, err := p.ProcessAllUsers(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Initial rollover pass failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Rollover processor stopping")
			return
		case <-ticker.C:
			if _, err := p.ProcessAllUsers(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Rollover pass failed", "error", err)
			}
		}
	}
}
