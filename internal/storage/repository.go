// Package storage persists transactions, monthly balance records and
// recurring folders in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glopmts/my-finance-sub000/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique-constraint violations, notably the
	// (user_id, month, year) key on monthly_balances.
	ErrConflict = errors.New("record already exists")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; funneling all statements through one
	// connection avoids SQLITE_BUSY under concurrent rollovers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_UNIQUE in the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Transactions ---

// CreateTransaction inserts a transaction and returns it with its new ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount_cents, type, category, occurred_at, recurring, folder_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))`,
		tx.ID, tx.UserID, tx.Amount.Cents, string(tx.Type), tx.Category, tx.Date.UTC(), tx.Recurring, tx.FolderID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Transaction{}, fmt.Errorf("create transaction %s: %w", tx.ID, ErrConflict)
		}
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", string(tx.Type),
		"amount_cents", tx.Amount.Cents)

	return tx, nil
}

// ListMonthTransactions returns a user's transactions within the half-open
// range [first instant of month, first instant of next month).
func (r *SQLiteRepository) ListMonthTransactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	from, to := core.MonthRange(year, month)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, type, category, occurred_at, recurring, COALESCE(folder_id, '')
		FROM transactions
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list month transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListUserTransactions returns every transaction of a user, newest first.
func (r *SQLiteRepository) ListUserTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, type, category, occurred_at, recurring, COALESCE(folder_id, '')
		FROM transactions
		WHERE user_id = ?
		ORDER BY occurred_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list user transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListFolderTransactions returns all transactions associated with a folder,
// oldest first.
func (r *SQLiteRepository) ListFolderTransactions(ctx context.Context, folderID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, type, category, occurred_at, recurring, COALESCE(folder_id, '')
		FROM transactions
		WHERE folder_id = ?
		ORDER BY occurred_at, id`,
		folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// DeleteTransaction removes a transaction by id.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			typeStr string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount.Cents, &typeStr, &tx.Category, &tx.Date, &tx.Recurring, &tx.FolderID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typeStr)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// --- Monthly balances ---

// GetMonthlyBalance looks a record up by its (userID, month, year) key.
func (r *SQLiteRepository) GetMonthlyBalance(ctx context.Context, userID string, month, year int) (core.MonthlyBalance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, month, year, total_income_cents, total_expense_cents,
		       total_transfer_cents, balance_cents, is_closed, created_at, updated_at
		FROM monthly_balances
		WHERE user_id = ? AND month = ? AND year = ?`,
		userID, month, year)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyBalance{}, fmt.Errorf("monthly balance %s %d-%02d: %w", userID, year, month, ErrNotFound)
	}
	if err != nil {
		return core.MonthlyBalance{}, fmt.Errorf("get monthly balance: %w", err)
	}
	return b, nil
}

// EnsureMonthlyBalance creates the record for (userID, month, year) with
// zeroed aggregates if it is absent and returns the stored row either way.
// The creation is an upsert: a concurrent creator cannot make this fail,
// which is what keeps check-and-rollover idempotent under racing sessions.
func (r *SQLiteRepository) EnsureMonthlyBalance(ctx context.Context, userID string, month, year int, now time.Time) (core.MonthlyBalance, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_balances (id, user_id, month, year, is_closed, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (user_id, month, year) DO NOTHING`,
		uuid.NewString(), userID, month, year, now.UTC(), now.UTC())
	if err != nil {
		return core.MonthlyBalance{}, false, fmt.Errorf("ensure monthly balance: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return core.MonthlyBalance{}, false, fmt.Errorf("ensure monthly balance rows affected: %w", err)
	}

	b, err := r.GetMonthlyBalance(ctx, userID, month, year)
	if err != nil {
		return core.MonthlyBalance{}, false, err
	}

	if inserted > 0 {
		slog.InfoContext(ctx, "Monthly balance record created",
			"id", b.ID,
			"user_id", userID,
			"month", month,
			"year", year)
	}
	return b, inserted > 0, nil
}

// UpdateMonthlyBalanceTotals writes recomputed aggregates onto a record.
func (r *SQLiteRepository) UpdateMonthlyBalanceTotals(ctx context.Context, id string, totals core.Totals, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE monthly_balances
		SET total_income_cents = ?, total_expense_cents = ?, total_transfer_cents = ?,
		    balance_cents = ?, updated_at = ?
		WHERE id = ?`,
		totals.Income.Cents, totals.Expenses.Cents, totals.Transfer.Cents,
		totals.Balance.Cents, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("update monthly balance totals: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update monthly balance %s: %w", id, ErrNotFound)
	}
	return nil
}

// CloseOpenBalancesBefore flags every open record of a user from months
// strictly before (month, year) as closed and returns the records that were
// closed. Zero or many open rows are both tolerated, so a missed prior
// rollover cannot wedge the next one.
func (r *SQLiteRepository) CloseOpenBalancesBefore(ctx context.Context, userID string, month, year int, now time.Time) ([]core.MonthlyBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, year, total_income_cents, total_expense_cents,
		       total_transfer_cents, balance_cents, is_closed, created_at, updated_at
		FROM monthly_balances
		WHERE user_id = ? AND is_closed = 0 AND (year < ? OR (year = ? AND month < ?))
		ORDER BY year, month`,
		userID, year, year, month)
	if err != nil {
		return nil, fmt.Errorf("list open balances: %w", err)
	}
	open, err := scanBalances(rows)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE monthly_balances SET is_closed = 1, updated_at = ?
		WHERE user_id = ? AND is_closed = 0 AND (year < ? OR (year = ? AND month < ?))`,
		now.UTC(), userID, year, year, month)
	if err != nil {
		return nil, fmt.Errorf("close open balances: %w", err)
	}

	for i := range open {
		open[i].Closed = true
		open[i].UpdatedAt = now.UTC()
	}

	slog.InfoContext(ctx, "Closed open monthly balances",
		"user_id", userID,
		"closed", len(open))
	return open, nil
}

// ListMonthlyBalances returns up to limit records, most recent month first.
func (r *SQLiteRepository) ListMonthlyBalances(ctx context.Context, userID string, limit int) ([]core.MonthlyBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, year, total_income_cents, total_expense_cents,
		       total_transfer_cents, balance_cents, is_closed, created_at, updated_at
		FROM monthly_balances
		WHERE user_id = ?
		ORDER BY year DESC, month DESC
		LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list monthly balances: %w", err)
	}
	return scanBalances(rows)
}

// ListUnexportedClosedBalances returns closed records that have not yet been
// written to the report sheet.
func (r *SQLiteRepository) ListUnexportedClosedBalances(ctx context.Context, limit int) ([]core.MonthlyBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, year, total_income_cents, total_expense_cents,
		       total_transfer_cents, balance_cents, is_closed, created_at, updated_at
		FROM monthly_balances
		WHERE is_closed = 1 AND report_exported = 0
		ORDER BY year, month
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported balances: %w", err)
	}
	return scanBalances(rows)
}

// MarkReportExported flags a closed record as written to the report sheet.
func (r *SQLiteRepository) MarkReportExported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE monthly_balances SET report_exported = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark report exported: %w", err)
	}
	return nil
}

// ListActiveUserIDs returns the distinct users known to the store, from
// either transactions or existing balance records.
func (r *SQLiteRepository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM transactions
		UNION
		SELECT user_id FROM monthly_balances`)
	if err != nil {
		return nil, fmt.Errorf("list active user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

type balanceScanner interface {
	Scan(dest ...any) error
}

func scanBalance(row balanceScanner) (core.MonthlyBalance, error) {
	var b core.MonthlyBalance
	err := row.Scan(&b.ID, &b.UserID, &b.Month, &b.Year,
		&b.TotalIncome.Cents, &b.TotalExpenses.Cents, &b.TotalTransfer.Cents,
		&b.Balance.Cents, &b.Closed, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanBalances(rows *sql.Rows) ([]core.MonthlyBalance, error) {
	defer rows.Close()
	var out []core.MonthlyBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monthly balance: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly balances: %w", err)
	}
	return out, nil
}

// --- Recurring folders ---

// CreateFolder inserts a recurring folder and returns it with its new ID.
func (r *SQLiteRepository) CreateFolder(ctx context.Context, f core.RecurringFolder) (core.RecurringFolder, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_folders (id, user_id, name, category, frequency, is_active, color)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, f.Category, f.Frequency, f.Active, f.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return core.RecurringFolder{}, fmt.Errorf("create folder %s: %w", f.ID, ErrConflict)
		}
		return core.RecurringFolder{}, fmt.Errorf("create folder: %w", err)
	}
	return f, nil
}

// GetFolder returns a folder without its transactions.
func (r *SQLiteRepository) GetFolder(ctx context.Context, id string) (core.RecurringFolder, error) {
	var f core.RecurringFolder
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, category, frequency, is_active, color
		FROM recurring_folders
		WHERE id = ?`,
		id).Scan(&f.ID, &f.UserID, &f.Name, &f.Category, &f.Frequency, &f.Active, &f.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringFolder{}, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.RecurringFolder{}, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

// ListFolders returns a user's folders, name order.
func (r *SQLiteRepository) ListFolders(ctx context.Context, userID string) ([]core.RecurringFolder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, category, frequency, is_active, color
		FROM recurring_folders
		WHERE user_id = ?
		ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []core.RecurringFolder
	for rows.Next() {
		var f core.RecurringFolder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Category, &f.Frequency, &f.Active, &f.Color); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}
