package core

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MonthKey buckets transactions by calendar month as a zero-padded "YYYY-MM"
// string. Zero-padding keeps string order and numeric order aligned, but
// sorting always compares year and month as integers anyway.
type MonthKey string

const (
	// MonthKeyAll selects every transaction regardless of date.
	MonthKeyAll MonthKey = "all"
	// MonthKeyCurrent is a historical alias of MonthKeyAll: the dashboard's
	// default view never filtered, so "current" passes everything through.
	MonthKeyCurrent MonthKey = "current"
)

var ErrInvalidMonthKey = errors.New("invalid month key")

// NewMonthKey builds the key for a (year, month) pair.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKeyFor returns the key of the calendar month containing t.
func MonthKeyFor(t time.Time) MonthKey {
	return NewMonthKey(t.Year(), int(t.Month()))
}

// IsSentinel reports whether the key is one of the pass-through sentinels.
func (k MonthKey) IsSentinel() bool {
	return k == MonthKeyAll || k == MonthKeyCurrent
}

// Parse splits a concrete "YYYY-MM" key into year and month.
// Sentinel keys are not parseable.
func (k MonthKey) Parse() (year, month int, err error) {
	parts := strings.SplitN(string(k), "-", 2)
	if len(parts) != 2 {
		return 0, 0, ErrInvalidMonthKey
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrInvalidMonthKey
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrInvalidMonthKey
	}
	if err := ValidateMonthYear(month, year); err != nil {
		return 0, 0, ErrInvalidMonthKey
	}
	return year, month, nil
}

// AvailableMonths derives the deduplicated set of month keys present across
// a transaction collection, most recent first. Transactions with a zero date
// carry no month and are skipped.
func AvailableMonths(txs []Transaction) []MonthKey {
	type ym struct{ year, month int }
	seen := make(map[ym]struct{})
	var months []ym
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		k := ym{tx.Date.Year(), int(tx.Date.Month())}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year > months[j].year
		}
		return months[i].month > months[j].month
	})
	keys := make([]MonthKey, len(months))
	for i, m := range months {
		keys[i] = NewMonthKey(m.year, m.month)
	}
	return keys
}

// FilterByMonth returns the transactions whose date falls in the calendar
// month encoded by key. The sentinels "all" and "current" pass every
// transaction through unchanged. The input slice is never mutated.
func FilterByMonth(txs []Transaction, key MonthKey) ([]Transaction, error) {
	if key.IsSentinel() {
		out := make([]Transaction, len(txs))
		copy(out, txs)
		return out, nil
	}
	year, month, err := key.Parse()
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0)
	for _, tx := range txs {
		if tx.Date.Year() == year && int(tx.Date.Month()) == month {
			out = append(out, tx)
		}
	}
	return out, nil
}

// FolderView is the derived, per-query view of a recurring folder: the
// subset of its transactions matching a month key and their raw sum.
type FolderView struct {
	Folder               RecurringFolder
	MonthKey             MonthKey
	FilteredTransactions []Transaction
	FilteredAmount       Money
	AvailableMonths      []MonthKey
}

// NewFolderView applies FilterByMonth to the folder's transactions and sums
// the filtered amounts. The sum is raw: no type-based sign adjustment.
func NewFolderView(folder RecurringFolder, key MonthKey) (FolderView, error) {
	filtered, err := FilterByMonth(folder.Transactions, key)
	if err != nil {
		return FolderView{}, fmt.Errorf("filter folder %s: %w", folder.ID, err)
	}
	var sum int64
	for _, tx := range filtered {
		sum += tx.Amount.Cents
	}
	return FolderView{
		Folder:               folder,
		MonthKey:             key,
		FilteredTransactions: filtered,
		FilteredAmount:       Money{Cents: sum},
		AvailableMonths:      AvailableMonths(folder.Transactions),
	}, nil
}
