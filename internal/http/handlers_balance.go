package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/core"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
)

type balanceResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	TotalIncome   string    `json:"totalIncome"`
	TotalExpenses string    `json:"totalExpenses"`
	TotalTransfer string    `json:"totalTransfer"`
	Balance       string    `json:"balance"`
	BalanceCents  int64     `json:"balanceCents"`
	Closed        bool      `json:"closed"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toBalanceResponse(b core.MonthlyBalance) balanceResponse {
	return balanceResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		Month:         b.Month,
		Year:          b.Year,
		TotalIncome:   b.TotalIncome.String(),
		TotalExpenses: b.TotalExpenses.String(),
		TotalTransfer: b.TotalTransfer.String(),
		Balance:       b.Balance.String(),
		BalanceCents:  b.Balance.Cents,
		Closed:        b.Closed,
		UpdatedAt:     b.UpdatedAt,
	}
}

type userRequest struct {
	UserID string `json:"userId"`
}

type cachedBalance struct {
	balance core.MonthlyBalance
	txCount int
}

func balanceCacheKey(userID string, month, year int) string {
	return fmt.Sprintf("%s|%04d-%02d", userID, year, month)
}

func (s *Server) invalidateBalanceCaches(userID string, month, year int) {
	s.balanceCache.Delete(balanceCacheKey(userID, month, year))
	s.historyCache.Delete(userID)
}

// handleCurrentBalance returns the balance for the month containing now,
// creating the record on first access.
func (s *Server) handleCurrentBalance(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	key := balanceCacheKey(req.UserID, int(now.Month()), now.Year())
	if cached, ok := s.balanceCache.Get(key); ok {
		writeCurrentBalance(w, cached.balance, cached.txCount)
		return
	}

	balance, txCount, err := s.balances.CurrentBalance(r.Context(), req.UserID, now)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Current balance failed",
			applog.FieldUserID, req.UserID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	s.balanceCache.Set(key, cachedBalance{balance: balance, txCount: txCount})
	writeCurrentBalance(w, balance, txCount)
}

func writeCurrentBalance(w http.ResponseWriter, b core.MonthlyBalance, txCount int) {
	writeJSON(w, http.StatusOK, map[string]any{
		"monthlyBalance":    toBalanceResponse(b),
		"transactionsCount": txCount,
	})
}

// handleCheckMonth ensures a record exists for the current month and
// reports whether this call created it.
func (s *Server) handleCheckMonth(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	result, err := s.balances.CheckAndRollover(r.Context(), req.UserID, now)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Check month failed",
			applog.FieldUserID, req.UserID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	s.invalidateBalanceCaches(req.UserID, int(now.Month()), now.Year())

	message := "monthly balance already exists"
	if result.Created {
		message = "monthly balance created"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"created":        result.Created,
		"monthlyBalance": toBalanceResponse(result.Balance),
		"message":        message,
	})
}

// handleCloseMonth closes every open record up to the current month and
// opens the next one.
func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	result, err := s.balances.CloseMonth(r.Context(), req.UserID, now)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Close month failed",
			applog.FieldUserID, req.UserID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	for _, closed := range result.Closed {
		s.invalidateBalanceCaches(req.UserID, closed.Month, closed.Year)
	}
	s.invalidateBalanceCaches(req.UserID, result.Next.Month, result.Next.Year)

	closed := make([]balanceResponse, 0, len(result.Closed))
	for _, b := range result.Closed {
		closed = append(closed, toBalanceResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"closedBalances":    closed,
		"newMonthlyBalance": toBalanceResponse(result.Next),
		"message":           fmt.Sprintf("closed %d monthly balance(s)", len(closed)),
	})
}

// handleHistory returns the user's balance records newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := sanitizeInput(r.URL.Query().Get("userId"))
	limit := parseLimit(r)

	if limit == 0 {
		if cached, ok := s.historyCache.Get(userID); ok {
			writeHistory(w, cached)
			return
		}
	}

	history, err := s.balances.History(r.Context(), userID, limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "History failed",
			applog.FieldUserID, userID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	if limit == 0 {
		s.historyCache.Set(userID, history)
	}
	writeHistory(w, history)
}

func writeHistory(w http.ResponseWriter, history []core.MonthlyBalance) {
	out := make([]balanceResponse, 0, len(history))
	for _, b := range history {
		out = append(out, toBalanceResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": out})
}
