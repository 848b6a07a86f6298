package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/core"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
)

type createTransactionRequest struct {
	UserID    string `json:"userId"`
	Amount    string `json:"amount"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
	FolderID  string `json:"folderId"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    string    `json:"amount"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Date      time.Time `json:"date"`
	Recurring bool      `json:"recurring"`
	FolderID  string    `json:"folderId,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		UserID:    tx.UserID,
		Amount:    tx.Amount.String(),
		Type:      string(tx.Type),
		Category:  tx.Category,
		Date:      tx.Date,
		Recurring: tx.Recurring,
		FolderID:  tx.FolderID,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+err.Error())
		return
	}

	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	tx := core.Transaction{
		UserID:    sanitizeInput(req.UserID),
		Amount:    core.Money{Cents: cents},
		Type:      txType,
		Category:  sanitizeInput(req.Category),
		Date:      date,
		Recurring: req.Recurring,
		FolderID:  sanitizeInput(req.FolderID),
	}
	if err := tx.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := s.transactions.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create transaction failed",
			applog.FieldUserID, tx.UserID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	// The stored monthly aggregates are stale until the next read, drop
	// the cached copy for the affected month.
	s.invalidateBalanceCaches(created.UserID, int(created.Date.Month()), created.Date.Year())

	s.logger.InfoContext(r.Context(), "Transaction created",
		applog.FieldUserID, created.UserID,
		"transaction_id", created.ID,
		"type", string(created.Type),
		"amount_cents", created.Amount.Cents)

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := sanitizeInput(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusUnprocessableEntity, core.ErrEmptyUserID.Error())
		return
	}

	yearStr := strings.TrimSpace(r.URL.Query().Get("year"))
	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))

	var (
		txs []core.Transaction
		err error
	)
	if yearStr != "" || monthStr != "" {
		year, yerr := strconv.Atoi(yearStr)
		month, merr := strconv.Atoi(monthStr)
		if yerr != nil || merr != nil {
			writeError(w, http.StatusUnprocessableEntity, "year and month must both be integers")
			return
		}
		if verr := core.ValidateMonthYear(month, year); verr != nil {
			writeError(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		txs, err = s.transactions.ListMonthTransactions(r.Context(), userID, year, month)
	} else {
		txs, err = s.transactions.ListUserTransactions(r.Context(), userID)
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed",
			applog.FieldUserID, userID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing transaction id")
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
