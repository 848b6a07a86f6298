package http

import (
	"net/http"

	"github.com/glopmts/my-finance-sub000/internal/core"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
)

type createFolderRequest struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	Color     string `json:"color"`
}

type folderResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	Active    bool   `json:"active"`
	Color     string `json:"color,omitempty"`
}

func toFolderResponse(f core.RecurringFolder) folderResponse {
	return folderResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Category:  f.Category,
		Frequency: f.Frequency,
		Active:    f.Active,
		Color:     f.Color,
	}
}

type folderViewResponse struct {
	Folder          folderResponse        `json:"folder"`
	MonthKey        string                `json:"monthKey"`
	Transactions    []transactionResponse `json:"transactions"`
	FilteredAmount  string                `json:"filteredAmount"`
	AvailableMonths []string              `json:"availableMonths"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder := core.RecurringFolder{
		UserID:    sanitizeInput(req.UserID),
		Name:      sanitizeInput(req.Name),
		Category:  sanitizeInput(req.Category),
		Frequency: sanitizeInput(req.Frequency),
		Active:    true,
		Color:     sanitizeInput(req.Color),
	}
	if folder.Frequency == "" {
		folder.Frequency = "monthly"
	}

	created, err := s.folders.Create(r.Context(), folder)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create folder failed",
			applog.FieldUserID, folder.UserID, applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFolderResponse(created))
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	userID := sanitizeInput(r.URL.Query().Get("userId"))

	folders, err := s.folders.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]folderResponse, 0, len(folders))
	for _, f := range folders {
		out = append(out, toFolderResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": out})
}

// handleFolderOverview returns each folder with its transactions filtered
// by the month query parameter. A missing month defaults to the "current"
// sentinel, which keeps every transaction. With folderId set, only that
// folder is returned.
func (s *Server) handleFolderOverview(w http.ResponseWriter, r *http.Request) {
	userID := sanitizeInput(r.URL.Query().Get("userId"))
	folderID := sanitizeInput(r.URL.Query().Get("folderId"))

	key := core.MonthKey(sanitizeInput(r.URL.Query().Get("month")))
	if key == "" {
		key = core.MonthKeyCurrent
	}

	var views []core.FolderView
	var err error
	if folderID != "" {
		var view core.FolderView
		view, err = s.folders.FolderOverview(r.Context(), userID, folderID, key)
		if err == nil {
			views = []core.FolderView{view}
		}
	} else {
		views, err = s.folders.Overview(r.Context(), userID, key)
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Folder overview failed",
			applog.FieldUserID, userID,
			applog.FieldMonthKey, string(key),
			applog.FieldError, err)
		writeServiceError(w, err)
		return
	}

	out := make([]folderViewResponse, 0, len(views))
	for _, view := range views {
		txs := make([]transactionResponse, 0, len(view.FilteredTransactions))
		for _, tx := range view.FilteredTransactions {
			txs = append(txs, toTransactionResponse(tx))
		}
		months := make([]string, 0, len(view.AvailableMonths))
		for _, m := range view.AvailableMonths {
			months = append(months, string(m))
		}
		out = append(out, folderViewResponse{
			Folder:          toFolderResponse(view.Folder),
			MonthKey:        string(view.MonthKey),
			Transactions:    txs,
			FilteredAmount:  view.FilteredAmount.String(),
			AvailableMonths: months,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": out})
}
