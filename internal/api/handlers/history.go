package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/matiasleandrokruk/ideaforge/internal/domain/history"
)

// HistoryLister is the read side of history.Recorder.
type HistoryLister interface {
	List(ctx context.Context, limit, offset int) ([]history.Record, error)
}

// HistoryHandler serves GET /api/history.
type HistoryHandler struct {
	lister HistoryLister
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(lister HistoryLister, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{lister: lister, logger: logger}
}

type historyResponse struct {
	Data   []history.Record `json:"data"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// List handles GET /api/history?limit&offset, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePaginationParams(r)
	records, err := h.lister.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list history failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Data: records, Limit: page.Limit, Offset: page.Offset})
}
