// Handler helper functions shared by every IdeaForge endpoint.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matiasleandrokruk/ideaforge/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/ideaforge/internal/domain/ideas"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

// paginationParams holds parsed limit and offset values.
type paginationParams struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 25
	maxPaginationLimit     = 100
)

// maxBodyBytes caps request bodies. Prompts are short; analyze-ideas is the
// largest and still fits comfortably.
const maxBodyBytes = 1 << 20

// clientID returns the authenticated client, or "anonymous" when the API runs
// without JWT_SECRET.
func clientID(ctx context.Context) string {
	if id, ok := ctxkeys.String(ctx, ctxkeys.ClientID); ok {
		return id
	}
	return "anonymous"
}

// parsePaginationParams extracts and validates limit/offset from URL query params.
func parsePaginationParams(r *http.Request) paginationParams {
	limit := defaultPaginationLimit
	offset := 0

	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim > 0 {
		if lim > maxPaginationLimit {
			lim = maxPaginationLimit
		}
		limit = lim
	}

	if off, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && off >= 0 {
		offset = off
	}

	return paginationParams{Limit: limit, Offset: offset}
}

// decodeJSON reads a size-capped JSON body into dst. An empty body decodes as
// the zero value so validation can report the missing field by name.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// failureResponse is the body for provider failures.
type failureResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts"`
}

// writeGenerationError maps a service error onto an HTTP response:
//   - validation errors → 400
//   - transport failures → 504
//   - exhausted budget or canceled call → 503 (with Retry-After while loading)
//   - any other provider failure → 502
func writeGenerationError(w http.ResponseWriter, err error, retryAfter time.Duration) {
	var verr *ideas.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}

	f, ok := llm.AsFailure(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	body := failureResponse{
		Error:      f.Reason,
		Details:    f.Detail,
		StatusCode: f.StatusCode,
		Attempts:   f.Attempts,
	}
	switch {
	case f.Transport:
		body.Error = "provider unreachable"
		writeJSON(w, http.StatusGatewayTimeout, body)
	case errors.Is(err, llm.ErrBudgetExhausted) && f.Loading:
		body.Error = "model is still loading, please retry"
		if secs := int(retryAfter.Round(time.Second).Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeJSON(w, http.StatusServiceUnavailable, body)
	case errors.Is(err, llm.ErrBudgetExhausted):
		writeJSON(w, http.StatusServiceUnavailable, body)
	case errors.Is(err, llm.ErrCanceled):
		body.Error = "request canceled"
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		writeJSON(w, http.StatusBadGateway, body)
	}
}
