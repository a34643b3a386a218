// HTTP handlers for the generation endpoints under /api.
// Each handler decodes the body, calls the ideas service, and shapes the
// success body the way the frontend expects.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/matiasleandrokruk/ideaforge/internal/domain/ideas"
)

// IdeaService is the subset of ideas.Service used by IdeasHandler.
type IdeaService interface {
	GenerateIdea(ctx context.Context, in ideas.GenerateIdeaInput) (ideas.Generation, error)
	AnalyzeIdeas(ctx context.Context, list []ideas.Idea) (ideas.Generation, error)
	CategorizeIdea(ctx context.Context, text string) (ideas.Generation, error)
	CheckSimilarity(ctx context.Context, text1, text2 string) (ideas.Generation, error)
	SummarizeIdea(ctx context.Context, idea ideas.Idea) (ideas.Generation, error)
	FeedbackIdea(ctx context.Context, idea ideas.Idea) (ideas.Generation, error)
	Test(ctx context.Context) (ideas.Generation, error)
}

var _ IdeaService = (*ideas.Service)(nil)

// IdeasHandler serves the generation endpoints.
type IdeasHandler struct {
	svc        IdeaService
	logger     *slog.Logger
	retryAfter time.Duration
}

// NewIdeasHandler creates an IdeasHandler. retryAfter is advertised on 503
// responses when the model did not load within the retry budget.
func NewIdeasHandler(svc IdeaService, logger *slog.Logger, retryAfter time.Duration) *IdeasHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdeasHandler{svc: svc, logger: logger, retryAfter: retryAfter}
}

type generateIdeaRequest struct {
	Prompt   string `json:"prompt"`
	Category string `json:"category"`
	Keywords string `json:"keywords"`
}

type analyzeIdeasRequest struct {
	Ideas []ideas.Idea `json:"ideas"`
}

type categorizeIdeaRequest struct {
	Idea string `json:"idea"`
}

type checkSimilarityRequest struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

type ideaRequest struct {
	Idea ideas.Idea `json:"idea"`
}

// GenerateIdea handles POST /api/generate-idea.
func (h *IdeasHandler) GenerateIdea(w http.ResponseWriter, r *http.Request) {
	var req generateIdeaRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, err := h.svc.GenerateIdea(r.Context(), ideas.GenerateIdeaInput(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"generated_text": gen.Text})
}

// AnalyzeIdeas handles POST /api/analyze-ideas.
func (h *IdeasHandler) AnalyzeIdeas(w http.ResponseWriter, r *http.Request) {
	var req analyzeIdeasRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, err := h.svc.AnalyzeIdeas(r.Context(), req.Ideas)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": gen.Text})
}

// CategorizeIdea handles POST /api/categorize-idea.
func (h *IdeasHandler) CategorizeIdea(w http.ResponseWriter, r *http.Request) {
	var req categorizeIdeaRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, err := h.svc.CategorizeIdea(r.Context(), req.Idea)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"category": gen.Text, "idea": req.Idea})
}

// CheckSimilarity handles POST /api/check-similarity.
func (h *IdeasHandler) CheckSimilarity(w http.ResponseWriter, r *http.Request) {
	var req checkSimilarityRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, err := h.svc.CheckSimilarity(r.Context(), req.Text1, req.Text2)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"similarity_analysis": gen.Text,
		"text1":               req.Text1,
		"text2":               req.Text2,
	})
}

// SummarizeIdea handles POST /api/summarize-idea.
func (h *IdeasHandler) SummarizeIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, err := h.svc.SummarizeIdea(r.Context(), req.Idea)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": gen.Text, "idea": req.Idea})
}

// FeedbackIdea handles POST /api/feedback-idea.
func (h *IdeasHandler) FeedbackIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, err := h.svc.FeedbackIdea(r.Context(), req.Idea)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": gen.Text, "idea": req.Idea})
}

// Test handles GET /api/test, a connectivity check against the provider.
func (h *IdeasHandler) Test(w http.ResponseWriter, r *http.Request) {
	gen, err := h.svc.Test(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "API is working correctly",
		"response": gen.Text,
	})
}

func (h *IdeasHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *IdeasHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.InfoContext(r.Context(), "generation request failed",
		slog.String("path", r.URL.Path),
		slog.String("client_id", clientID(r.Context())),
		slog.Any("error", err),
	)
	writeGenerationError(w, err, h.retryAfter)
}
