// Route registration and go-chi router setup.
// Public routes (/health, /ready, /metrics, /auth/*) vs the /api routes, which
// require a Bearer JWT only when a signing secret is configured.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/ideaforge/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/ideaforge/internal/api/middleware"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/metrics"
)

// Deps are the services the router wires into handlers.
type Deps struct {
	Logger    *slog.Logger
	Ideas     handlers.IdeaService
	History   handlers.HistoryLister
	Readiness handlers.ReadinessSource // nil when warm-up is disabled
	Model     llm.ModelMeta
	Metrics   *metrics.Metrics // nil disables /metrics

	CORSOrigins []string
	// RetryAfter is advertised on 503 responses after an exhausted budget.
	RetryAfter time.Duration

	// JWTSecret enables auth on /api and the /auth/token endpoint.
	JWTSecret            []byte
	JWTExpiry            time.Duration
	AuthClientID         string
	AuthClientSecretHash string
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(apmiddleware.CORS(d.CORSOrigins))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	// ===== PUBLIC ROUTES (no auth required) =====

	status := handlers.NewStatusHandler(d.Readiness, d.Model)
	r.Get("/health", status.Health)
	r.Get("/ready", status.Ready)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	authEnabled := len(d.JWTSecret) > 0
	if authEnabled {
		authHandler := handlers.NewAuthHandler(d.JWTSecret, d.AuthClientID, d.AuthClientSecretHash, d.JWTExpiry)
		r.Post("/auth/token", authHandler.Token)
	}

	// ===== API ROUTES (JWT required when configured) =====

	ideasHandler := handlers.NewIdeasHandler(d.Ideas, logger, d.RetryAfter)
	historyHandler := handlers.NewHistoryHandler(d.History, logger)
	r.Route("/api", func(r chi.Router) {
		if authEnabled {
			r.Use(apmiddleware.AuthMiddleware(d.JWTSecret))
		}

		r.Post("/generate-idea", ideasHandler.GenerateIdea)       // POST /api/generate-idea
		r.Post("/analyze-ideas", ideasHandler.AnalyzeIdeas)       // POST /api/analyze-ideas
		r.Post("/categorize-idea", ideasHandler.CategorizeIdea)   // POST /api/categorize-idea
		r.Post("/check-similarity", ideasHandler.CheckSimilarity) // POST /api/check-similarity
		r.Post("/summarize-idea", ideasHandler.SummarizeIdea)     // POST /api/summarize-idea
		r.Post("/feedback-idea", ideasHandler.FeedbackIdea)       // POST /api/feedback-idea
		r.Get("/test", ideasHandler.Test)                         // GET /api/test
		r.Get("/model-status", status.ModelStatus)                // GET /api/model-status
		r.Get("/history", historyHandler.List)                    // GET /api/history
	})

	return r
}
