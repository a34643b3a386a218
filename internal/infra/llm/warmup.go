package llm

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// ReadinessState is what the warm-up task last observed.
type ReadinessState string

const (
	ReadinessUnknown ReadinessState = "unknown"
	ReadinessWarming ReadinessState = "warming"
	ReadinessReady   ReadinessState = "ready"
	ReadinessFailed  ReadinessState = "failed"
)

// Readiness is a point-in-time snapshot for status endpoints.
type Readiness struct {
	State     ReadinessState `json:"state"`
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Attempts  int            `json:"attempts"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Warmer polls the model status endpoint in the background so the remote
// model is loaded before real traffic arrives. Its result only feeds
// readiness reporting; request handling never waits on it.
type Warmer struct {
	orch    *Orchestrator
	policy  RetryPolicy
	logger  *slog.Logger
	onState func(ReadinessState)
	state   atomic.Pointer[Readiness]
}

// NewWarmer creates a Warmer. onState, if non-nil, is called on every state change.
func NewWarmer(orch *Orchestrator, policy RetryPolicy, logger *slog.Logger, onState func(ReadinessState)) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Warmer{orch: orch, policy: policy, logger: logger, onState: onState}
	w.set(Readiness{State: ReadinessUnknown})
	return w
}

// Readiness returns the latest snapshot. Safe for concurrent use.
func (w *Warmer) Readiness() Readiness {
	return *w.state.Load()
}

// Run polls until the model is ready, the budget is spent, or ctx ends.
// Failure is reported, never returned: a cold model is not a startup error.
func (w *Warmer) Run(ctx context.Context) Readiness {
	meta := w.orch.ModelInfo()
	w.logger.Info("waiting for model to load",
		slog.String("provider", meta.Provider),
		slog.String("model", meta.ID),
		slog.Int("max_attempts", w.policy.attempts()))
	w.set(Readiness{State: ReadinessWarming})

	res, err := w.orch.Poll(ctx, meta.ID, w.policy)
	if err != nil {
		f, _ := AsFailure(err)
		snap := Readiness{State: ReadinessFailed, Error: err.Error()}
		if f != nil {
			snap.Attempts = f.Attempts
		}
		w.set(snap)
		w.logger.Warn("model warm-up failed; requests will retry on their own",
			slog.String("model", meta.ID),
			slog.Any("error", err))
		return w.Readiness()
	}

	w.set(Readiness{State: ReadinessReady, Attempts: res.Attempts})
	w.logger.Info("model is loaded and ready",
		slog.String("model", meta.ID),
		slog.Int("attempts", res.Attempts))
	return w.Readiness()
}

func (w *Warmer) set(r Readiness) {
	meta := w.orch.ModelInfo()
	r.Provider = meta.Provider
	r.Model = meta.ID
	r.UpdatedAt = time.Now().UTC()
	w.state.Store(&r)
	if w.onState != nil {
		w.onState(r.State)
	}
}
