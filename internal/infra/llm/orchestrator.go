package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when the wait was cut short.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper. The timer is always stopped, so an
// aborted call leaves nothing pending.
func SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Observer receives orchestration events, e.g. for metrics. Implementations
// must be safe for concurrent use.
type Observer interface {
	AttemptFinished(provider string, attempt int, o Outcome)
	Waiting(provider string, d time.Duration)
	CallFinished(provider string, attempts int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) AttemptFinished(string, int, Outcome)            {}
func (nopObserver) Waiting(string, time.Duration)                   {}
func (nopObserver) CallFinished(string, int, time.Duration, error) {}

// Orchestrator drives a Submitter under a bounded RetryPolicy until it reaches
// a terminal result. It holds no per-call state, so one instance serves any
// number of concurrent calls.
type Orchestrator struct {
	submitter Submitter
	sleep     Sleeper
	logger    *slog.Logger
	observer  Observer
	now       func() time.Time
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithSleeper overrides how inter-attempt waits are performed (useful for tests).
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an observer for attempt and call events.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithClock overrides the time source used for Result.Elapsed.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator builds an orchestrator around s.
func NewOrchestrator(s Submitter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		submitter: s,
		sleep:     SleepContext,
		logger:    slog.Default(),
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ModelInfo reports the identity of the underlying submitter.
func (o *Orchestrator) ModelInfo() ModelMeta { return o.submitter.ModelInfo() }

// Generate submits req until success, a non-retryable failure, or budget
// exhaustion. The returned error, when non-nil, is always a *Failure.
func (o *Orchestrator) Generate(ctx context.Context, req GenerationRequest, policy RetryPolicy) (Result, error) {
	return o.run(ctx, "generate", policy, func(ctx context.Context) Outcome {
		return o.submitter.Submit(ctx, req)
	})
}

// Poll runs the lightweight status check under policy. It has no generation
// side effects and is used for proactive warm-up.
func (o *Orchestrator) Poll(ctx context.Context, modelID string, policy RetryPolicy) (Result, error) {
	return o.run(ctx, "status", policy, func(ctx context.Context) Outcome {
		return o.submitter.Status(ctx, modelID)
	})
}

func (o *Orchestrator) run(ctx context.Context, op string, policy RetryPolicy, attempt func(context.Context) Outcome) (Result, error) {
	start := o.now()
	provider := o.submitter.ModelInfo().Provider
	maxAttempts := policy.attempts()
	log := o.logger.With(slog.String("op", op), slog.String("provider", provider))

	finish := func(attempts int, err error) (Result, error) {
		o.observer.CallFinished(provider, attempts, o.now().Sub(start), err)
		return Result{}, err
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return finish(n-1, canceledFailure(n-1, err))
		}

		out := o.attemptOnce(ctx, policy, attempt)
		o.observer.AttemptFinished(provider, n, out)

		if out.Kind == OutcomeSuccess {
			elapsed := o.now().Sub(start)
			o.observer.CallFinished(provider, n, elapsed, nil)
			log.DebugContext(ctx, "attempt succeeded", slog.Int("attempt", n))
			return Result{Text: out.Text, Attempts: n, Elapsed: elapsed}, nil
		}
		if err := ctx.Err(); err != nil {
			return finish(n, canceledFailure(n, err))
		}
		if !policy.retryable(out) {
			log.WarnContext(ctx, "attempt failed permanently",
				slog.Int("attempt", n),
				slog.String("reason", out.Reason),
				slog.Int("status", out.StatusCode),
				slog.Bool("transport", out.Transport))
			return finish(n, failureFrom(out, n))
		}
		if n >= maxAttempts {
			log.WarnContext(ctx, "attempt budget exhausted",
				slog.Int("attempts", n),
				slog.String("last_reason", out.Reason))
			return finish(n, exhaustedFailure(out, n))
		}

		delay := policy.delayFor(out)
		log.InfoContext(ctx, "retryable outcome, waiting",
			slog.Int("attempt", n),
			slog.Int("max_attempts", maxAttempts),
			slog.String("reason", out.Reason),
			slog.Duration("delay", delay))
		o.observer.Waiting(provider, delay)
		if err := o.sleep(ctx, delay); err != nil {
			return finish(n, canceledFailure(n, err))
		}
	}
}

func (o *Orchestrator) attemptOnce(ctx context.Context, policy RetryPolicy, attempt func(context.Context) Outcome) Outcome {
	if policy.AttemptTimeout <= 0 {
		return attempt(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
	defer cancel()
	return attempt(actx)
}

func exhaustedFailure(last Outcome, attempts int) *Failure {
	detail := last.Body
	if detail == "" {
		detail = last.Reason
	}
	err := ErrBudgetExhausted
	if last.Err != nil {
		err = errors.Join(ErrBudgetExhausted, last.Err)
	}
	return &Failure{
		Reason:     ReasonBudgetExhausted,
		StatusCode: last.StatusCode,
		Detail:     detail,
		Attempts:   attempts,
		Transport:  last.Transport,
		Loading:    last.Loading,
		Err:        err,
	}
}

func canceledFailure(attempts int, cause error) *Failure {
	return &Failure{
		Reason:   ReasonCanceled,
		Attempts: attempts,
		Err:      errors.Join(ErrCanceled, cause),
	}
}
