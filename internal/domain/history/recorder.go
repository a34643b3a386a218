// Package history persists one generation_log row per orchestrated call.
// The Recorder consumes generation.completed events from the bus, so the
// request path never waits on the database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matiasleandrokruk/ideaforge/internal/domain/ideas"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/eventbus"
)

// Pagination bounds for List.
const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is one generation_log row.
type Record struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Outcome    string    `json:"outcome"`
	Attempts   int       `json:"attempts"`
	StatusCode int       `json:"status_code,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder writes and reads generation history.
type Recorder struct {
	db     *sql.DB
	logger *slog.Logger
	newID  func() (uuid.UUID, error)
}

// NewRecorder creates a Recorder backed by a migrated database.
func NewRecorder(db *sql.DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		db:     db,
		logger: logger.With(slog.String("component", "history")),
		newID:  uuid.NewV7,
	}
}

// Start subscribes to ideas.TopicGenerationCompleted and stores each event.
// Runs in the calling goroutine and returns when ctx is cancelled or the bus
// is closed.
func (r *Recorder) Start(ctx context.Context, bus eventbus.EventBus) {
	ch := bus.Subscribe(ideas.TopicGenerationCompleted)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, ok := evt.Payload.(ideas.CompletedEventPayload)
			if !ok {
				continue
			}
			// Best-effort: a lost row never fails the request that produced it.
			if _, err := r.Record(ctx, payload); err != nil {
				r.logger.WarnContext(ctx, "record generation failed",
					slog.String("endpoint", string(payload.Endpoint)),
					slog.Any("error", err),
				)
			}
		}
	}
}

// Record inserts one row and returns it.
func (r *Recorder) Record(ctx context.Context, p ideas.CompletedEventPayload) (Record, error) {
	id, err := r.newID()
	if err != nil {
		return Record{}, fmt.Errorf("history: new id: %w", err)
	}
	at := p.At
	if at.IsZero() {
		at = time.Now()
	}
	rec := Record{
		ID:         id.String(),
		Endpoint:   string(p.Endpoint),
		Provider:   p.Provider,
		Model:      p.Model,
		Outcome:    p.Outcome,
		Attempts:   p.Attempts,
		StatusCode: p.StatusCode,
		Reason:     p.Reason,
		DurationMs: p.Duration.Milliseconds(),
		CreatedAt:  at.UTC().Truncate(time.Millisecond),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO generation_log
			(id, endpoint, provider, model, outcome, attempts, status_code, reason, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Endpoint, rec.Provider, rec.Model, rec.Outcome,
		rec.Attempts, rec.StatusCode, rec.Reason, rec.DurationMs,
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Record{}, fmt.Errorf("history: insert: %w", err)
	}
	return rec, nil
}

// List returns rows newest first. Out-of-range limits fall back to the
// defaults and are capped at MaxLimit.
func (r *Recorder) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, endpoint, provider, model, outcome, attempts, status_code, reason, duration_ms, created_at
		FROM generation_log
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var (
			rec     Record
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.Endpoint, &rec.Provider, &rec.Model, &rec.Outcome,
			&rec.Attempts, &rec.StatusCode, &rec.Reason, &rec.DurationMs, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("history: parse created_at %q: %w", created, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return out, nil
}
