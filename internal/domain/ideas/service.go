// Package ideas renders the IdeaForge prompts and drives them through the
// inference orchestrator. Every call, successful or not, is announced on the
// event bus so the history recorder can persist it.
package ideas

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/eventbus"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

// TopicGenerationCompleted is published after every generation call.
const TopicGenerationCompleted = "generation.completed"

// CompletedEventPayload describes one finished generation call.
type CompletedEventPayload struct {
	Endpoint   Endpoint
	Provider   string
	Model      string
	Outcome    string // one of the llm.Result* labels
	Attempts   int
	StatusCode int
	Reason     string
	Duration   time.Duration
	At         time.Time
}

// ErrValidation marks caller input errors. Handlers map it to 400.
var ErrValidation = errors.New("validation error")

// ValidationError carries the user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// Generator is the part of llm.Orchestrator the service needs.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerationRequest, policy llm.RetryPolicy) (llm.Result, error)
	ModelInfo() llm.ModelMeta
}

var _ Generator = (*llm.Orchestrator)(nil)

// Generation is the outcome of one successful endpoint call.
type Generation struct {
	Endpoint Endpoint
	Text     string
	Attempts int
	Elapsed  time.Duration
}

// Service exposes one method per generation endpoint.
type Service struct {
	gen    Generator
	policy llm.RetryPolicy
	bus    eventbus.EventBus
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Service. bus and logger may be nil.
func NewService(gen Generator, policy llm.RetryPolicy, bus eventbus.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gen:    gen,
		policy: policy,
		bus:    bus,
		logger: logger.With(slog.String("component", "ideas")),
		now:    time.Now,
	}
}

// GenerateIdeaInput takes either a free-form prompt or a category with keywords.
type GenerateIdeaInput struct {
	Prompt   string
	Category string
	Keywords string
}

// GenerateIdea produces a new idea. A prompt wins over category and keywords.
func (s *Service) GenerateIdea(ctx context.Context, in GenerateIdeaInput) (Generation, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt != "" {
		return s.run(ctx, EndpointGenerateIdea, profiles[EndpointGenerateIdea].template, promptData{Prompt: prompt})
	}
	category, keywords := strings.TrimSpace(in.Category), strings.TrimSpace(in.Keywords)
	switch {
	case category == "" && keywords == "":
		return Generation{}, invalid("Prompt is required")
	case category == "" || keywords == "":
		return Generation{}, invalid("Category and keywords are required")
	}
	return s.run(ctx, EndpointGenerateIdea, businessIdeaTemplate, promptData{Category: category, Keywords: keywords})
}

// AnalyzeIdeas looks for connections between two or more ideas.
func (s *Service) AnalyzeIdeas(ctx context.Context, list []Idea) (Generation, error) {
	if len(list) < 2 {
		return Generation{}, invalid("At least 2 ideas are required for analysis")
	}
	return s.endpoint(ctx, EndpointAnalyzeIdeas, promptData{Ideas: list})
}

// CategorizeIdea classifies a free-text idea.
func (s *Service) CategorizeIdea(ctx context.Context, text string) (Generation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Generation{}, invalid("Idea is required")
	}
	return s.endpoint(ctx, EndpointCategorizeIdea, promptData{Text: text})
}

// CheckSimilarity compares two ideas.
func (s *Service) CheckSimilarity(ctx context.Context, text1, text2 string) (Generation, error) {
	text1, text2 = strings.TrimSpace(text1), strings.TrimSpace(text2)
	if text1 == "" || text2 == "" {
		return Generation{}, invalid("Both text inputs are required")
	}
	return s.endpoint(ctx, EndpointCheckSimilarity, promptData{Text1: text1, Text2: text2})
}

// SummarizeIdea produces a structured summary.
func (s *Service) SummarizeIdea(ctx context.Context, idea Idea) (Generation, error) {
	if !idea.valid() {
		return Generation{}, invalid("Idea is required")
	}
	return s.endpoint(ctx, EndpointSummarizeIdea, promptData{Idea: idea})
}

// FeedbackIdea produces a SWOT-style review.
func (s *Service) FeedbackIdea(ctx context.Context, idea Idea) (Generation, error) {
	if !idea.valid() {
		return Generation{}, invalid("Idea is required")
	}
	return s.endpoint(ctx, EndpointFeedbackIdea, promptData{Idea: idea})
}

// Test sends a fixed short prompt to check provider connectivity.
func (s *Service) Test(ctx context.Context) (Generation, error) {
	return s.call(ctx, EndpointTest, testPrompt)
}

func (i Idea) valid() bool {
	return strings.TrimSpace(i.Title) != "" || strings.TrimSpace(i.Description) != ""
}

func (s *Service) endpoint(ctx context.Context, e Endpoint, data promptData) (Generation, error) {
	return s.run(ctx, e, profiles[e].template, data)
}

func (s *Service) run(ctx context.Context, e Endpoint, tmpl string, data promptData) (Generation, error) {
	input, err := render(tmpl, data)
	if err != nil {
		return Generation{}, err
	}
	return s.call(ctx, e, input)
}

func (s *Service) call(ctx context.Context, e Endpoint, input string) (Generation, error) {
	meta := s.gen.ModelInfo()
	req := llm.GenerationRequest{
		Input:      input,
		System:     profiles[e].system,
		Parameters: parametersFor(meta.Provider, e),
	}

	start := s.now()
	res, err := s.gen.Generate(ctx, req, s.policy)
	s.publish(ctx, e, meta, res, err, s.now().Sub(start))
	if err != nil {
		return Generation{}, err
	}
	return Generation{
		Endpoint: e,
		Text:     string(res.Text),
		Attempts: res.Attempts,
		Elapsed:  res.Elapsed,
	}, nil
}

func (s *Service) publish(ctx context.Context, e Endpoint, meta llm.ModelMeta, res llm.Result, err error, d time.Duration) {
	p := CompletedEventPayload{
		Endpoint: e,
		Provider: meta.Provider,
		Model:    meta.ID,
		Outcome:  llm.ResultOf(err),
		Attempts: res.Attempts,
		Duration: d,
		At:       s.now().UTC(),
	}
	if f, ok := llm.AsFailure(err); ok {
		p.Attempts = f.Attempts
		p.StatusCode = f.StatusCode
		p.Reason = f.Reason
	}
	if err != nil {
		s.logger.WarnContext(ctx, "generation failed",
			slog.String("endpoint", string(e)),
			slog.String("outcome", p.Outcome),
			slog.Int("attempts", p.Attempts),
			slog.Any("error", err),
		)
	}
	if s.bus != nil {
		s.bus.Publish(TopicGenerationCompleted, p)
	}
}
