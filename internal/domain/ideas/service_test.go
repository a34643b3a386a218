package ideas

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/eventbus"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

type fakeGenerator struct {
	mu       sync.Mutex
	provider string
	result   llm.Result
	err      error
	requests []llm.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.GenerationRequest, _ llm.RetryPolicy) (llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeGenerator) ModelInfo() llm.ModelMeta {
	p := f.provider
	if p == "" {
		p = llm.ProviderHuggingFace
	}
	return llm.ModelMeta{ID: "test/model", Provider: p}
}

func (f *fakeGenerator) last(t *testing.T) llm.GenerationRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestService(gen *fakeGenerator) (*Service, <-chan eventbus.Event) {
	bus := eventbus.New()
	ch := bus.Subscribe(TopicGenerationCompleted)
	return NewService(gen, llm.DefaultPolicy(), bus, nil), ch
}

func receive(t *testing.T, ch <-chan eventbus.Event) CompletedEventPayload {
	t.Helper()
	select {
	case e := <-ch:
		p, ok := e.Payload.(CompletedEventPayload)
		require.True(t, ok, "unexpected payload %T", e.Payload)
		return p
	case <-time.After(time.Second):
		t.Fatal("no generation.completed event")
		return CompletedEventPayload{}
	}
}

func TestService_GenerateIdea_Prompt(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: llm.Result{Text: "Title: Sprout", Attempts: 2, Elapsed: 20 * time.Second}}
	svc, events := newTestService(gen)

	got, err := svc.GenerateIdea(context.Background(), GenerateIdeaInput{Prompt: "  plant care  "})
	require.NoError(t, err)
	assert.Equal(t, "Title: Sprout", got.Text)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, EndpointGenerateIdea, got.Endpoint)

	req := gen.last(t)
	assert.Contains(t, req.Input, `"plant care"`)
	assert.Equal(t, profiles[EndpointGenerateIdea].system, req.System)
	assert.Equal(t, 500, req.Parameters.MaxLength)

	ev := receive(t, events)
	assert.Equal(t, EndpointGenerateIdea, ev.Endpoint)
	assert.Equal(t, llm.ResultSuccess, ev.Outcome)
	assert.Equal(t, 2, ev.Attempts)
	assert.Equal(t, "test/model", ev.Model)
	assert.Equal(t, llm.ProviderHuggingFace, ev.Provider)
}

func TestService_GenerateIdea_CategoryAndKeywords(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: llm.Result{Text: "ok", Attempts: 1}}
	svc, _ := newTestService(gen)

	_, err := svc.GenerateIdea(context.Background(), GenerateIdeaInput{Category: "Health", Keywords: "sleep, wearables"})
	require.NoError(t, err)
	req := gen.last(t)
	assert.Contains(t, req.Input, "Category: Health")
	assert.Contains(t, req.Input, "Keywords: sleep, wearables")
}

func TestService_Validation(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: llm.Result{Text: "ok", Attempts: 1}}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		msg  string
	}{
		{"empty generate", func() error { _, err := svc.GenerateIdea(ctx, GenerateIdeaInput{}); return err }, "Prompt is required"},
		{"category only", func() error {
			_, err := svc.GenerateIdea(ctx, GenerateIdeaInput{Category: "Art"})
			return err
		}, "Category and keywords are required"},
		{"one idea", func() error { _, err := svc.AnalyzeIdeas(ctx, []Idea{{Title: "x"}}); return err }, "At least 2 ideas are required for analysis"},
		{"blank categorize", func() error { _, err := svc.CategorizeIdea(ctx, "   "); return err }, "Idea is required"},
		{"one text", func() error { _, err := svc.CheckSimilarity(ctx, "a", ""); return err }, "Both text inputs are required"},
		{"empty summarize", func() error { _, err := svc.SummarizeIdea(ctx, Idea{}); return err }, "Idea is required"},
		{"empty feedback", func() error { _, err := svc.FeedbackIdea(ctx, Idea{}); return err }, "Idea is required"},
	}
	for _, tt := range tests {
		err := tt.call()
		require.Error(t, err, tt.name)
		assert.ErrorIs(t, err, ErrValidation, tt.name)
		assert.EqualError(t, err, tt.msg, tt.name)
	}
	assert.Empty(t, gen.requests, "validation failures must not reach the provider")
}

func TestService_EndpointParameters(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{provider: llm.ProviderGroq, result: llm.Result{Text: "ok", Attempts: 1}}
	svc, _ := newTestService(gen)
	ctx := context.Background()
	idea := Idea{Title: "Sprout", Description: "Plant care reminders"}

	_, err := svc.SummarizeIdea(ctx, idea)
	require.NoError(t, err)
	req := gen.last(t)
	assert.Equal(t, 400, req.Parameters.MaxLength)
	assert.InDelta(t, 0.5, req.Parameters.Temperature, 1e-9)
	assert.Contains(t, req.Input, "Title: Sprout")

	_, err = svc.FeedbackIdea(ctx, idea)
	require.NoError(t, err)
	req = gen.last(t)
	assert.Equal(t, 600, req.Parameters.MaxLength)
	assert.Contains(t, req.Input, "Improvement Suggestions")

	_, err = svc.Test(ctx)
	require.NoError(t, err)
	req = gen.last(t)
	assert.Equal(t, testPrompt, req.Input)
	assert.Equal(t, 50, req.Parameters.MaxLength)
	assert.Empty(t, req.System)
}

func TestService_AnalyzeCategorizeSimilarity(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: llm.Result{Text: "ok", Attempts: 1}}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	_, err := svc.AnalyzeIdeas(ctx, []Idea{{Title: "A"}, {Title: "B"}})
	require.NoError(t, err)
	assert.Contains(t, gen.last(t).Input, "Idea 2:\nTitle: B")

	_, err = svc.CategorizeIdea(ctx, "a drone for pollination")
	require.NoError(t, err)
	assert.Contains(t, gen.last(t).Input, "following idea: a drone for pollination")

	_, err = svc.CheckSimilarity(ctx, "one", "two")
	require.NoError(t, err)
	assert.Contains(t, gen.last(t).Input, "Idea 1: one")
}

func TestService_FailurePublishesOutcome(t *testing.T) {
	t.Parallel()

	failure := &llm.Failure{Reason: "model loading", StatusCode: 503, Attempts: 3, Err: llm.ErrBudgetExhausted}
	gen := &fakeGenerator{err: failure}
	svc, events := newTestService(gen)

	_, err := svc.CategorizeIdea(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrBudgetExhausted)

	ev := receive(t, events)
	assert.Equal(t, llm.ResultBudgetExhausted, ev.Outcome)
	assert.Equal(t, 3, ev.Attempts)
	assert.Equal(t, 503, ev.StatusCode)
	assert.Equal(t, "model loading", ev.Reason)
}

func TestService_NilBusIsFine(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("boom")}
	svc := NewService(gen, llm.DefaultPolicy(), nil, nil)

	_, err := svc.Test(context.Background())
	require.Error(t, err)
}
