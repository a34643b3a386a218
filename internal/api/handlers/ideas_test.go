package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/ideaforge/internal/domain/ideas"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

// fakeIdeaService records the last input and answers with text or err.
type fakeIdeaService struct {
	text string
	err  error
	last any
}

func (f *fakeIdeaService) answer(in any) (ideas.Generation, error) {
	f.last = in
	if f.err != nil {
		return ideas.Generation{}, f.err
	}
	return ideas.Generation{Text: f.text, Attempts: 1}, nil
}

func (f *fakeIdeaService) GenerateIdea(_ context.Context, in ideas.GenerateIdeaInput) (ideas.Generation, error) {
	return f.answer(in)
}
func (f *fakeIdeaService) AnalyzeIdeas(_ context.Context, list []ideas.Idea) (ideas.Generation, error) {
	return f.answer(list)
}
func (f *fakeIdeaService) CategorizeIdea(_ context.Context, text string) (ideas.Generation, error) {
	return f.answer(text)
}
func (f *fakeIdeaService) CheckSimilarity(_ context.Context, text1, text2 string) (ideas.Generation, error) {
	return f.answer([2]string{text1, text2})
}
func (f *fakeIdeaService) SummarizeIdea(_ context.Context, idea ideas.Idea) (ideas.Generation, error) {
	return f.answer(idea)
}
func (f *fakeIdeaService) FeedbackIdea(_ context.Context, idea ideas.Idea) (ideas.Generation, error) {
	return f.answer(idea)
}
func (f *fakeIdeaService) Test(context.Context) (ideas.Generation, error) {
	return f.answer(nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/x", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestIdeasHandler_SuccessShapes(t *testing.T) {
	t.Parallel()

	idea := `{"idea":{"title":"Sprout","description":"Plant care"}}`
	tests := []struct {
		name    string
		call    func(h *IdeasHandler) http.HandlerFunc
		body    string
		wantKey string
		echo    map[string]any
	}{
		{"generate", func(h *IdeasHandler) http.HandlerFunc { return h.GenerateIdea }, `{"prompt":"plants"}`, "generated_text", nil},
		{"analyze", func(h *IdeasHandler) http.HandlerFunc { return h.AnalyzeIdeas }, `{"ideas":[{"title":"a"},{"title":"b"}]}`, "analysis", nil},
		{"categorize", func(h *IdeasHandler) http.HandlerFunc { return h.CategorizeIdea }, `{"idea":"drones"}`, "category", map[string]any{"idea": "drones"}},
		{"similarity", func(h *IdeasHandler) http.HandlerFunc { return h.CheckSimilarity }, `{"text1":"a","text2":"b"}`, "similarity_analysis", map[string]any{"text1": "a", "text2": "b"}},
		{"summarize", func(h *IdeasHandler) http.HandlerFunc { return h.SummarizeIdea }, idea, "summary", map[string]any{"idea": map[string]any{"title": "Sprout", "description": "Plant care"}}},
		{"feedback", func(h *IdeasHandler) http.HandlerFunc { return h.FeedbackIdea }, idea, "feedback", map[string]any{"idea": map[string]any{"title": "Sprout", "description": "Plant care"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewIdeasHandler(&fakeIdeaService{text: "generated"}, nil, 0)
			rr := postJSON(t, tt.call(h), tt.body)

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			body := decodeBody(t, rr)
			assert.Equal(t, "generated", body[tt.wantKey])
			for k, v := range tt.echo {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestIdeasHandler_GenerateIdeaPassesCategory(t *testing.T) {
	t.Parallel()

	svc := &fakeIdeaService{text: "ok"}
	h := NewIdeasHandler(svc, nil, 0)
	rr := postJSON(t, h.GenerateIdea, `{"category":"Health","keywords":"sleep"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ideas.GenerateIdeaInput{Category: "Health", Keywords: "sleep"}, svc.last)
}

func TestIdeasHandler_Test(t *testing.T) {
	t.Parallel()

	h := NewIdeasHandler(&fakeIdeaService{text: "Hello!"}, nil, 0)
	rr := httptest.NewRecorder()
	h.Test(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Hello!", body["response"])
}

func TestIdeasHandler_InvalidJSON(t *testing.T) {
	t.Parallel()

	svc := &fakeIdeaService{text: "ok"}
	h := NewIdeasHandler(svc, nil, 0)
	rr := postJSON(t, h.GenerateIdea, `{"prompt":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid request body", decodeBody(t, rr)["error"])
	assert.Nil(t, svc.last)
}

func TestIdeasHandler_EmptyBodyReachesValidation(t *testing.T) {
	t.Parallel()

	svc := &fakeIdeaService{err: &ideas.ValidationError{Message: "Prompt is required"}}
	h := NewIdeasHandler(svc, nil, 0)
	rr := postJSON(t, h.GenerateIdea, ``)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Prompt is required", decodeBody(t, rr)["error"])
}

func TestIdeasHandler_ProviderFailure(t *testing.T) {
	t.Parallel()

	failure := &llm.Failure{Reason: "model loading", StatusCode: 503, Attempts: 3, Err: llm.ErrBudgetExhausted}
	h := NewIdeasHandler(&fakeIdeaService{err: failure}, nil, 20*time.Second)
	rr := postJSON(t, h.SummarizeIdea, `{"idea":{"title":"x"}}`)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "20", rr.Header().Get("Retry-After"))
	body := decodeBody(t, rr)
	assert.EqualValues(t, 3, body["attempts"])
	assert.EqualValues(t, 503, body["status_code"])
}
