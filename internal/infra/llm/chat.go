// Chat-completion adapter for Groq and other OpenAI-compatible endpoints.
// Endpoints used:
//   - POST {base}/chat/completions : non-streaming chat completion
//   - GET  {base}/models/{model}   : model status

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ProviderGroq       = "groq"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama2-70b-4096"
)

// ChatConfig is the immutable provider configuration, injected at construction.
type ChatConfig struct {
	// Provider names the vendor for logs and metrics. Defaults to "groq".
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	// Signature optionally recognizes provider-specific warm-up messages.
	// 503 responses are transient regardless.
	Signature  LoadingSignature
	HTTPClient *http.Client
}

// ChatSubmitter implements Submitter against a chat-completions API.
type ChatSubmitter struct {
	cfg        ChatConfig
	httpClient *http.Client
}

// NewChatSubmitter creates a submitter; empty fields get the Groq defaults.
func NewChatSubmitter(cfg ChatConfig) *ChatSubmitter {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Provider == "" {
		cfg.Provider = ProviderGroq
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	return &ChatSubmitter{cfg: cfg, httpClient: newHTTPClient(cfg.HTTPClient, cfg.Timeout)}
}

// ─── internal chat JSON types ────────────────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		Text         string      `json:"text"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// ─── Submitter implementation ────────────────────────────────────────────────

// Submit performs one POST to {base}/chat/completions.
func (s *ChatSubmitter) Submit(ctx context.Context, req GenerationRequest) Outcome {
	payload, err := json.Marshal(s.buildBody(req))
	if err != nil {
		return Outcome{Kind: OutcomePermanent, Reason: "encode request", Err: err}
	}

	resp, err := doJSON(ctx, s.httpClient, http.MethodPost, s.cfg.BaseURL+"/chat/completions", s.cfg.APIKey, payload)
	if err != nil {
		return TransportFailure(err)
	}
	if !resp.ok() {
		return classifyError(resp, s.cfg.Signature)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(resp.body, &completion); err != nil || len(completion.Choices) == 0 {
		if _, _, isErr := errorMessage(resp.body); isErr {
			return classifyError(resp, s.cfg.Signature)
		}
		out := Permanent("unexpected response shape", resp.status)
		out.Body = strings.TrimSpace(string(resp.body))
		out.Err = err
		return out
	}
	choice := completion.Choices[0]
	text := choice.Message.Content
	if text == "" {
		text = choice.Text
	}
	if text == "" {
		out := Permanent("unexpected response shape", resp.status)
		out.Body = strings.TrimSpace(string(resp.body))
		return out
	}
	return Success(GeneratedText(text))
}

// Status performs one GET against {base}/models/{model}.
func (s *ChatSubmitter) Status(ctx context.Context, modelID string) Outcome {
	if modelID == "" {
		modelID = s.cfg.Model
	}
	resp, err := doJSON(ctx, s.httpClient, http.MethodGet, s.cfg.BaseURL+"/models/"+url.PathEscape(modelID), s.cfg.APIKey, nil)
	if err != nil {
		return TransportFailure(err)
	}
	if !resp.ok() {
		return classifyError(resp, s.cfg.Signature)
	}
	return Success("")
}

// ModelInfo returns static metadata for this provider/model.
func (s *ChatSubmitter) ModelInfo() ModelMeta {
	return ModelMeta{ID: s.cfg.Model, Provider: s.cfg.Provider, BaseURL: s.cfg.BaseURL}
}

// buildBody maps a GenerationRequest onto the chat-completions body.
// MaxLength becomes max_tokens; DoSample has no chat equivalent and is dropped.
func (s *ChatSubmitter) buildBody(req GenerationRequest) map[string]any {
	model := req.ModelID
	if model == "" {
		model = s.cfg.Model
	}
	msgs := make([]chatMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Input})

	body := map[string]any{
		"model":    model,
		"messages": msgs,
	}
	p := req.Parameters
	if p.MaxLength > 0 {
		body["max_tokens"] = p.MaxLength
	}
	if p.Temperature > 0 {
		body["temperature"] = p.Temperature
	}
	if p.TopP > 0 {
		body["top_p"] = p.TopP
	}
	for k, v := range p.Extra {
		if k == "model" || k == "messages" {
			continue
		}
		body[k] = v
	}
	return body
}
