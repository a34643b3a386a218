// HuggingFace inference API adapter.
// Endpoints used:
//   - POST {base}/{model} : text generation
//   - GET  {base}/{model} : model status (no body, no generation side effects)

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderHuggingFace       = "huggingface"
	DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co/models"
	DefaultHuggingFaceModel   = "google/flan-t5-base"
)

// HuggingFaceConfig is the immutable provider configuration, injected at construction.
type HuggingFaceConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Signature recognizes the warm-up message. Nil uses DefaultHuggingFaceSignature.
	Signature  LoadingSignature
	HTTPClient *http.Client
}

// HuggingFaceSubmitter implements Submitter against the HF inference API.
type HuggingFaceSubmitter struct {
	cfg        HuggingFaceConfig
	httpClient *http.Client
}

// NewHuggingFaceSubmitter creates a submitter; empty fields get the public defaults.
func NewHuggingFaceSubmitter(cfg HuggingFaceConfig) *HuggingFaceSubmitter {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHuggingFaceBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultHuggingFaceModel
	}
	if cfg.Signature == nil {
		cfg.Signature = DefaultHuggingFaceSignature
	}
	return &HuggingFaceSubmitter{cfg: cfg, httpClient: newHTTPClient(cfg.HTTPClient, cfg.Timeout)}
}

// ─── internal HF JSON types ──────────────────────────────────────────────────

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type hfGeneration struct {
	GeneratedText *string `json:"generated_text"`
	SummaryText   *string `json:"summary_text"`
}

func (g hfGeneration) text() (string, bool) {
	if g.GeneratedText != nil {
		return *g.GeneratedText, true
	}
	if g.SummaryText != nil {
		return *g.SummaryText, true
	}
	return "", false
}

// ─── Submitter implementation ────────────────────────────────────────────────

// Submit performs one POST to {base}/{model}.
func (s *HuggingFaceSubmitter) Submit(ctx context.Context, req GenerationRequest) Outcome {
	payload, err := json.Marshal(hfRequest{
		Inputs:     req.Input,
		Parameters: hfParameters(req.Parameters),
	})
	if err != nil {
		return Outcome{Kind: OutcomePermanent, Reason: "encode request", Err: err}
	}

	resp, err := doJSON(ctx, s.httpClient, http.MethodPost, s.modelURL(req.ModelID), s.cfg.APIKey, payload)
	if err != nil {
		return TransportFailure(err)
	}
	if !resp.ok() {
		return classifyError(resp, s.cfg.Signature)
	}
	text, ok := decodeHFGeneration(resp.body)
	if !ok {
		if _, _, isErr := errorMessage(resp.body); isErr {
			return classifyError(resp, s.cfg.Signature)
		}
		out := Permanent("unexpected response shape", resp.status)
		out.Body = strings.TrimSpace(string(resp.body))
		return out
	}
	return Success(GeneratedText(text))
}

// Status performs one GET against {base}/{model}.
func (s *HuggingFaceSubmitter) Status(ctx context.Context, modelID string) Outcome {
	resp, err := doJSON(ctx, s.httpClient, http.MethodGet, s.modelURL(modelID), s.cfg.APIKey, nil)
	if err != nil {
		return TransportFailure(err)
	}
	if !resp.ok() {
		return classifyError(resp, s.cfg.Signature)
	}
	if _, _, isErr := errorMessage(resp.body); isErr {
		return classifyError(resp, s.cfg.Signature)
	}
	return Success("")
}

// ModelInfo returns static metadata for this provider/model.
func (s *HuggingFaceSubmitter) ModelInfo() ModelMeta {
	return ModelMeta{ID: s.cfg.Model, Provider: ProviderHuggingFace, BaseURL: s.cfg.BaseURL}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (s *HuggingFaceSubmitter) modelURL(modelID string) string {
	if modelID == "" {
		modelID = s.cfg.Model
	}
	return s.cfg.BaseURL + "/" + strings.TrimLeft(modelID, "/")
}

// hfParameters converts Parameters into the HF "parameters" object.
func hfParameters(p Parameters) map[string]any {
	out := map[string]any{"do_sample": p.DoSample}
	if p.MaxLength > 0 {
		out["max_length"] = p.MaxLength
	}
	if p.Temperature > 0 {
		out["temperature"] = p.Temperature
	}
	if p.TopP > 0 {
		out["top_p"] = p.TopP
	}
	for k, v := range p.Extra {
		out[k] = v
	}
	return out
}

// decodeHFGeneration accepts both `[{"generated_text": ...}]` and `{"generated_text": ...}`.
func decodeHFGeneration(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}
	if trimmed[0] == '[' {
		var list []hfGeneration
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 {
			return "", false
		}
		return list[0].text()
	}
	var single hfGeneration
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return "", false
	}
	return single.text()
}
