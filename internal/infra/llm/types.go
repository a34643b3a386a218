// Package llm holds the inference request orchestrator: single-shot submitters
// that talk to a remote model endpoint, and the retry loop that drives them.
// All types here are shared between the submitters, the orchestrator, and callers.
package llm

import "maps"

// GeneratedText is the provider's text content, passed through unmodified.
type GeneratedText string

// Parameters are the generation knobs sent with a request.
// Zero values are omitted from the wire body, except DoSample which is always sent
// to text-generation providers.
type Parameters struct {
	MaxLength   int
	Temperature float64
	TopP        float64
	DoSample    bool
	// Extra carries provider-specific options (stop, repetition_penalty,
	// num_return_sequences, return_full_text, ...). Merged last into the body.
	Extra map[string]any
}

// Merge returns a copy of p with every non-zero field of override applied.
// Extra maps are merged key by key; neither input is modified.
func (p Parameters) Merge(override Parameters) Parameters {
	out := p
	if override.MaxLength != 0 {
		out.MaxLength = override.MaxLength
	}
	if override.Temperature != 0 {
		out.Temperature = override.Temperature
	}
	if override.TopP != 0 {
		out.TopP = override.TopP
	}
	if override.DoSample {
		out.DoSample = true
	}
	if len(p.Extra) > 0 || len(override.Extra) > 0 {
		out.Extra = make(map[string]any, len(p.Extra)+len(override.Extra))
		maps.Copy(out.Extra, p.Extra)
		maps.Copy(out.Extra, override.Extra)
	}
	return out
}

// GenerationRequest is created once per inbound request and never mutated.
type GenerationRequest struct {
	// ModelID overrides the submitter's configured model when non-empty.
	ModelID string
	// Input is the rendered prompt.
	Input string
	// System is an optional instruction. Chat-style providers send it as a
	// system message; text-generation providers ignore it.
	System     string
	Parameters Parameters
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID       string // e.g. "google/flan-t5-base", "llama2-70b-4096"
	Provider string // e.g. "huggingface", "groq"
	BaseURL  string
}
