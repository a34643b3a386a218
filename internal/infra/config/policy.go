package config

import (
	"fmt"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

// RetryPolicy builds the request-path policy. Only provider-reported
// transient outcomes are retried unless Transport or ServerErrors widen it.
func (c Config) RetryPolicy() llm.RetryPolicy {
	preds := []llm.TransientPredicate{llm.IsTransient}
	if c.Retry.Transport {
		preds = append(preds, llm.TransportFailures)
	}
	if c.Retry.ServerErrors {
		preds = append(preds, llm.ServerErrors)
	}
	return llm.RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		Delay:           c.Retry.Delay,
		WarmupDelay:     c.Retry.WarmupDelay,
		AttemptTimeout:  c.Retry.AttemptTimeout,
		HonorRetryAfter: c.Retry.HonorRetryAfter,
		MaxDelay:        c.Retry.MaxDelay,
		Transient:       llm.AnyOf(preds...),
	}
}

// WarmupPolicy builds the startup status-poll policy. Transport failures are
// always retried here: the provider may simply not be reachable yet.
func (c Config) WarmupPolicy() llm.RetryPolicy {
	p := llm.WarmupPolicy()
	p.MaxAttempts = c.Warmup.MaxAttempts
	p.Delay = c.Warmup.Delay
	p.WarmupDelay = c.Warmup.Delay
	p.Transient = llm.AnyOf(llm.IsTransient, llm.TransportFailures)
	return p
}

// Signature returns the loading signature for the selected provider, extended
// with LoadingPatterns. A nil signature means the submitter default applies.
func (c Config) Signature() (llm.LoadingSignature, error) {
	patterns := append([]string(nil), c.LoadingPatterns...)
	if c.LLMProvider == llm.ProviderHuggingFace && len(patterns) > 0 {
		patterns = append(patterns, llm.HuggingFaceLoadingPattern)
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	sig, err := llm.MatchPatterns(patterns...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return sig, nil
}

// Submitter builds the Submitter for the selected provider.
func (c Config) Submitter() (llm.Submitter, error) {
	sig, err := c.Signature()
	if err != nil {
		return nil, err
	}
	router := llm.NewRouter(map[string]llm.Submitter{
		llm.ProviderHuggingFace: llm.NewHuggingFaceSubmitter(llm.HuggingFaceConfig{
			APIKey:    c.HuggingFace.APIKey,
			BaseURL:   c.HuggingFace.BaseURL,
			Model:     c.HuggingFace.Model,
			Timeout:   c.Retry.AttemptTimeout,
			Signature: sig,
		}),
		llm.ProviderGroq: llm.NewChatSubmitter(llm.ChatConfig{
			Provider:  llm.ProviderGroq,
			APIKey:    c.Groq.APIKey,
			BaseURL:   c.Groq.BaseURL,
			Model:     c.Groq.Model,
			Timeout:   c.Retry.AttemptTimeout,
			Signature: sig,
		}),
	}, c.LLMProvider)
	return router.Route()
}
