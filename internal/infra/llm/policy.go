package llm

import (
	"fmt"
	"regexp"
	"time"
)

// LoadingSignature reports whether a provider error message means the remote
// model is still warming up. Each submitter carries its own signature so
// providers can be swapped without touching the retry loop.
type LoadingSignature func(message string) bool

// MatchPatterns compiles case-insensitive regular expressions into a signature.
func MatchPatterns(patterns ...string) (LoadingSignature, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("loading signature %q: %w", p, err)
		}
		res = append(res, re)
	}
	return func(message string) bool {
		for _, re := range res {
			if re.MatchString(message) {
				return true
			}
		}
		return false
	}, nil
}

// HuggingFaceLoadingPattern matches "Model mistralai/Mistral-7B-Instruct-v0.1 is currently loading".
const HuggingFaceLoadingPattern = `\bmodel\b.*\bis currently loading\b`

// DefaultHuggingFaceSignature matches the HF inference API warm-up message for any model.
var DefaultHuggingFaceSignature = mustMatchPatterns(HuggingFaceLoadingPattern)

func mustMatchPatterns(patterns ...string) LoadingSignature {
	sig, err := MatchPatterns(patterns...)
	if err != nil {
		panic(err)
	}
	return sig
}

// TransientPredicate decides whether an outcome may succeed if retried.
type TransientPredicate func(Outcome) bool

// IsTransient is the default predicate: only outcomes the submitter already
// classified as transient-unavailable are retried.
func IsTransient(o Outcome) bool { return o.Kind == OutcomeTransient }

// TransportFailures retries network-level failures (refused, timeout).
func TransportFailures(o Outcome) bool { return o.Kind == OutcomePermanent && o.Transport }

// ServerErrors retries any 5xx response.
func ServerErrors(o Outcome) bool {
	return o.Kind == OutcomePermanent && o.StatusCode >= 500 && o.StatusCode <= 599
}

// AnyOf combines predicates; an outcome is transient if any of them says so.
func AnyOf(preds ...TransientPredicate) TransientPredicate {
	return func(o Outcome) bool {
		for _, p := range preds {
			if p != nil && p(o) {
				return true
			}
		}
		return false
	}
}

// RetryPolicy is supplied per orchestrated call and is never mutated during it.
type RetryPolicy struct {
	// MaxAttempts bounds the number of submissions (values < 1 mean 1).
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// WarmupDelay replaces Delay while the provider reports the model as loading.
	// Zero falls back to Delay.
	WarmupDelay time.Duration
	// AttemptTimeout bounds each individual network call. Zero means no extra deadline.
	AttemptTimeout time.Duration
	// HonorRetryAfter uses the provider's own estimate when present, capped at MaxDelay.
	HonorRetryAfter bool
	MaxDelay        time.Duration
	// Transient decides retryability. Nil means IsTransient.
	Transient TransientPredicate
}

// DefaultPolicy is the request-path policy: three
// attempts, 20s while the model loads, 5s after other retryable errors.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		Delay:           5 * time.Second,
		WarmupDelay:     20 * time.Second,
		AttemptTimeout:  60 * time.Second,
		HonorRetryAfter: false,
		MaxDelay:        60 * time.Second,
		Transient:       IsTransient,
	}
}

// WarmupPolicy is used by the startup status poller: a longer interval and a
// larger budget, since it only reports readiness.
func WarmupPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    10,
		Delay:          30 * time.Second,
		WarmupDelay:    30 * time.Second,
		AttemptTimeout: 30 * time.Second,
		MaxDelay:       2 * time.Minute,
		Transient:      IsTransient,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) retryable(o Outcome) bool {
	if o.Kind == OutcomeSuccess {
		return false
	}
	if p.Transient == nil {
		return IsTransient(o)
	}
	return p.Transient(o)
}

// delayFor picks the wait before the next attempt after outcome o.
func (p RetryPolicy) delayFor(o Outcome) time.Duration {
	d := p.Delay
	if o.Loading && p.WarmupDelay > 0 {
		d = p.WarmupDelay
	}
	if p.HonorRetryAfter && o.RetryAfter > 0 {
		d = o.RetryAfter
		if p.MaxDelay > 0 && d > p.MaxDelay {
			d = p.MaxDelay
		}
	}
	if d < 0 {
		return 0
	}
	return d
}
