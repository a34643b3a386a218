package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OutcomeKind tags a single submission result.
type OutcomeKind int

const (
	// OutcomeUnknown is the zero value; the orchestrator treats it as permanent.
	OutcomeUnknown OutcomeKind = iota
	OutcomeSuccess
	OutcomeTransient
	OutcomePermanent
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Outcome is what a Submitter reports for one attempt. It is consumed by the
// orchestrator immediately and then discarded.
type Outcome struct {
	Kind OutcomeKind
	Text GeneratedText

	Reason     string
	StatusCode int    // 0 when no HTTP response was received
	Body       string // raw provider error body, for diagnostics
	// Transport is set on permanent outcomes caused by the network layer
	// (connection refused, timeout, truncated body).
	Transport bool
	// Loading is set when the provider explicitly reported the model as warming up.
	Loading bool
	// RetryAfter is the provider's own estimate of when to try again, if any.
	RetryAfter time.Duration
	Err        error
}

// Success builds a successful outcome.
func Success(text GeneratedText) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

// Transient builds a transient-unavailable outcome.
func Transient(reason string) Outcome {
	return Outcome{Kind: OutcomeTransient, Reason: reason}
}

// Permanent builds a permanent failure; statusCode may be 0.
func Permanent(reason string, statusCode int) Outcome {
	return Outcome{Kind: OutcomePermanent, Reason: reason, StatusCode: statusCode}
}

// TransportFailure builds a permanent outcome for a network-level error.
func TransportFailure(err error) Outcome {
	return Outcome{Kind: OutcomePermanent, Reason: "transport failure", Transport: true, Err: err}
}

const (
	// ReasonBudgetExhausted is the terminal reason when every attempt was transient.
	ReasonBudgetExhausted = "attempt budget exhausted"
	// ReasonCanceled is the terminal reason when the caller's context ends the call.
	ReasonCanceled = "canceled"
)

var (
	// ErrBudgetExhausted is wrapped by failures that ran out of attempts.
	ErrBudgetExhausted = errors.New(ReasonBudgetExhausted)
	// ErrCanceled is wrapped by failures ended by the caller's context.
	ErrCanceled = errors.New(ReasonCanceled)
)

// Failure is the terminal error of an orchestrated call.
type Failure struct {
	Reason     string
	StatusCode int
	Detail     string // provider error text
	Attempts   int
	Transport  bool
	// Loading reports that the last attempt saw the model still warming up.
	Loading bool
	Err     error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString("llm: ")
	b.WriteString(f.Reason)
	if f.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", f.StatusCode)
	}
	fmt.Fprintf(&b, " after %d attempt(s)", f.Attempts)
	if f.Detail != "" {
		b.WriteString(": ")
		b.WriteString(f.Detail)
	} else if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func failureFrom(o Outcome, attempts int) *Failure {
	reason := o.Reason
	if reason == "" {
		reason = "permanent failure"
	}
	return &Failure{
		Reason:     reason,
		StatusCode: o.StatusCode,
		Detail:     o.Body,
		Attempts:   attempts,
		Transport:  o.Transport,
		Loading:    o.Loading,
		Err:        o.Err,
	}
}

// Result is the successful terminal value of an orchestrated call.
type Result struct {
	Text     GeneratedText
	Attempts int
	Elapsed  time.Duration
}

// Terminal call results, as labelled in metrics and the generation history.
const (
	ResultSuccess         = "success"
	ResultBudgetExhausted = "budget_exhausted"
	ResultCanceled        = "canceled"
	ResultPermanent       = "permanent"
)

// ResultOf classifies the error returned by Generate or Poll.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrBudgetExhausted):
		return ResultBudgetExhausted
	case errors.Is(err, ErrCanceled):
		return ResultCanceled
	default:
		return ResultPermanent
	}
}
