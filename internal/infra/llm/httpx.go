package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	mimeJSON            = "application/json"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	headerRetryAfter    = "Retry-After"

	defaultHTTPTimeout = 60 * time.Second
	// maxResponseSize limits the provider response body to prevent memory exhaustion.
	maxResponseSize = 10 * 1024 * 1024
)

// rawResponse is an HTTP response fully read into memory.
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// doJSON sends one request with bearer auth and reads the whole body.
// A non-nil error always means a transport-level failure.
func doJSON(ctx context.Context, client *http.Client, method, url, apiKey string, payload []byte) (rawResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return rawResponse{}, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set(headerContentType, mimeJSON)
	}
	if apiKey != "" {
		req.Header.Set(headerAuthorization, "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return rawResponse{}, fmt.Errorf("%s %s: %w", method, redactURL(url), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return rawResponse{}, fmt.Errorf("%s %s: read body: %w", method, redactURL(url), err)
	}
	return rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (r rawResponse) ok() bool { return r.status >= 200 && r.status < 300 }

// redactURL strips the query string, which some gateways use for keys.
func redactURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// providerError is the common shape of provider error bodies:
//
//	{"error": "Model X is currently loading", "estimated_time": 20.5}
//	{"error": ["..."]}
//	{"error": {"message": "...", "type": "..."}}
type providerError struct {
	Error         json.RawMessage `json:"error"`
	EstimatedTime float64         `json:"estimated_time"`
}

// errorMessage extracts a human-readable message and the provider's
// estimated wait from an error body. ok is false when the body carries no
// error object at all.
func errorMessage(body []byte) (msg string, wait time.Duration, ok bool) {
	var pe providerError
	if err := json.Unmarshal(body, &pe); err != nil || len(pe.Error) == 0 {
		return "", 0, false
	}
	if pe.EstimatedTime > 0 {
		wait = time.Duration(pe.EstimatedTime * float64(time.Second))
	}

	var s string
	if json.Unmarshal(pe.Error, &s) == nil {
		return strings.TrimSpace(s), wait, true
	}
	var list []string
	if json.Unmarshal(pe.Error, &list) == nil {
		return strings.TrimSpace(strings.Join(list, "; ")), wait, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(pe.Error, &obj) == nil && obj.Message != "" {
		return strings.TrimSpace(obj.Message), wait, true
	}
	return strings.TrimSpace(string(pe.Error)), wait, true
}

// classifyError turns a non-2xx (or error-bearing) response into an outcome.
// 503 and bodies matching the loading signature are transient; everything else
// is permanent and keeps the raw body for diagnostics.
func classifyError(r rawResponse, sig LoadingSignature) Outcome {
	msg, wait, _ := errorMessage(r.body)
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	if msg == "" {
		msg = fmt.Sprintf("http %d", r.status)
	}
	if ra, ok := parseRetryAfter(r.header.Get(headerRetryAfter)); ok && wait == 0 {
		wait = ra
	}

	loading := sig != nil && sig(msg)
	body := strings.TrimSpace(string(r.body))
	if loading || r.status == http.StatusServiceUnavailable {
		return Outcome{
			Kind:       OutcomeTransient,
			Reason:     msg,
			StatusCode: r.status,
			Body:       body,
			Loading:    loading,
			RetryAfter: wait,
		}
	}
	return Outcome{
		Kind:       OutcomePermanent,
		Reason:     msg,
		StatusCode: r.status,
		Body:       body,
		RetryAfter: wait,
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}
