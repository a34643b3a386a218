// Package ctxkeys holds the typed context keys shared by the API middleware
// and handlers. It is a leaf package so neither side imports the other.
package ctxkeys

import "context"

// Key is the named type for all API context keys.
// context.Value compares type and value, so string keys from other packages
// never collide with these.
type Key string

const (
	// ClientID is the authenticated API client, injected by AuthMiddleware
	// from the JWT subject.
	ClientID Key = "client_id"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String reads a string value stored under key.
func String(ctx context.Context, key Key) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
