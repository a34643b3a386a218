package llm

import (
	"fmt"
	"sort"
)

// Router holds the submitters this process knows how to build and resolves the
// configured one at startup. It is not a fallback chain: exactly one provider
// serves every request.
type Router struct {
	providers       map[string]Submitter
	defaultProvider string
}

// NewRouter creates a Router with an initial set of submitters and a default key.
func NewRouter(providers map[string]Submitter, defaultProvider string) *Router {
	ps := make(map[string]Submitter, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Route returns the default submitter.
// Returns an error if the default provider is not registered.
func (r *Router) Route() (Submitter, error) {
	s, ok := r.providers[r.defaultProvider]
	if !ok || s == nil {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", r.defaultProvider, r.keys())
	}
	return s, nil
}

// keys returns the registered provider names, sorted (for error messages).
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
