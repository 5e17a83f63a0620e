// Package identity resolves caller tokens into a user/team identity. The
// resolver is consumed exactly once per turn and is never cached beyond it.
package identity

import (
	"context"
	"sync"

	"github.com/hupe1980/teambrain/core"
)

// Resolver turns an opaque bearer token into a resolved identity. A failed
// resolution yields *core.AuthError; the turn aborts before any model call.
type Resolver interface {
	Resolve(ctx context.Context, token string) (core.Identity, error)
}

// StaticResolver maps known tokens to identities. Intended for tests and
// local development.
type StaticResolver struct {
	mu     sync.RWMutex
	tokens map[string]core.Identity
}

// NewStaticResolver constructs an empty static resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{tokens: make(map[string]core.Identity)}
}

// Add registers a token with its resolved identity.
func (r *StaticResolver) Add(token string, id core.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = id
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, token string) (core.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.tokens[token]
	if !ok {
		return core.Identity{}, core.NewAuthError("unknown token")
	}
	return id, nil
}
