package v1

import "github.com/gitmem/gitmem/internal"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	scope    string
	agent    string
	store    internal.Store
	embedder internal.Embedder
}

// WithScope forces a specific scope (global or project).
func WithScope(scope string) Option {
	return func(c *clientConfig) {
		c.scope = scope
	}
}

// WithAgent sets the agent whose timeline the client operates on.
func WithAgent(agentID string) Option {
	return func(c *clientConfig) {
		c.agent = agentID
	}
}

// WithStore uses the given store instead of opening one from the
// resolved scope. Useful with an in-memory store in tests.
func WithStore(store internal.Store) Option {
	return func(c *clientConfig) {
		c.store = store
	}
}

// WithEmbedder enables semantic indexing and search.
func WithEmbedder(embedder internal.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = embedder
	}
}
