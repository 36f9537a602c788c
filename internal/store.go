package internal

import "context"

// ObjectStore is the content-addressable half of the persistence layer.
// Put is idempotent: storing identical bytes twice returns the same hash
// and performs no duplicate write. Objects are never updated or deleted;
// garbage collection of unreachable objects is a separate concern.
type ObjectStore interface {
	Put(ctx context.Context, typ ObjectType, body []byte) (Hash, error)
	Get(ctx context.Context, hash Hash) (ObjectType, []byte, error)
	Has(ctx context.Context, hash Hash) (bool, error)
}

// Ref is a mutable named pointer into the commit graph, namespaced per
// agent so one agent's branch operations cannot collide with another's.
type Ref struct {
	AgentID string
	Name    string
	Target  Hash
}

// RefStore persists refs. Update is a compare-and-swap: it succeeds only
// when the ref's current target equals expected, otherwise it returns
// ErrConflict and changes nothing. This CAS is the sole concurrency
// control primitive in the engine.
type RefStore interface {
	CreateRef(ctx context.Context, agentID, name string, target Hash) error
	ResolveRef(ctx context.Context, agentID, name string) (Hash, error)
	UpdateRef(ctx context.Context, agentID, name string, target, expected Hash) error
	DeleteRef(ctx context.Context, agentID, name string) error
	ListRefs(ctx context.Context, agentID string) ([]Ref, error)
}

// StageStore holds the per-agent tree-in-progress between add and
// commit. The stage is single-writer by convention (it is the CLI's
// working index), so no CAS is required here.
type StageStore interface {
	ReadStage(ctx context.Context, agentID string) (Hash, error)
	WriteStage(ctx context.Context, agentID string, tree Hash) error
	ClearStage(ctx context.Context, agentID string) error
}

// Store is the full persistence contract a backend must satisfy.
type Store interface {
	ObjectStore
	RefStore
	StageStore
	Close() error
}
