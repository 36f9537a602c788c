package internal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

const (
	// DefaultRef is the branch created on an agent's first commit.
	DefaultRef = "main"

	// CASRetries bounds the read-rebuild-swap loop so contention on a
	// single ref degrades into an error instead of livelock.
	CASRetries = 5
)

var refNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

func ValidRefName(name string) bool {
	return refNamePattern.MatchString(name)
}

var agentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

func ValidAgentID(id string) bool {
	return agentIDPattern.MatchString(id)
}

// RefManager validates names and delegates to the backend's RefStore.
// Update keeps the CAS contract: at most one writer wins a race to
// advance a ref from a given starting point, everyone else observes
// ErrConflict and must recompute.
type RefManager struct {
	store RefStore
}

func NewRefManager(store RefStore) *RefManager {
	return &RefManager{store: store}
}

func (m *RefManager) check(agentID, name string) error {
	if !ValidAgentID(agentID) {
		return fmt.Errorf("%w: %q", ErrInvalidAgentID, agentID)
	}
	if !ValidRefName(name) {
		return fmt.Errorf("invalid ref name %q", name)
	}
	return nil
}

func (m *RefManager) Create(ctx context.Context, agentID, name string, target Hash) error {
	if err := m.check(agentID, name); err != nil {
		return err
	}
	return m.store.CreateRef(ctx, agentID, name, target)
}

func (m *RefManager) Resolve(ctx context.Context, agentID, name string) (Hash, error) {
	if err := m.check(agentID, name); err != nil {
		return ZeroHash, err
	}
	return m.store.ResolveRef(ctx, agentID, name)
}

func (m *RefManager) Update(ctx context.Context, agentID, name string, target, expected Hash) error {
	if err := m.check(agentID, name); err != nil {
		return err
	}
	return m.store.UpdateRef(ctx, agentID, name, target, expected)
}

// Delete removes only the pointer. The commit chain it referenced stays
// in the store, reachable from other refs or orphaned for later
// collection.
func (m *RefManager) Delete(ctx context.Context, agentID, name string) error {
	if err := m.check(agentID, name); err != nil {
		return err
	}
	return m.store.DeleteRef(ctx, agentID, name)
}

func (m *RefManager) List(ctx context.Context, agentID string) ([]Ref, error) {
	if !ValidAgentID(agentID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAgentID, agentID)
	}
	return m.store.ListRefs(ctx, agentID)
}

// Advance moves a ref forward with the optimistic read-build-swap loop.
// build receives the current target (ZeroHash when the ref does not
// exist yet) and returns the commit the ref should point at; on
// ErrConflict the loop re-reads and rebuilds, bounded by CASRetries.
func (m *RefManager) Advance(ctx context.Context, agentID, name string, build func(current Hash) (Hash, error)) (Hash, error) {
	if err := m.check(agentID, name); err != nil {
		return ZeroHash, err
	}

	var lastErr error
	for attempt := 0; attempt < CASRetries; attempt++ {
		current, err := m.store.ResolveRef(ctx, agentID, name)
		if err != nil && !errors.Is(err, ErrRefNotFound) {
			return ZeroHash, err
		}

		next, err := build(current)
		if err != nil {
			return ZeroHash, err
		}

		if current.IsZero() {
			err = m.store.CreateRef(ctx, agentID, name, next)
			// Losing a creation race is the same situation as losing a
			// CAS: re-read and rebuild on top of the winner.
			if errors.Is(err, ErrRefExists) {
				lastErr = err
				continue
			}
		} else {
			err = m.store.UpdateRef(ctx, agentID, name, next, current)
			if errors.Is(err, ErrConflict) {
				lastErr = err
				continue
			}
		}
		if err != nil {
			return ZeroHash, err
		}
		return next, nil
	}

	return ZeroHash, fmt.Errorf("advance %s/%s: retries exhausted: %w", agentID, name, lastErr)
}
