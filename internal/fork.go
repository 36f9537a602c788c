package internal

import (
	"context"
	"errors"
	"fmt"
)

// ForkOperator creates branches by pointing a new ref at an existing
// commit. Commits, trees, and blobs are shared by reference, never
// copied, so a fork costs the same regardless of history size.
type ForkOperator struct {
	refs *RefManager
}

func NewForkOperator(refs *RefManager) *ForkOperator {
	return &ForkOperator{refs: refs}
}

// Fork resolves the source ref and creates newRefName at the same
// commit within the same agent namespace. Returns ErrConflict when the
// name is already taken.
func (f *ForkOperator) Fork(ctx context.Context, agentID, sourceRefName, newRefName string) (Ref, error) {
	target, err := f.refs.Resolve(ctx, agentID, sourceRefName)
	if err != nil {
		return Ref{}, fmt.Errorf("resolve source ref: %w", err)
	}

	if err := f.refs.Create(ctx, agentID, newRefName, target); err != nil {
		if errors.Is(err, ErrRefExists) {
			return Ref{}, fmt.Errorf("%w: ref %s/%s already exists", ErrConflict, agentID, newRefName)
		}
		return Ref{}, err
	}

	return Ref{AgentID: agentID, Name: newRefName, Target: target}, nil
}

// ForkAgent points another agent's default ref at the source agent's
// current head, sharing the entire history by reference.
func (f *ForkOperator) ForkAgent(ctx context.Context, sourceAgentID, sourceRefName, targetAgentID string) (Ref, error) {
	target, err := f.refs.Resolve(ctx, sourceAgentID, sourceRefName)
	if err != nil {
		return Ref{}, fmt.Errorf("resolve source ref: %w", err)
	}

	if err := f.refs.Create(ctx, targetAgentID, DefaultRef, target); err != nil {
		if errors.Is(err, ErrRefExists) {
			return Ref{}, fmt.Errorf("%w: agent %s already has %s", ErrConflict, targetAgentID, DefaultRef)
		}
		return Ref{}, err
	}

	return Ref{AgentID: targetAgentID, Name: DefaultRef, Target: target}, nil
}
