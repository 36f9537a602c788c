package internal

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Checkout reconstructs the live working set of memory items as of a
// commit. It is side-effect-free: no ref moves, so it serves both
// read-only historical inspection and the mutating rollback path.
type Checkout struct {
	store ObjectStore
	graph *CommitGraph
	trees *TreeBuilder
}

func NewCheckout(store ObjectStore, graph *CommitGraph, trees *TreeBuilder) *Checkout {
	return &Checkout{store: store, graph: graph, trees: trees}
}

// Materialize answers "what did the agent know at this commit": it
// resolves the commit's tree and loads every entry's blob into a fully
// decoded memory set, ordered by tree path.
func (c *Checkout) Materialize(ctx context.Context, commitHash Hash) ([]*MemoryItem, error) {
	commit, err := c.graph.Load(ctx, commitHash)
	if err != nil {
		return nil, err
	}

	tree, err := c.trees.Resolve(ctx, commit.TreeHash)
	if err != nil {
		return nil, err
	}

	items := make([]*MemoryItem, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		item, err := c.loadItem(ctx, entry.Hash)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.Path, err)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].TreePath() < items[j].TreePath()
	})
	return items, nil
}

func (c *Checkout) loadItem(ctx context.Context, blobHash Hash) (*MemoryItem, error) {
	typ, body, err := c.store.Get(ctx, blobHash)
	if err != nil {
		return nil, err
	}
	if typ != BlobObject {
		return nil, fmt.Errorf("%w: %s is a %s, not a blob", ErrMalformedObject, blobHash.Short(), typ)
	}
	return DecodeMemoryItem(blobHash, body)
}

// Rollback restores a ref to an earlier commit's state by moving
// forward: it creates a brand-new commit whose tree matches the target,
// parented on the current head. History is never rewritten, so every
// commit that existed before the rollback stays reachable.
func (c *Checkout) Rollback(ctx context.Context, refs *RefManager, agentID, refName string, target Hash, authorID string) (*Commit, error) {
	targetCommit, err := c.graph.Load(ctx, target)
	if err != nil {
		return nil, err
	}

	var rolled *Commit
	_, err = refs.Advance(ctx, agentID, refName, func(head Hash) (Hash, error) {
		if head.IsZero() {
			return ZeroHash, fmt.Errorf("rollback %s/%s: %w", agentID, refName, ErrRefNotFound)
		}

		message := fmt.Sprintf("rollback: restore %s", target.Short())
		commit, err := c.graph.Create(ctx, targetCommit.TreeHash, []Hash{head}, agentID, authorID, message, time.Now())
		if err != nil {
			return ZeroHash, err
		}
		rolled = commit
		return commit.Hash, nil
	})
	if err != nil {
		return nil, err
	}

	return rolled, nil
}
