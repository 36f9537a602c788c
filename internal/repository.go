package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

const DefaultAuthor = "gitmem"

// Repository ties one backing store to the engine components and
// exposes the operations the services and CLI work with. Everything it
// persists is append-only except refs and the per-agent stage.
type Repository struct {
	store  Store
	trees  *TreeBuilder
	graph  *CommitGraph
	refs   *RefManager
	differ *DiffEngine
	co     *Checkout
	forker *ForkOperator
	logger *log.Logger
}

// NewRepository opens the store configured for the scope: a billy
// filesystem tree by default, or sqlite when the config says so.
func NewRepository(scope Scope) (*Repository, error) {
	if _, err := os.Stat(scope.StorePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("repository not initialized: %s", scope.StorePath)
	}

	cfg, err := LoadConfig(scope)
	if err != nil {
		return nil, err
	}

	var store Store
	switch cfg.Store.Backend {
	case StoreBackendSQLite:
		store, err = NewSQLStore(scope.DBPath())
	default:
		store, err = NewFSStore(osfs.New(scope.StorePath))
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return NewRepositoryWithStore(store), nil
}

// NewRepositoryWithStore wires the engine over an already-open store.
// Tests use this with a memfs-backed FSStore.
func NewRepositoryWithStore(store Store) *Repository {
	trees := NewTreeBuilder(store)
	graph := NewCommitGraph(store, trees)
	refs := NewRefManager(store)

	return &Repository{
		store:  store,
		trees:  trees,
		graph:  graph,
		refs:   refs,
		differ: NewDiffEngine(store, graph, trees),
		co:     NewCheckout(store, graph, trees),
		forker: NewForkOperator(refs),
		logger: log.WithPrefix("repo"),
	}
}

// InitRepository creates the on-disk layout for a scope.
func InitRepository(scope Scope) error {
	if err := os.MkdirAll(scope.StorePath, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	if err := os.MkdirAll(scope.VectorPath(), 0755); err != nil {
		return fmt.Errorf("create vectors directory: %w", err)
	}

	if _, err := NewFSStore(osfs.New(scope.StorePath)); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	return nil
}

// NewMemFS returns an in-memory filesystem suitable for tests.
func NewMemFS() billy.Filesystem {
	return memfs.New()
}

func (r *Repository) Close() error {
	return r.store.Close()
}

func (r *Repository) Objects() ObjectStore  { return r.store }
func (r *Repository) Trees() *TreeBuilder   { return r.trees }
func (r *Repository) Graph() *CommitGraph   { return r.graph }
func (r *Repository) Refs() *RefManager     { return r.refs }
func (r *Repository) Differ() *DiffEngine   { return r.differ }
func (r *Repository) Forker() *ForkOperator { return r.forker }

// PutItem stores a memory item's canonical payload and stamps its ID.
func (r *Repository) PutItem(ctx context.Context, item *MemoryItem) error {
	body, err := EncodeMemoryItem(item)
	if err != nil {
		return err
	}
	hash, err := r.store.Put(ctx, BlobObject, body)
	if err != nil {
		return fmt.Errorf("store memory: %w", err)
	}
	item.ID = hash
	return nil
}

// GetItem loads a memory item by its blob hash.
func (r *Repository) GetItem(ctx context.Context, id Hash) (*MemoryItem, error) {
	typ, body, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if typ != BlobObject {
		return nil, fmt.Errorf("%w: %s is a %s, not a blob", ErrMalformedObject, id.Short(), typ)
	}
	return DecodeMemoryItem(id, body)
}

// Stage adds an item to the agent's tree-in-progress. The stage starts
// from the current head tree when nothing has been staged yet.
func (r *Repository) Stage(ctx context.Context, item *MemoryItem) (string, error) {
	if err := r.PutItem(ctx, item); err != nil {
		return "", err
	}

	base, err := r.stageBase(ctx, item.AgentID)
	if err != nil {
		return "", err
	}

	entries := append(base, TreeEntry{Path: item.TreePath(), Hash: item.ID})
	treeHash, err := r.trees.Build(ctx, entries)
	if err != nil {
		return "", err
	}

	if err := r.store.WriteStage(ctx, item.AgentID, treeHash); err != nil {
		return "", fmt.Errorf("write stage: %w", err)
	}

	r.logger.Debug("staged memory", "agent", item.AgentID, "path", item.TreePath())
	return item.TreePath(), nil
}

func (r *Repository) stageBase(ctx context.Context, agentID string) ([]TreeEntry, error) {
	staged, err := r.store.ReadStage(ctx, agentID)
	if err == nil {
		tree, err := r.trees.Resolve(ctx, staged)
		if err != nil {
			return nil, err
		}
		return tree.Entries, nil
	}
	if !errors.Is(err, ErrNothingStaged) {
		return nil, err
	}

	head, err := r.refs.Resolve(ctx, agentID, DefaultRef)
	if errors.Is(err, ErrRefNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	commit, err := r.graph.Load(ctx, head)
	if err != nil {
		return nil, err
	}
	tree, err := r.trees.Resolve(ctx, commit.TreeHash)
	if err != nil {
		return nil, err
	}
	return tree.Entries, nil
}

// StagedDiff compares the stage against the current head tree.
func (r *Repository) StagedDiff(ctx context.Context, agentID string) (TreeDiff, error) {
	staged, err := r.store.ReadStage(ctx, agentID)
	if err != nil {
		return TreeDiff{}, err
	}

	head, err := r.refs.Resolve(ctx, agentID, DefaultRef)
	if errors.Is(err, ErrRefNotFound) {
		tree, err := r.trees.Resolve(ctx, staged)
		if err != nil {
			return TreeDiff{}, err
		}
		return diffTrees(&Tree{}, tree), nil
	}
	if err != nil {
		return TreeDiff{}, err
	}

	commit, err := r.graph.Load(ctx, head)
	if err != nil {
		return TreeDiff{}, err
	}
	return r.differ.DiffTrees(ctx, commit.TreeHash, staged)
}

// CommitStaged turns the stage into a commit on the agent's default ref
// and clears the stage. Parent resolution and the ref swing run inside
// the CAS loop, so a racing writer just means a re-parent and retry.
func (r *Repository) CommitStaged(ctx context.Context, agentID, authorID, message string) (*Commit, error) {
	treeHash, err := r.store.ReadStage(ctx, agentID)
	if err != nil {
		return nil, err
	}

	commit, err := r.commitTree(ctx, agentID, authorID, message, treeHash)
	if err != nil {
		return nil, err
	}

	if err := r.store.ClearStage(ctx, agentID); err != nil {
		return nil, fmt.Errorf("clear stage: %w", err)
	}
	return commit, nil
}

// AddMemory is the ingestion entry point: store the item, extend the
// head tree, commit, and swing the ref, all under bounded CAS retry.
func (r *Repository) AddMemory(ctx context.Context, item *MemoryItem, message string) (*Commit, error) {
	if err := r.PutItem(ctx, item); err != nil {
		return nil, err
	}

	if message == "" {
		message = fmt.Sprintf("add: %s", item.TreePath())
	}

	var created *Commit
	_, err := r.refs.Advance(ctx, item.AgentID, DefaultRef, func(head Hash) (Hash, error) {
		var entries []TreeEntry
		if !head.IsZero() {
			parent, err := r.graph.Load(ctx, head)
			if err != nil {
				return ZeroHash, err
			}
			tree, err := r.trees.Resolve(ctx, parent.TreeHash)
			if err != nil {
				return ZeroHash, err
			}
			entries = tree.Entries
		}

		entries = append(entries, TreeEntry{Path: item.TreePath(), Hash: item.ID})
		treeHash, err := r.trees.Build(ctx, entries)
		if err != nil {
			return ZeroHash, err
		}

		var parents []Hash
		if !head.IsZero() {
			parents = []Hash{head}
		}

		commit, err := r.graph.Create(ctx, treeHash, parents, item.AgentID, item.AgentID, message, time.Now())
		if err != nil {
			return ZeroHash, err
		}
		created = commit
		return commit.Hash, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("memory committed", "agent", item.AgentID, "commit", created.Hash.Short())
	return created, nil
}

func (r *Repository) commitTree(ctx context.Context, agentID, authorID, message string, treeHash Hash) (*Commit, error) {
	var created *Commit
	_, err := r.refs.Advance(ctx, agentID, DefaultRef, func(head Hash) (Hash, error) {
		var parents []Hash
		if !head.IsZero() {
			parents = []Hash{head}
		}

		commit, err := r.graph.Create(ctx, treeHash, parents, agentID, authorID, message, time.Now())
		if err != nil {
			return ZeroHash, err
		}
		created = commit
		return commit.Hash, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Head loads the commit the agent's ref currently points at.
func (r *Repository) Head(ctx context.Context, agentID, refName string) (*Commit, error) {
	hash, err := r.refs.Resolve(ctx, agentID, refName)
	if err != nil {
		return nil, err
	}
	return r.graph.Load(ctx, hash)
}

// ResolveRevision turns a user-supplied revision into a commit hash:
// a full hash is used as-is, anything else is tried as a ref name.
func (r *Repository) ResolveRevision(ctx context.Context, agentID, rev string) (Hash, error) {
	if hash, err := NewHash(rev); err == nil {
		return hash, nil
	}
	return r.refs.Resolve(ctx, agentID, rev)
}

// Log returns up to limit commits of ref history, most recent first.
func (r *Repository) Log(ctx context.Context, agentID, refName string, limit int) ([]*Commit, error) {
	head, err := r.refs.Resolve(ctx, agentID, refName)
	if err != nil {
		return nil, err
	}

	var commits []*Commit
	err = r.graph.History(ctx, head).ForEach(func(c *Commit) error {
		if limit > 0 && len(commits) >= limit {
			return ErrStop
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// CheckoutCommit materializes the memory set at a commit.
func (r *Repository) CheckoutCommit(ctx context.Context, commitHash Hash) ([]*MemoryItem, error) {
	return r.co.Materialize(ctx, commitHash)
}

// CheckoutHead materializes the current state of an agent's ref.
func (r *Repository) CheckoutHead(ctx context.Context, agentID, refName string) ([]*MemoryItem, error) {
	head, err := r.refs.Resolve(ctx, agentID, refName)
	if err != nil {
		return nil, err
	}
	return r.co.Materialize(ctx, head)
}

// RollbackTo restores the ref to target's state via a forward commit.
func (r *Repository) RollbackTo(ctx context.Context, agentID, refName string, target Hash, authorID string) (*Commit, error) {
	return r.co.Rollback(ctx, r.refs, agentID, refName, target, authorID)
}
