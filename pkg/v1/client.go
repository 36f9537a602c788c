package v1

import (
	"context"
	"fmt"

	"github.com/gitmem/gitmem/internal"
)

// Client provides programmatic access to the memory store.
type Client struct {
	memory   *internal.MemoryService
	history  *internal.HistoryService
	branches *internal.BranchService
	search   *internal.SearchService
	scope    string
	agent    string
	store    internal.Store
}

// AddOptions carries the optional attributes of a new memory.
type AddOptions struct {
	Type       string
	Tags       []string
	Importance float64
	Message    string
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	resolver := internal.NewScopeResolver()

	var repoFor func(internal.Scope) (*internal.Repository, error)
	if cfg.store != nil {
		repo := internal.NewRepositoryWithStore(cfg.store)
		repoFor = func(internal.Scope) (*internal.Repository, error) {
			return repo, nil
		}
	} else {
		repoFor = func(scope internal.Scope) (*internal.Repository, error) {
			return internal.NewRepository(scope)
		}
	}

	indexFor := func(scope internal.Scope) (*internal.AnnoyIndex, error) {
		if cfg.embedder == nil {
			return nil, internal.ErrNoIndex
		}
		return internal.NewAnnoyIndex(scope.VectorPath(), cfg.embedder.Dimension())
	}

	return &Client{
		memory:   internal.NewMemoryService(resolver, repoFor, indexFor, cfg.embedder),
		history:  internal.NewHistoryService(resolver, repoFor),
		branches: internal.NewBranchService(resolver, repoFor),
		search:   internal.NewSearchService(resolver, repoFor, indexFor, cfg.embedder),
		scope:    cfg.scope,
		agent:    cfg.agent,
		store:    cfg.store,
	}, nil
}

// Add records a new memory and commits it to the agent's timeline.
func (c *Client) Add(ctx context.Context, content string, opts AddOptions) (Memory, Commit, error) {
	item, commit, err := c.memory.Add(ctx, content, c.agent, c.scope, internal.AddOptions{
		Type:       internal.MemoryType(opts.Type),
		Tags:       opts.Tags,
		Importance: opts.Importance,
		Message:    opts.Message,
	})
	if err != nil {
		return Memory{}, Commit{}, fmt.Errorf("add: %w", err)
	}
	return toMemory(item), toCommit(commit), nil
}

// Get retrieves a memory by blob hash or by tree path at head.
func (c *Client) Get(ctx context.Context, id string) (Memory, error) {
	item, err := c.memory.Get(ctx, id, c.agent, "", c.scope)
	if err != nil {
		return Memory{}, err
	}
	return toMemory(item), nil
}

// List returns all memories at a revision. An empty revision means the
// head of main.
func (c *Client) List(ctx context.Context, rev string) ([]Memory, error) {
	items, err := c.memory.List(ctx, c.agent, rev, c.scope)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	memories := make([]Memory, 0, len(items))
	for _, item := range items {
		memories = append(memories, toMemory(item))
	}
	return memories, nil
}

// Log walks the commit history, newest first.
func (c *Client) Log(ctx context.Context, limit int) ([]Commit, error) {
	commits, err := c.history.Log(ctx, c.agent, "", limit, c.scope)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	out := make([]Commit, 0, len(commits))
	for _, commit := range commits {
		out = append(out, toCommit(commit))
	}
	return out, nil
}

// Diff renders the change set between two revisions.
func (c *Client) Diff(ctx context.Context, revA, revB string) (string, error) {
	return c.history.Diff(ctx, c.agent, revA, revB, c.scope)
}

// Checkout materializes the memory state at a revision.
func (c *Client) Checkout(ctx context.Context, rev string) ([]Memory, error) {
	items, err := c.history.Checkout(ctx, c.agent, rev, c.scope)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	memories := make([]Memory, 0, len(items))
	for _, item := range items {
		memories = append(memories, toMemory(item))
	}
	return memories, nil
}

// Rollback restores a past snapshot as a new commit.
func (c *Client) Rollback(ctx context.Context, rev string) (Commit, error) {
	commit, err := c.history.Rollback(ctx, c.agent, "", rev, c.scope)
	if err != nil {
		return Commit{}, fmt.Errorf("rollback: %w", err)
	}
	return toCommit(commit), nil
}

// Fork creates a new ref at the current head of main.
func (c *Client) Fork(ctx context.Context, name string) (Ref, error) {
	ref, err := c.branches.Fork(ctx, c.agent, "", name, c.scope)
	if err != nil {
		return Ref{}, fmt.Errorf("fork: %w", err)
	}
	return toRef(ref), nil
}

// Refs lists the refs in the agent's namespace.
func (c *Client) Refs(ctx context.Context) ([]Ref, error) {
	refs, err := c.branches.List(ctx, c.agent, c.scope)
	if err != nil {
		return nil, fmt.Errorf("refs: %w", err)
	}

	out := make([]Ref, 0, len(refs))
	for _, ref := range refs {
		out = append(out, toRef(ref))
	}
	return out, nil
}

// Search finds memories by keyword at the head of main.
func (c *Client) Search(ctx context.Context, query string) ([]Memory, error) {
	items, err := c.search.Keyword(ctx, query, c.agent, "", c.scope)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	memories := make([]Memory, 0, len(items))
	for _, item := range items {
		memories = append(memories, toMemory(item))
	}
	return memories, nil
}

// SearchSemantic finds the k memories closest to the query vector.
func (c *Client) SearchSemantic(ctx context.Context, query string, k int) ([]SearchResult, error) {
	hits, err := c.search.Semantic(ctx, query, k, c.scope)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	out := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		out = append(out, SearchResult{
			Path:  hit.Path,
			ID:    hit.Item.String(),
			Score: hit.Score,
		})
	}
	return out, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

func toMemory(item *internal.MemoryItem) Memory {
	return Memory{
		ID:         item.ID.String(),
		Path:       item.TreePath(),
		Content:    item.Content,
		Type:       string(item.Type),
		AgentID:    item.AgentID,
		Tags:       item.Tags,
		Importance: item.Importance,
		CreatedAt:  item.CreatedAt,
	}
}

func toCommit(commit *internal.Commit) Commit {
	parents := make([]string, 0, len(commit.Parents))
	for _, p := range commit.Parents {
		parents = append(parents, p.String())
	}

	return Commit{
		Hash:      commit.Hash.String(),
		Parents:   parents,
		AgentID:   commit.AgentID,
		Message:   commit.Message,
		Timestamp: commit.Timestamp,
		Added:     commit.Stats.Added,
		Removed:   commit.Stats.Removed,
		Modified:  commit.Stats.Modified,
	}
}

func toRef(ref internal.Ref) Ref {
	return Ref{
		AgentID: ref.AgentID,
		Name:    ref.Name,
		Target:  ref.Target.String(),
	}
}
