package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

func agentFor(scope Scope, explicit string) string {
	if explicit != "" {
		return explicit
	}
	cfg, err := LoadConfig(scope)
	if err != nil || cfg.AgentID == "" {
		return "default"
	}
	return cfg.AgentID
}

// MemoryService handles memory ingestion and retrieval.
type MemoryService struct {
	resolver *ScopeResolver
	repoFor  func(Scope) (*Repository, error)
	indexFor func(Scope) (*AnnoyIndex, error)
	embedder Embedder
}

func NewMemoryService(
	resolver *ScopeResolver,
	repoFor func(Scope) (*Repository, error),
	indexFor func(Scope) (*AnnoyIndex, error),
	embedder Embedder,
) *MemoryService {
	return &MemoryService{
		resolver: resolver,
		repoFor:  repoFor,
		indexFor: indexFor,
		embedder: embedder,
	}
}

// AddOptions carries the optional attributes of a new memory.
type AddOptions struct {
	Type       MemoryType
	Scope      MemoryScope
	Importance float64
	Tags       []string
	Message    string
	Stage      bool
}

func (s *MemoryService) Add(ctx context.Context, content, agentID, scopeHint string, opts AddOptions) (*MemoryItem, *Commit, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)

	typ := opts.Type
	if typ == "" {
		typ = MemoryEpisodic
	}

	item := NewMemoryItem(agentID, content, typ)
	if opts.Scope != "" {
		item.Scope = opts.Scope
	}
	if opts.Importance > 0 {
		item.Importance = opts.Importance
	}
	item.Tags = opts.Tags

	if opts.Stage {
		if _, err := repo.Stage(ctx, item); err != nil {
			return nil, nil, fmt.Errorf("stage memory: %w", err)
		}
		s.indexItem(ctx, scope, item)
		return item, nil, nil
	}

	commit, err := repo.AddMemory(ctx, item, opts.Message)
	if err != nil {
		return nil, nil, fmt.Errorf("add memory: %w", err)
	}

	s.indexItem(ctx, scope, item)
	return item, commit, nil
}

// indexItem embeds and indexes a freshly stored item. Embedding
// failures are not fatal: the item is already committed.
func (s *MemoryService) indexItem(ctx context.Context, scope Scope, item *MemoryItem) {
	if s.embedder == nil {
		return
	}

	index, err := s.indexFor(scope)
	if err != nil {
		return
	}

	vec, err := s.embedder.Embed(ctx, item.Content)
	if err != nil {
		return
	}

	emb := NewEmbedding(vec, "openai")
	_ = index.Add(ctx, item.TreePath(), item.ID, emb)
}

// Get resolves id as a full blob hash, or as a tree path at the head of
// the given ref when it is not hash-shaped.
func (s *MemoryService) Get(ctx context.Context, id, agentID, refName, scopeHint string) (*MemoryItem, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	if h, err := NewHash(id); err == nil {
		return repo.GetItem(ctx, h)
	}

	agentID = agentFor(scope, agentID)
	if refName == "" {
		refName = DefaultRef
	}

	head, err := repo.Head(ctx, agentID, refName)
	if err != nil {
		return nil, err
	}

	tree, err := repo.Trees().Resolve(ctx, head.TreeHash)
	if err != nil {
		return nil, err
	}

	blob := tree.Lookup(id)
	if blob.IsZero() {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	return repo.GetItem(ctx, blob)
}

// List materializes all items reachable from a revision, newest first.
func (s *MemoryService) List(ctx context.Context, agentID, rev, scopeHint string) ([]*MemoryItem, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if rev == "" {
		rev = DefaultRef
	}

	commitHash, err := repo.ResolveRevision(ctx, agentID, rev)
	if err != nil {
		return nil, err
	}

	items, err := repo.CheckoutCommit(ctx, commitHash)
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// Status reports what is staged relative to the head commit.
func (s *MemoryService) Status(ctx context.Context, agentID, scopeHint string) (TreeDiff, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return TreeDiff{}, fmt.Errorf("get repository: %w", err)
	}

	return repo.StagedDiff(ctx, agentFor(scope, agentID))
}

func (s *MemoryService) Commit(ctx context.Context, agentID, message, scopeHint string) (*Commit, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	return repo.CommitStaged(ctx, agentID, agentID, message)
}

// HistoryService handles commit graph traversal and time travel.
type HistoryService struct {
	resolver *ScopeResolver
	repoFor  func(Scope) (*Repository, error)
}

func NewHistoryService(
	resolver *ScopeResolver,
	repoFor func(Scope) (*Repository, error),
) *HistoryService {
	return &HistoryService{
		resolver: resolver,
		repoFor:  repoFor,
	}
}

func (s *HistoryService) Log(ctx context.Context, agentID, refName string, limit int, scopeHint string) ([]*Commit, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if refName == "" {
		refName = DefaultRef
	}
	return repo.Log(ctx, agentID, refName, limit)
}

// Diff renders the change set between two revisions as a patch.
func (s *HistoryService) Diff(ctx context.Context, agentID, revA, revB, scopeHint string) (string, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return "", fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)

	a, err := repo.ResolveRevision(ctx, agentID, revA)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", revA, err)
	}
	b, err := repo.ResolveRevision(ctx, agentID, revB)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", revB, err)
	}

	d, err := repo.Differ().Diff(ctx, a, b)
	if err != nil {
		return "", err
	}

	return repo.Differ().RenderPatch(ctx, d)
}

func (s *HistoryService) Checkout(ctx context.Context, agentID, rev, scopeHint string) ([]*MemoryItem, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	commitHash, err := repo.ResolveRevision(ctx, agentID, rev)
	if err != nil {
		return nil, err
	}
	return repo.CheckoutCommit(ctx, commitHash)
}

func (s *HistoryService) Rollback(ctx context.Context, agentID, refName, rev, scopeHint string) (*Commit, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if refName == "" {
		refName = DefaultRef
	}

	target, err := repo.ResolveRevision(ctx, agentID, rev)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	return repo.RollbackTo(ctx, agentID, refName, target, agentID)
}

// BranchService handles refs and forked timelines.
type BranchService struct {
	resolver *ScopeResolver
	repoFor  func(Scope) (*Repository, error)
}

func NewBranchService(
	resolver *ScopeResolver,
	repoFor func(Scope) (*Repository, error),
) *BranchService {
	return &BranchService{
		resolver: resolver,
		repoFor:  repoFor,
	}
}

func (s *BranchService) List(ctx context.Context, agentID, scopeHint string) ([]Ref, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	return repo.Refs().List(ctx, agentFor(scope, agentID))
}

func (s *BranchService) Fork(ctx context.Context, agentID, sourceRef, newRef, scopeHint string) (Ref, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return Ref{}, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if sourceRef == "" {
		sourceRef = DefaultRef
	}
	return repo.Forker().Fork(ctx, agentID, sourceRef, newRef)
}

func (s *BranchService) ForkAgent(ctx context.Context, agentID, sourceRef, targetAgent, scopeHint string) (Ref, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return Ref{}, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if sourceRef == "" {
		sourceRef = DefaultRef
	}
	return repo.Forker().ForkAgent(ctx, agentID, sourceRef, targetAgent)
}

func (s *BranchService) Delete(ctx context.Context, agentID, name, scopeHint string) error {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}

	return repo.Refs().Delete(ctx, agentFor(scope, agentID), name)
}

// SearchService handles keyword and semantic search.
type SearchService struct {
	resolver *ScopeResolver
	repoFor  func(Scope) (*Repository, error)
	indexFor func(Scope) (*AnnoyIndex, error)
	embedder Embedder
}

func NewSearchService(
	resolver *ScopeResolver,
	repoFor func(Scope) (*Repository, error),
	indexFor func(Scope) (*AnnoyIndex, error),
	embedder Embedder,
) *SearchService {
	return &SearchService{
		resolver: resolver,
		repoFor:  repoFor,
		indexFor: indexFor,
		embedder: embedder,
	}
}

func (s *SearchService) Keyword(ctx context.Context, query, agentID, refName, scopeHint string) ([]*MemoryItem, error) {
	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if refName == "" {
		refName = DefaultRef
	}

	items, err := repo.CheckoutHead(ctx, agentID, refName)
	if err != nil {
		if errors.Is(err, ErrRefNotFound) {
			return nil, nil
		}
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []*MemoryItem
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Content), queryLower) {
			matches = append(matches, item)
			continue
		}
		for _, tag := range item.Tags {
			if strings.Contains(strings.ToLower(tag), queryLower) {
				matches = append(matches, item)
				break
			}
		}
	}

	return matches, nil
}

func (s *SearchService) Semantic(ctx context.Context, query string, k int, scopeHint string) ([]SearchHit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not available")
	}

	scope := s.resolver.Resolve(scopeHint)
	index, err := s.indexFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	emb := NewEmbedding(vec, "openai")
	return index.Search(ctx, emb, k)
}

// RebuildIndex re-embeds every item at the head of the given ref and
// rebuilds the annoy forest from scratch.
func (s *SearchService) RebuildIndex(ctx context.Context, agentID, refName, scopeHint string, numTrees int) error {
	if s.embedder == nil {
		return fmt.Errorf("embedder not available")
	}

	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}

	index, err := s.indexFor(scope)
	if err != nil {
		return fmt.Errorf("get index: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if refName == "" {
		refName = DefaultRef
	}

	items, err := repo.CheckoutHead(ctx, agentID, refName)
	if err != nil {
		return fmt.Errorf("materialize head: %w", err)
	}

	for _, item := range items {
		vec, err := s.embedder.Embed(ctx, item.Content)
		if err != nil {
			continue
		}
		emb := NewEmbedding(vec, "openai")
		_ = index.Add(ctx, item.TreePath(), item.ID, emb)
	}

	if err := index.Build(ctx, numTrees); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	return index.Save(ctx)
}

// SummarizeService handles LLM-backed context assembly.
type SummarizeService struct {
	resolver *ScopeResolver
	repoFor  func(Scope) (*Repository, error)
	search   *SearchService
	provider Provider
}

func NewSummarizeService(
	resolver *ScopeResolver,
	repoFor func(Scope) (*Repository, error),
	search *SearchService,
	provider Provider,
) *SummarizeService {
	return &SummarizeService{
		resolver: resolver,
		repoFor:  repoFor,
		search:   search,
		provider: provider,
	}
}

func (s *SummarizeService) Summarize(ctx context.Context, agentID, refName, scopeHint string) (*Summary, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("provider not available")
	}

	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	agentID = agentFor(scope, agentID)
	if refName == "" {
		refName = DefaultRef
	}

	items, err := repo.CheckoutHead(ctx, agentID, refName)
	if err != nil {
		return nil, fmt.Errorf("materialize head: %w", err)
	}

	if len(items) == 0 {
		return &Summary{Title: "Empty", Overview: "No memories found"}, nil
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following agent memories:\n\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("## %s [%s]\n%s\n\n", item.TreePath(), item.Type, item.Content))
	}

	var summary Summary
	if err := s.provider.GenerateObject(ctx, sb.String(), &summary); err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	return &summary, nil
}

// Ask answers a question grounded on semantically relevant memories.
func (s *SummarizeService) Ask(ctx context.Context, question, agentID, scopeHint string, k int) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("provider not available")
	}

	scope := s.resolver.Resolve(scopeHint)
	repo, err := s.repoFor(scope)
	if err != nil {
		return "", fmt.Errorf("get repository: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Answer the question using the memories below.\n\nMemories:\n")

	hits, err := s.search.Semantic(ctx, question, k, scopeHint)
	if err == nil && len(hits) > 0 {
		for _, hit := range hits {
			item, err := repo.GetItem(ctx, hit.Item)
			if err != nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s: %s\n", hit.Path, item.Content))
		}
	} else {
		items, err := s.search.Keyword(ctx, question, agentID, DefaultRef, scopeHint)
		if err != nil {
			return "", err
		}
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", item.TreePath(), item.Content))
		}
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)

	return s.provider.Complete(ctx, sb.String())
}

// ProviderService manages LLM provider configuration.
type ProviderService struct {
	resolver *ScopeResolver
}

func NewProviderService(resolver *ScopeResolver) *ProviderService {
	return &ProviderService{resolver: resolver}
}

func (s *ProviderService) List(scopeHint string) ([]string, error) {
	scope := s.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *ProviderService) Add(name string, providerCfg ProviderConfig, scopeHint string) error {
	scope := s.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return err
	}

	cfg.Providers[name] = providerCfg
	return SaveConfig(scope, cfg)
}

func (s *ProviderService) Remove(name, scopeHint string) error {
	scope := s.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return err
	}

	delete(cfg.Providers, name)
	return SaveConfig(scope, cfg)
}

func (s *ProviderService) SetDefault(name, scopeHint string) error {
	scope := s.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return err
	}

	if _, exists := cfg.Providers[name]; !exists {
		return fmt.Errorf("provider %q not found", name)
	}

	cfg.DefaultProvider = name
	return SaveConfig(scope, cfg)
}

func (s *ProviderService) Test(ctx context.Context, name, scopeHint string) error {
	scope := s.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return err
	}

	providerCfg, exists := cfg.Providers[name]
	if !exists {
		return fmt.Errorf("provider %q not found", name)
	}

	provider, err := NewFantasyProvider(ctx, name, providerCfg)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	_, err = provider.Complete(ctx, "Reply with the single word: ok")
	return err
}
