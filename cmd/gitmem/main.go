package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/gitmem/gitmem/internal"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	if tryExternalCommand(ctx) {
		return
	}

	app := newApp(ctx)
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "gitmem %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

type app struct {
	resolver     *internal.ScopeResolver
	memorySvc    *internal.MemoryService
	historySvc   *internal.HistoryService
	branchSvc    *internal.BranchService
	searchSvc    *internal.SearchService
	summarizeSvc *internal.SummarizeService
	providerSvc  *internal.ProviderService
}

func newApp(ctx context.Context) *app {
	resolver := internal.NewScopeResolver()

	repoFor := func(scope internal.Scope) (*internal.Repository, error) {
		return internal.NewRepository(scope)
	}
	indexFor := func(scope internal.Scope) (*internal.AnnoyIndex, error) {
		cfg, err := internal.LoadConfig(scope)
		if err != nil {
			return nil, internal.ErrNoIndex
		}
		return internal.NewAnnoyIndex(scope.VectorPath(), cfg.Embeddings.Dimension)
	}

	embedder := newEmbedder(resolver)
	provider := newProvider(ctx, resolver)

	searchSvc := internal.NewSearchService(resolver, repoFor, indexFor, embedder)

	return &app{
		resolver:     resolver,
		memorySvc:    internal.NewMemoryService(resolver, repoFor, indexFor, embedder),
		historySvc:   internal.NewHistoryService(resolver, repoFor),
		branchSvc:    internal.NewBranchService(resolver, repoFor),
		searchSvc:    searchSvc,
		summarizeSvc: internal.NewSummarizeService(resolver, repoFor, searchSvc, provider),
		providerSvc:  internal.NewProviderService(resolver),
	}
}

func newEmbedder(resolver *internal.ScopeResolver) internal.Embedder {
	cfg, err := internal.LoadConfig(resolver.Resolve(""))
	if err != nil {
		return nil
	}

	embCfg := cfg.Embeddings
	if embCfg.APIKey == "" {
		embCfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if embCfg.APIKey == "" {
		return nil
	}

	embedder, err := internal.NewOpenAIEmbedder(embCfg)
	if err != nil {
		return nil
	}
	return embedder
}

func newProvider(ctx context.Context, resolver *internal.ScopeResolver) internal.Provider {
	cfg, err := internal.LoadConfig(resolver.Resolve(""))
	if err != nil || cfg.DefaultProvider == "" {
		return nil
	}

	providerCfg, ok := cfg.Providers[cfg.DefaultProvider]
	if !ok {
		return nil
	}

	provider, err := internal.NewFantasyProvider(ctx, cfg.DefaultProvider, providerCfg)
	if err != nil {
		return nil
	}
	return provider
}
