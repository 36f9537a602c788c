package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gitmem",
		Short:         "Content-addressable memory for AI agents",
		Long:          `A branch-aware memory store with commit history, diffs, rollback and semantic search.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	setHelpWithExternals(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("scope", "", "Target scope (global|project)")
	cmd.PersistentFlags().String("agent", "", "Agent whose timeline to operate on")
	cmd.PersistentFlags().String("ref", "", "Target ref (default: main)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	mem := func() *internal.MemoryService { return a.memorySvc }
	hist := func() *internal.HistoryService { return a.historySvc }
	branch := func() *internal.BranchService { return a.branchSvc }
	search := func() *internal.SearchService { return a.searchSvc }
	summarize := func() *internal.SummarizeService { return a.summarizeSvc }
	provider := func() *internal.ProviderService { return a.providerSvc }

	root.AddCommand(
		NewInitCmd(),
		NewAddCmd(mem),
		NewShowCmd(mem),
		NewLsCmd(mem),
		NewCommitCmd(mem),
		NewStatusCmd(mem),
		NewLogCmd(hist),
		NewDiffCmd(hist),
		NewCheckoutCmd(hist),
		NewRollbackCmd(hist),
		NewForkCmd(branch),
		NewBranchCmd(branch),
		NewSearchCmd(search),
		NewIndexCmd(search),
		NewProviderCmd(provider),
		NewAskCmd(summarize),
		NewSummarizeCmd(summarize),
		NewWatchCmd(mem),
		NewHookCmd(mem),
		NewInstallCmd(),
		NewUninstallCmd(),
	)
}

func setHelpWithExternals(cmd *cobra.Command) {
	defaultHelp := cmd.HelpFunc()

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		printExternalCommands(c)
	})
}

func printExternalCommands(cmd *cobra.Command) {
	externals := listExternalCommands()
	if len(externals) == 0 {
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nExternal commands (gitmem-*):")
	for _, name := range externals {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
}
