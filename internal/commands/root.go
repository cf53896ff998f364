package commands

import (
	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fluxo",
		Short:   "Cash flow and income statements for small businesses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("repo", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(),
		newCashFlowCommand(),
		newDRECommand(),
		newIndicatorsCommand(),
		newMarginsCommand(),
		newTeamCostCommand(),
		newFutureCommand(),
		newRulesCommand(),
		newHierarchyCommand(),
		newWatchCommand(),
	)

	return rootCmd
}
