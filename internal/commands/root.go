// Package commands implements the books command line.
package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:     "books",
		Short:   "Double-entry ledger and period-end reporting",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("repo", ".", "books repository directory")
	flags.String("tenant", "", "tenant to operate on (overrides books.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("log-pretty", false, "human-readable log lines")
	_ = v.BindPFlag("repo", flags.Lookup("repo"))
	_ = v.BindPFlag("tenant", flags.Lookup("tenant"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.pretty", flags.Lookup("log-pretty"))

	rootCmd.AddCommand(
		newInitCommand(v),
		newPostCommand(v),
		newBalancesCommand(v),
		newReportCommand(v),
		newCloseYearCommand(v),
		newReconcileCommand(v),
		newImportCommand(v),
	)

	return rootCmd
}
