// Package cli wires configuration, the database, and the ingest services
// into the trapper command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trapper",
	Short: "Ingest and reconcile TNR program exports",
	Long: `trapper imports the spreadsheet exports a TNR program actually runs on
(case tracker, clinic schedule, intake form) into one canonical PostgreSQL
schema. Every import is idempotent: present values win, blanks never erase,
and re-running a file is always safe.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagDryRun  bool
	flagVerbose bool
)

// Execute runs the root command. The version string is injected at build
// time.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false,
		"run the full import inside a transaction and roll it back")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"log at debug level")
}
