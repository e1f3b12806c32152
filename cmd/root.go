package cmd

import (
	"fmt"
	"os"

	"github.com/pgschema/pgextract/cmd/apply"
	extractcmd "github.com/pgschema/pgextract/cmd/extract"
	"github.com/pgschema/pgextract/internal/logger"
	"github.com/pgschema/pgextract/internal/version"
	"github.com/spf13/cobra"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "pgextract",
	Short: "Extract non-table objects from PostgreSQL migration dumps",
	Long: fmt.Sprintf(`pgextract pulls schemas, extensions, types, functions, triggers, views,
sequences, policies and non-table grants out of PostgreSQL dumps into one
replayable SQL file.

Version: %s

Running pgextract without a command is the same as "pgextract extract".

Commands:
  extract  Extract non-table objects from supabase/migrations (default)
  apply    Replay an extracted document against a database
  version  Show version information

Use "pgextract [command] --help" for more information about a command.`, version.String()),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return extractcmd.ExtractCmd.RunE(cmd, args)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(extractcmd.ExtractCmd)
	RootCmd.AddCommand(apply.ApplyCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	logger.Setup(os.Stderr, Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
