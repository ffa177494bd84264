// Package cli provides the sercha-rag command line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Persistent flag values.
var (
	verbose    bool
	configPath string
	loadPaths  []string
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Knowledge retrieval over your documents",
	Long: `sercha-rag ingests documents into an in-process knowledge graph and
answers queries against it using one of six retrieval modes:

  local   - entities and chunks ranked by vector similarity
  global  - graph traversal from the most similar entities
  hybrid  - chunks ranked by vector similarity
  naive   - keyword containment
  mix     - blended local, global and naive rankings (default)
  bypass  - the raw query with the most recent chunks

The knowledge store lives for the duration of one process. Use --load to
ingest files before a command runs, or 'mcp serve --watch' to keep a
directory ingested while serving AI assistants.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file or directory (default ~/.sercha-rag/config.toml)")
	rootCmd.PersistentFlags().StringSliceVarP(&loadPaths, "load", "l", nil,
		"Files or directories to ingest before the command runs (- reads stdin)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. The command context is cancelled on
// interrupt or termination.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
