package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
)

// Export formats.
const (
	exportFormatJSON   = "json"
	exportFormatSQLite = "sqlite"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge graph",
	Long: `Export every entity and relationship with the graph statistics.

Formats:
  json    - written to stdout, or to --output
  sqlite  - a SQLite database at --output with documents, entities,
            relationships and statistics tables

Examples:
  sercha-rag export --load ./docs > graph.json
  sercha-rag export --load ./docs --format sqlite --output graph.db`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", exportFormatJSON, "Export format (json, sqlite)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (json defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportFormat != exportFormatJSON && exportFormat != exportFormatSQLite {
		return fmt.Errorf("unsupported export format: %s", exportFormat)
	}
	if exportFormat == exportFormatSQLite && exportOutput == "" {
		return errors.New("--output is required for sqlite export")
	}

	svc, err := requireKnowledge(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	export, err := svc.ExportKnowledgeGraph(ctx)
	if err != nil {
		return fmt.Errorf("failed to export graph: %w", err)
	}

	if exportFormat == exportFormatJSON {
		if exportOutput == "" {
			return writeJSON(cmd, export)
		}
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		if err := os.WriteFile(exportOutput, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		cmd.Printf("Exported %d entities and %d relationships to %s\n",
			len(export.Entities), len(export.Relationships), exportOutput)
		return nil
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	store, err := sqlite.NewStore(exportOutput)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveGraph(ctx, export, docs); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	cmd.Printf("Exported %d entities and %d relationships to %s\n",
		len(export.Entities), len(export.Relationships), store.Path())
	return nil
}
