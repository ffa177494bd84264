package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge graph statistics",
	Long: `Show the number of documents, entities, relationships and chunks in the
knowledge graph. Combine with --load to inspect a set of files.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := requireKnowledge(cmd)
	if err != nil {
		return err
	}

	if statsJSON {
		stats, err := svc.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		return writeJSON(cmd, stats)
	}
	return printStats(cmd.Context(), cmd, svc)
}

func printStats(ctx context.Context, cmd *cobra.Command, svc driving.KnowledgeService) error {
	stats, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Println()
	cmd.Printf("Documents:     %d\n", stats.TotalDocuments)
	cmd.Printf("Entities:      %d\n", stats.TotalEntities)
	cmd.Printf("Relationships: %d\n", stats.TotalRelationships)
	cmd.Printf("Chunks:        %d\n", stats.TotalChunks)
	if !stats.LastUpdated.IsZero() {
		cmd.Printf("Last updated:  %s\n", stats.LastUpdated.Format(time.RFC3339))
	}
	return nil
}
