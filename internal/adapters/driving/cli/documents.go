package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
	Long:  `List the document registry in ingestion order with per-document counts.`,
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "Output documents as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	svc, err := requireKnowledge(cmd)
	if err != nil {
		return err
	}

	docs, err := svc.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		return writeJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Printf("Documents (%d):\n\n", len(docs))
	for i := range docs {
		doc := &docs[i]
		cmd.Printf("%s\n", doc.DocID)
		cmd.Printf("  Source:   %s\n", doc.Source)
		cmd.Printf("  Type:     %s\n", doc.Type)
		cmd.Printf("  Contents: %d chunks, %d entities, %d relationships\n",
			doc.ChunkCount, doc.EntityCount, doc.RelationshipCount)
		cmd.Printf("  Ingested: %s\n", doc.IngestedAt.Format(time.RFC3339))
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("  %s: %v\n", k, doc.Metadata[k])
		}
		cmd.Println()
	}
	return nil
}
