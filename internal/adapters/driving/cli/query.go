package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// snippetWidth bounds chunk previews in table output.
const snippetWidth = 100

var (
	queryMode      string
	queryTopK      int
	queryChunkTopK int
	queryNoRerank  bool
	queryFilters   []string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [query]",
	Short: "Query the knowledge graph",
	Long: `Query the knowledge graph with one of the retrieval modes.

Modes: local, global, hybrid, naive, mix, bypass. Unknown modes fall back
to mix with a warning. The default comes from 'sercha-rag settings mode'.

Filters restrict results by provenance or document metadata, for example
--filter source=api.md or --filter team=identity.

Examples:
  sercha-rag query --load ./docs "user endpoints"
  sercha-rag query -l api.md -m naive "GET /users"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryMode, "mode", "m", "", "Retrieval mode (default from settings)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "Maximum entities to return (default from settings)")
	queryCmd.Flags().IntVar(&queryChunkTopK, "chunk-top-k", 0, "Maximum chunks to return (default from settings)")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "Disable lexical reranking")
	queryCmd.Flags().StringArrayVarP(&queryFilters, "filter", "f", nil, "Filter key=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	svc, err := requireKnowledge(cmd)
	if err != nil {
		return err
	}

	filters, err := parseKeyValues(queryFilters)
	if err != nil {
		return err
	}

	opts := domain.QueryOptions{
		Mode:      domain.Mode(queryMode),
		TopK:      queryTopK,
		ChunkTopK: queryChunkTopK,
		Filters:   filters,
	}
	if queryNoRerank {
		opts.Rerank = domain.Bool(false)
	}

	result, err := svc.Query(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return writeJSON(cmd, result)
	}
	printRetrievalResult(cmd, result)
	return nil
}

func printRetrievalResult(cmd *cobra.Command, result *domain.RetrievalResult) {
	cmd.Printf("Query: %q\n", result.Query)
	cmd.Printf("Mode: %s  Confidence: %.2f  Time: %s\n\n",
		result.Mode, result.Confidence, result.ProcessingTime.Round(time.Microsecond))

	if len(result.Entities) == 0 && len(result.Chunks) == 0 {
		cmd.Println("No results found.")
		return
	}

	names := make(map[string]string, len(result.Entities))
	if len(result.Entities) > 0 {
		cmd.Printf("Entities (%d):\n", len(result.Entities))
		for i := range result.Entities {
			e := &result.Entities[i]
			names[e.ID] = e.Name
			cmd.Printf("  %d. %s [%s]", i+1, e.Name, e.Type)
			if source := e.Source(); source != "" {
				cmd.Printf("  (%s)", source)
			}
			cmd.Println()
		}
		cmd.Println()
	}

	if len(result.Relationships) > 0 {
		cmd.Printf("Relationships (%d):\n", len(result.Relationships))
		for i, r := range result.Relationships {
			cmd.Printf("  %d. %s -[%s]-> %s\n", i+1, nameOr(names, r.SourceID), r.Type, nameOr(names, r.TargetID))
		}
		cmd.Println()
	}

	if len(result.Chunks) > 0 {
		cmd.Printf("Chunks (%d):\n", len(result.Chunks))
		for i, c := range result.Chunks {
			cmd.Printf("  %d. [%s] %s\n", i+1, c.Source, preview(c.Content, snippetWidth))
		}
		cmd.Println()
	}

	if len(result.Citations) > 0 {
		cmd.Println("Citations:")
		for _, c := range result.Citations {
			label := c.ID
			if c.Name != "" {
				label = c.Name
			}
			cmd.Printf("  [%s] %s - %s\n", c.Type, label, c.Source)
		}
	}
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

// preview collapses whitespace and truncates s to width runes.
func preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width]) + "..."
}
