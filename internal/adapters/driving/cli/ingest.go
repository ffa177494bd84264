package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/watcher"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// stdinPath is the path argument that reads a document from standard input.
const stdinPath = "-"

var (
	ingestType   string
	ingestSource string
	ingestMeta   []string
	ingestWatch  bool
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents and report what was extracted",
	Long: `Ingest files and directory trees into the knowledge graph.

Directories are walked recursively; hidden files and directories are skipped.
Use - to read a single document from standard input. Failures do not stop
the remaining paths; they are reported together at the end.

With --watch, directories keep being ingested as files are created or
modified until the command is interrupted.

Examples:
  sercha-rag ingest ./docs
  sercha-rag ingest api.md --meta team=identity
  cat manual.pdf | sercha-rag ingest - --type pdf --source manual.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "Declared document type (pdf, md, csv or a MIME type)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Source identifier for single documents")
	ingestCmd.Flags().StringArrayVar(&ingestMeta, "meta", nil, "Metadata key=value (repeatable)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "Keep ingesting directories as files change")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// ingestRequest carries the flag values applied to every ingested path.
type ingestRequest struct {
	declaredType string
	source       string
	metadata     map[string]any
}

// ingestResult is the outcome of ingesting one path.
type ingestResult struct {
	Path  string `json:"path"`
	DocID string `json:"doc_id,omitempty"`
	Error string `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := requireKnowledge(cmd)
	if err != nil {
		return err
	}

	metadata, err := parseKeyValues(ingestMeta)
	if err != nil {
		return err
	}
	req := ingestRequest{
		declaredType: ingestType,
		source:       ingestSource,
		metadata:     metadata,
	}

	ctx := cmd.Context()
	results, ingestErr := ingestPaths(ctx, cmd, svc, args, req)

	if ingestJSON {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	} else {
		printIngestResults(cmd, results)
		if err := printStats(ctx, cmd, svc); err != nil {
			return err
		}
	}

	if ingestWatch {
		return watchPaths(ctx, cmd, svc, args, metadata)
	}
	return ingestErr
}

// ingestPaths ingests files, directory trees and standard input. Every path
// is attempted; failures are joined into the returned error.
func ingestPaths(
	ctx context.Context,
	cmd *cobra.Command,
	svc driving.KnowledgeService,
	paths []string,
	req ingestRequest,
) ([]ingestResult, error) {
	results := make([]ingestResult, 0, len(paths))
	var errs []error

	for _, path := range paths {
		if path == stdinPath {
			result, err := ingestStdin(ctx, cmd.InOrStdin(), svc, req)
			results = append(results, result)
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			results = append(results, ingestResult{Path: path, Error: err.Error()})
			errs = append(errs, fmt.Errorf("ingest %s: %w", path, err))
			continue
		}

		if info.IsDir() {
			w := watcher.New(path, svc, watcher.WithMetadata(req.metadata))
			events, err := w.IngestExisting(ctx)
			for _, event := range events {
				results = append(results, resultFromEvent(event))
			}
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}

		source := req.source
		if source == "" {
			source = path
		}
		docID, err := svc.AddDocument(ctx, domain.AddDocumentRequest{
			Content:      domain.RawContent{Path: path, Name: filepath.Base(path)},
			Source:       source,
			DeclaredType: req.declaredType,
			Metadata:     req.metadata,
		})
		if err != nil {
			results = append(results, ingestResult{Path: path, Error: err.Error()})
			errs = append(errs, fmt.Errorf("ingest %s: %w", path, err))
			continue
		}
		results = append(results, ingestResult{Path: path, DocID: docID})
	}

	return results, errors.Join(errs...)
}

func ingestStdin(
	ctx context.Context,
	in io.Reader,
	svc driving.KnowledgeService,
	req ingestRequest,
) (ingestResult, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return ingestResult{Path: stdinPath, Error: err.Error()}, fmt.Errorf("reading stdin: %w", err)
	}

	source := req.source
	if source == "" {
		source = "stdin"
	}
	docID, err := svc.AddDocument(ctx, domain.AddDocumentRequest{
		Content:      domain.RawContent{Data: data, Name: source},
		Source:       source,
		DeclaredType: req.declaredType,
		Metadata:     req.metadata,
	})
	if err != nil {
		return ingestResult{Path: stdinPath, Error: err.Error()}, fmt.Errorf("ingest stdin: %w", err)
	}
	return ingestResult{Path: stdinPath, DocID: docID}, nil
}

// watchPaths watches every directory argument until the context is done.
func watchPaths(
	ctx context.Context,
	cmd *cobra.Command,
	svc driving.KnowledgeService,
	paths []string,
	metadata map[string]any,
) error {
	results := make(chan watcher.Event)
	watching := 0
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		w := watcher.New(path, svc, watcher.WithMetadata(metadata))
		defer w.Close()

		events, err := w.Watch(ctx)
		if err != nil {
			return err
		}
		watching++
		go forwardEvents(ctx, events, results)
	}
	if watching == 0 {
		return errors.New("--watch requires at least one directory")
	}

	cmd.Printf("Watching %d director%s, press Ctrl+C to stop\n", watching, plural(watching, "y", "ies"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-results:
			printIngestResults(cmd, []ingestResult{resultFromEvent(event)})
		}
	}
}

func forwardEvents(ctx context.Context, in <-chan watcher.Event, out chan<- watcher.Event) {
	for event := range in {
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

func printIngestResults(cmd *cobra.Command, results []ingestResult) {
	for _, r := range results {
		if r.Error != "" {
			cmd.Printf("FAILED  %s: %s\n", r.Path, r.Error)
			continue
		}
		cmd.Printf("OK      %s -> %s\n", r.Path, r.DocID)
	}
}

func resultFromEvent(event watcher.Event) ingestResult {
	result := ingestResult{Path: event.Path, DocID: event.DocID}
	if event.Err != nil {
		result.Error = event.Err.Error()
	}
	return result
}

func countIngested(results []ingestResult) int {
	n := 0
	for _, r := range results {
		if r.Error == "" {
			n++
		}
	}
	return n
}

// parseKeyValues parses key=value pairs. Values stay strings.
func parseKeyValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
