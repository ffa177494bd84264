package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/watcher"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Use --watch to ingest a directory before serving and keep ingesting files
as they are created or modified.

Examples:
  # Stdio mode (default, for Claude Desktop)
  sercha-rag mcp serve --watch ~/notes

  # HTTP mode (for MCP Inspector, remote access)
  sercha-rag mcp serve --port 8080 --load ./docs

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "sercha-rag": {
        "command": "/path/to/sercha-rag",
        "args": ["mcp", "serve", "--watch", "/path/to/docs"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringSlice("watch", nil, "Directories to ingest and watch while serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watchDirs, err := cmd.Flags().GetStringSlice("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	svc, err := requireKnowledge(cmd)
	if err != nil {
		return err
	}

	ports := &mcp.Ports{Knowledge: svc}
	if settings, err := requireSettings(); err == nil {
		ports.Settings = settings
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	for _, dir := range watchDirs {
		w := watcher.New(dir, svc)
		defer w.Close()
		if err := startWatcher(ctx, w); err != nil {
			return err
		}
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// startWatcher ingests the watcher's directory and keeps it ingested in the
// background. Output goes to the logger since stdout carries the protocol.
func startWatcher(ctx context.Context, w *watcher.Watcher) error {
	events, err := w.IngestExisting(ctx)
	logger.Info("Ingested %d files", countEvents(events))
	if err != nil {
		logger.Warn("Initial ingestion incomplete: %v", err)
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for event := range changes {
			if event.Err != nil {
				continue
			}
			logger.Debug("Re-ingested %s as %s", event.Path, event.DocID)
		}
	}()
	return nil
}

func countEvents(events []watcher.Event) int {
	n := 0
	for _, e := range events {
		if e.Err == nil {
			n++
		}
	}
	return n
}
