// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// retrieval engine. It lets AI assistants ingest documents and query the
// knowledge graph through tools and resources.
package mcp

import "errors"

// ErrMissingKnowledgeService is returned when the knowledge service is not provided.
var ErrMissingKnowledgeService = errors.New("mcp: knowledge service is required")
