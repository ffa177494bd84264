package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for engine resources.
	uriScheme = "sercha-rag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the document registry.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Registry of ingested documents",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Static resource for the full knowledge graph.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "graph",
		Name:        "graph",
		Description: "Entities, relationships and statistics of the knowledge graph",
		MIMEType:    "application/json",
	}, s.handleGraphResource)

	// Template for a single document record.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{docId}",
		Name:        "document",
		Description: "Registry entry of a specific document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	if s.ports.Settings != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "settings",
			Name:        "settings",
			Description: "Retrieval defaults and embedding provider",
			MIMEType:    "application/json",
		}, s.handleSettingsResource)
	}
}

// handleDocumentsResource returns every document record in ingestion order.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Knowledge.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResource(req.Params.URI, docs)
}

// handleGraphResource returns the exported knowledge graph.
func (s *Server) handleGraphResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	export, err := s.ports.Knowledge.ExportKnowledgeGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting graph: %w", err)
	}
	return jsonResource(req.Params.URI, export)
}

// handleDocumentResource returns the record of a specific document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract docId from URI: sercha-rag://documents/{docId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Knowledge.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for i := range docs {
		if docs[i].DocID == docID {
			return jsonResource(req.Params.URI, docs[i])
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// handleSettingsResource returns the engine settings without secrets.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	type settingsInfo struct {
		Mode              string  `json:"mode"`
		TopK              int     `json:"top_k"`
		ChunkTopK         int     `json:"chunk_top_k"`
		Rerank            bool    `json:"rerank"`
		ChunkSize         int     `json:"chunk_size"`
		ChunkOverlap      int     `json:"chunk_overlap"`
		EmbeddingProvider string  `json:"embedding_provider"`
		EmbeddingModel    string  `json:"embedding_model"`
		RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	}

	return jsonResource(req.Params.URI, settingsInfo{
		Mode:              settings.Retrieval.Mode.String(),
		TopK:              settings.Retrieval.TopK,
		ChunkTopK:         settings.Retrieval.ChunkTopK,
		Rerank:            settings.Retrieval.Rerank,
		ChunkSize:         settings.Chunking.Size,
		ChunkOverlap:      settings.Chunking.Overlap,
		EmbeddingProvider: settings.Embedding.Provider.String(),
		EmbeddingModel:    settings.Embedding.Model,
		RequestsPerSecond: settings.Embedding.RequestsPerSecond,
	})
}

// jsonResource marshals v as the single content of a resource.
func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like sercha-rag://documents/{docId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
