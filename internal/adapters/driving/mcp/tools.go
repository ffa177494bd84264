package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// defaultSearchLimit bounds search_entities and search_chunks when no limit is given.
const defaultSearchLimit = 10

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query     string         `json:"query" jsonschema:"the question or keywords to retrieve knowledge for"`
	Mode      string         `json:"mode,omitempty" jsonschema:"retrieval mode: local, global, hybrid, naive, mix or bypass (default mix)"`
	TopK      int            `json:"top_k,omitempty" jsonschema:"maximum number of entities (default 10)"`
	ChunkTopK int            `json:"chunk_top_k,omitempty" jsonschema:"maximum number of text chunks (default 5)"`
	Rerank    *bool          `json:"rerank,omitempty" jsonschema:"apply lexical reranking (default from settings)"`
	Filters   map[string]any `json:"filters,omitempty" jsonschema:"equality filters on source or metadata keys"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Query            string               `json:"query"`
	Mode             string               `json:"mode"`
	Entities         []EntityOutput       `json:"entities"`
	Relationships    []RelationshipOutput `json:"relationships"`
	Chunks           []ChunkOutput        `json:"chunks"`
	Citations        []CitationOutput     `json:"citations"`
	Confidence       float64              `json:"confidence"`
	ProcessingTimeMS int64                `json:"processing_time_ms"`
}

// EntityOutput represents a single entity.
type EntityOutput struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// RelationshipOutput represents a single relationship.
type RelationshipOutput struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ChunkOutput represents a single text chunk.
type ChunkOutput struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Source    string `json:"source"`
	ChunkType string `json:"chunk_type"`
}

// CitationOutput represents a single citation.
type CitationOutput struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// AddDocumentInput is the input schema for the add_document tool.
type AddDocumentInput struct {
	Content  string         `json:"content,omitempty" jsonschema:"inline document text"`
	Path     string         `json:"path,omitempty" jsonschema:"path of a local file to ingest when content is empty"`
	Name     string         `json:"name,omitempty" jsonschema:"display name of the document"`
	Source   string         `json:"source,omitempty" jsonschema:"source identifier recorded as provenance"`
	Type     string         `json:"type,omitempty" jsonschema:"declared type such as md, csv, html or a MIME type"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"metadata attached to chunks and entities"`
}

// AddDocumentOutput is the output schema for the add_document tool.
type AddDocumentOutput struct {
	DocID string `json:"doc_id"`
}

// StatsInput is the input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	TotalDocuments     int    `json:"total_documents"`
	TotalEntities      int    `json:"total_entities"`
	TotalRelationships int    `json:"total_relationships"`
	TotalChunks        int    `json:"total_chunks"`
	LastUpdated        string `json:"last_updated,omitempty"`
}

// ExportInput is the input schema for the export_graph tool.
type ExportInput struct{}

// ExportOutput is the output schema for the export_graph tool.
type ExportOutput struct {
	Entities      []EntityOutput       `json:"entities"`
	Relationships []RelationshipOutput `json:"relationships"`
	Statistics    StatsOutput          `json:"statistics"`
}

// SearchInput is the input schema for the search tools.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to compare against the index"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchEntitiesOutput is the output schema for the search_entities tool.
type SearchEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
	Count    int            `json:"count"`
}

// SearchChunksOutput is the output schema for the search_chunks tool.
type SearchChunksOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve entities, relationships and text chunks relevant to a query",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_document",
		Description: "Ingest a document into the knowledge store",
	}, s.handleAddDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report the number of documents, entities, relationships and chunks",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_graph",
		Description: "Export every entity and relationship of the knowledge graph",
	}, s.handleExportGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_entities",
		Description: "Rank entities by semantic similarity to a query",
	}, s.handleSearchEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_chunks",
		Description: "Rank text chunks by semantic similarity to a query",
	}, s.handleSearchChunks)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	opts := domain.QueryOptions{
		Mode:      domain.Mode(input.Mode),
		TopK:      input.TopK,
		ChunkTopK: input.ChunkTopK,
		Rerank:    input.Rerank,
		Filters:   input.Filters,
	}

	result, err := s.ports.Knowledge.Query(ctx, input.Query, opts)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Query:            result.Query,
		Mode:             result.Mode.String(),
		Entities:         toEntityOutputs(result.Entities),
		Relationships:    toRelationshipOutputs(result.Relationships),
		Chunks:           toChunkOutputs(result.Chunks),
		Citations:        make([]CitationOutput, len(result.Citations)),
		Confidence:       result.Confidence,
		ProcessingTimeMS: result.ProcessingTime.Milliseconds(),
	}
	for i, c := range result.Citations {
		output.Citations[i] = CitationOutput(c)
	}

	return nil, output, nil
}

// handleAddDocument handles the add_document tool invocation.
func (s *Server) handleAddDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentInput,
) (*mcp.CallToolResult, AddDocumentOutput, error) {
	if input.Content == "" && input.Path == "" {
		return nil, AddDocumentOutput{}, errors.New("either content or path is required")
	}

	req := domain.AddDocumentRequest{
		Content: domain.RawContent{
			Path: input.Path,
			Name: input.Name,
		},
		Source:       input.Source,
		DeclaredType: input.Type,
		Metadata:     input.Metadata,
	}
	if input.Content != "" {
		req.Content.Data = []byte(input.Content)
	}

	docID, err := s.ports.Knowledge.AddDocument(ctx, req)
	if err != nil {
		return nil, AddDocumentOutput{}, err
	}

	return nil, AddDocumentOutput{DocID: docID}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Knowledge.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, toStatsOutput(stats), nil
}

// handleExportGraph handles the export_graph tool invocation.
func (s *Server) handleExportGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	export, err := s.ports.Knowledge.ExportKnowledgeGraph(ctx)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	return nil, ExportOutput{
		Entities:      toEntityOutputs(export.Entities),
		Relationships: toRelationshipOutputs(export.Relationships),
		Statistics:    toStatsOutput(export.Statistics),
	}, nil
}

// handleSearchEntities handles the search_entities tool invocation.
func (s *Server) handleSearchEntities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchEntitiesOutput, error) {
	entities, err := s.ports.Knowledge.SearchEntities(ctx, input.Query, searchLimit(input.Limit))
	if err != nil {
		return nil, SearchEntitiesOutput{}, err
	}

	return nil, SearchEntitiesOutput{
		Entities: toEntityOutputs(entities),
		Count:    len(entities),
	}, nil
}

// handleSearchChunks handles the search_chunks tool invocation.
func (s *Server) handleSearchChunks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchChunksOutput, error) {
	chunks, err := s.ports.Knowledge.SearchChunks(ctx, input.Query, searchLimit(input.Limit))
	if err != nil {
		return nil, SearchChunksOutput{}, err
	}

	return nil, SearchChunksOutput{
		Chunks: toChunkOutputs(chunks),
		Count:  len(chunks),
	}, nil
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}

func toEntityOutputs(entities []domain.Entity) []EntityOutput {
	out := make([]EntityOutput, len(entities))
	for i := range entities {
		out[i] = EntityOutput{
			ID:          entities[i].ID,
			Name:        entities[i].Name,
			Type:        entities[i].Type,
			Description: entities[i].Description,
			Properties:  entities[i].Properties,
		}
	}
	return out
}

func toRelationshipOutputs(rels []domain.Relationship) []RelationshipOutput {
	out := make([]RelationshipOutput, len(rels))
	for i := range rels {
		out[i] = RelationshipOutput{
			ID:          rels[i].ID,
			SourceID:    rels[i].SourceID,
			TargetID:    rels[i].TargetID,
			Type:        rels[i].Type,
			Description: rels[i].Description,
		}
	}
	return out
}

func toChunkOutputs(chunks []domain.TextChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(chunks))
	for i := range chunks {
		out[i] = ChunkOutput{
			ID:        chunks[i].ID,
			Content:   chunks[i].Content,
			Source:    chunks[i].Source,
			ChunkType: chunks[i].ChunkType,
		}
	}
	return out
}

func toStatsOutput(stats domain.Stats) StatsOutput {
	out := StatsOutput{
		TotalDocuments:     stats.TotalDocuments,
		TotalEntities:      stats.TotalEntities,
		TotalRelationships: stats.TotalRelationships,
		TotalChunks:        stats.TotalChunks,
	}
	if !stats.LastUpdated.IsZero() {
		out.LastUpdated = stats.LastUpdated.Format(time.RFC3339)
	}
	return out
}
