package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	result   *domain.RetrievalResult
	docID    string
	stats    domain.Stats
	export   *domain.GraphExport
	docs     []domain.DocumentRecord
	entities []domain.Entity
	chunks   []domain.TextChunk
	err      error

	lastQuery string
	lastOpts  domain.QueryOptions
	lastAdd   domain.AddDocumentRequest
	lastTopK  int
}

func (m *mockKnowledgeService) AddDocument(_ context.Context, req domain.AddDocumentRequest) (string, error) {
	m.lastAdd = req
	return m.docID, m.err
}

func (m *mockKnowledgeService) Query(
	_ context.Context,
	query string,
	opts domain.QueryOptions,
) (*domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockKnowledgeService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockKnowledgeService) ExportKnowledgeGraph(_ context.Context) (*domain.GraphExport, error) {
	return m.export, m.err
}

func (m *mockKnowledgeService) ListDocuments(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, m.err
}

func (m *mockKnowledgeService) SearchEntities(_ context.Context, query string, topK int) ([]domain.Entity, error) {
	m.lastQuery = query
	m.lastTopK = topK
	return m.entities, m.err
}

func (m *mockKnowledgeService) SearchChunks(_ context.Context, query string, topK int) ([]domain.TextChunk, error) {
	m.lastQuery = query
	m.lastTopK = topK
	return m.chunks, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.EngineSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.EngineSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.EngineSettings) error {
	return m.err
}

func (m *mockSettingsService) SetMode(_ domain.Mode) error {
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) Validate() error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.EngineSettings {
	return domain.DefaultEngineSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.err
}
