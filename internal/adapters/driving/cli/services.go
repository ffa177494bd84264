package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/knowledge"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Services used by commands. They are built on first use so commands that
// need neither (version, help) never touch the config file.
var (
	knowledgeService driving.KnowledgeService
	settingsService  driving.SettingsService
	embeddingService driven.EmbeddingService
)

// requireSettings returns the settings service, opening the config file
// on first use.
func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}

	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	return settingsService, nil
}

// requireKnowledge returns the knowledge service, building the engine on
// first use, and ingests any --load paths into it.
func requireKnowledge(cmd *cobra.Command) (driving.KnowledgeService, error) {
	if knowledgeService == nil {
		settingsSvc, err := requireSettings()
		if err != nil {
			return nil, err
		}
		settings, err := settingsSvc.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		svc, err := newKnowledgeService(settings)
		if err != nil {
			return nil, err
		}
		knowledgeService = svc
	}

	if len(loadPaths) > 0 {
		if err := loadCorpus(cmd.Context(), cmd, knowledgeService); err != nil {
			return nil, err
		}
	}
	return knowledgeService, nil
}

// newKnowledgeService wires the engine from settings. A missing embedding
// provider is not fatal: naive and bypass queries still work on an empty
// store, and ingestion reports the provider as unavailable.
func newKnowledgeService(settings *domain.EngineSettings) (*services.KnowledgeService, error) {
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("creating embedding service: %w", err)
		}
		logger.Debug("Embedding provider unavailable: %v", err)
		embedder = nil
	}
	embeddingService = embedder

	chunks := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	return services.NewKnowledgeService(
		extractors.NewDefaultRegistry(),
		chunks,
		knowledge.New(),
		memory.NewKnowledgeStore(),
		embedder,
		services.WithEmbeddingTimeout(settings.Embedding.Timeout),
		services.WithQueryDefaults(settings.QueryDefaults()),
	), nil
}

// loadCorpus ingests the --load paths once per command.
func loadCorpus(ctx context.Context, cmd *cobra.Command, svc driving.KnowledgeService) error {
	paths := loadPaths
	loadPaths = nil

	results, err := ingestPaths(ctx, cmd, svc, paths, ingestRequest{})
	logger.Info("Loaded %d documents", countIngested(results))
	if err != nil {
		logger.Warn("Some documents could not be loaded: %v", err)
	}
	if countIngested(results) == 0 && err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	return nil
}

// closeServices releases the embedding client.
func closeServices() error {
	if embeddingService == nil {
		return nil
	}
	err := embeddingService.Close()
	embeddingService = nil
	return err
}
