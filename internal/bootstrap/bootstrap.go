package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/config"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/usecase"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/chunking"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/extractor/pdfpage"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/extractor/plaintext"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/llm/ollama"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/queue/nats"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/repository/postgres"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/resilience"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/infrastructure/vector/flat"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	RecordStore ports.RecordStore
	Index       ports.UnitIndex

	QueryService ports.QueryService
	Builder      ports.CorpusBuilder
	Mutator      ports.CorpusMutator
	Processor    ports.RecordProcessor
	Intake       ports.RecordIntake

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	recordStore := postgres.NewRecordRepository(db)
	if err := recordStore.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	index, err := openIndex(cfg.VectorDBPath, logger)
	if err != nil {
		return nil, err
	}

	chunker, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinSegmentLength)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	extractors := []ports.PageExtractor{pdfpage.New(), plaintext.New()}

	queryUC := usecase.NewQueryUseCase(embedder, index, generator, usecase.RetrievalParams{
		Alpha:            cfg.HybridAlpha,
		TopK:             cfg.TopKCandidates,
		FinalK:           cfg.FinalK,
		OverlapThreshold: cfg.QueryOverlapThreshold,
	}, logger)
	builderUC := usecase.NewBuildCorpusUseCase(extractors, chunker, embedder, index, cfg.DuplicateThreshold)
	mutatorUC := usecase.NewMutateCorpusUseCase(embedder, index)
	processorUC := usecase.NewProcessRecordUseCase(recordStore, mutatorUC)
	intakeUC := usecase.NewRecordIntakeUseCase(recordStore, queue)

	retrievalMetrics := metrics.NewRetrievalMetrics(service)
	retrievalMetrics.SetIndexUnits(service, index.Count())

	return &App{
		Config: cfg,

		Queue:       queue,
		RecordStore: recordStore,
		Index:       index,

		QueryService: metrics.NewInstrumentedQueryService(queryUC, retrievalMetrics, index, service),
		Builder:      builderUC,
		Mutator:      mutatorUC,
		Processor:    processorUC,
		Intake:       intakeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// openIndex loads the persisted index when one exists. A missing index
// is a normal first run; corruption is not.
func openIndex(path string, logger *slog.Logger) (*flat.Index, error) {
	index, err := flat.Load(path)
	if err == nil {
		logger.Info("index_loaded", "path", path, "units", index.Count())
		return index, nil
	}
	if domain.IsKind(err, domain.ErrIndexNotFound) {
		logger.Info("index_missing_starting_empty", "path", path)
		return flat.New(path), nil
	}
	return nil, fmt.Errorf("load index: %w", err)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
