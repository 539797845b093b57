package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

// RetrievalParams are the query-time tunables for hybrid search.
type RetrievalParams struct {
	Alpha            float64
	TopK             int
	FinalK           int
	OverlapThreshold float64
}

type QueryUseCase struct {
	embedder  ports.Embedder
	index     ports.UnitIndex
	generator ports.AnswerGenerator
	params    RetrievalParams
	logger    *slog.Logger
}

func NewQueryUseCase(
	embedder ports.Embedder,
	index ports.UnitIndex,
	generator ports.AnswerGenerator,
	params RetrievalParams,
	logger *slog.Logger,
) *QueryUseCase {
	if params.TopK <= 0 {
		params.TopK = 10
	}
	if params.FinalK <= 0 {
		params.FinalK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryUseCase{
		embedder:  embedder,
		index:     index,
		generator: generator,
		params:    params,
		logger:    logger,
	}
}

// Retrieve runs the hybrid search pipeline: vector and keyword
// candidates, score fusion, then the query-time overlap filter. An
// embedding provider failure does not abort the query; ranking falls
// back to keyword-only scoring and the result is marked degraded.
func (uc *QueryUseCase) Retrieve(ctx context.Context, query string) (domain.Retrieval, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Retrieval{}, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("empty query"))
	}

	candidateK := uc.params.TopK * 2
	keyword := uc.index.SearchKeyword(query, candidateK)

	alpha := uc.params.Alpha
	var vector []domain.SearchResult
	degraded := false

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		uc.logger.Warn("embedding_failed_keyword_only_fallback", "error", err)
		degraded = true
		alpha = 0
	} else {
		vector = uc.index.SearchVector(queryVector, candidateK)
	}

	fused := fuseHybrid(vector, keyword, alpha, uc.params.TopK)
	results := filterAndDeduplicate(fused, uc.params.FinalK, uc.params.OverlapThreshold)

	return domain.Retrieval{Results: results, Degraded: degraded}, nil
}

// Answer retrieves evidence for the question and hands it to the
// generator. Retrieval degradation is carried through to the answer.
func (uc *QueryUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	retrieval, err := uc.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, retrieval.Results)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:     text,
		Sources:  retrieval.Results,
		Degraded: retrieval.Degraded,
	}, nil
}
