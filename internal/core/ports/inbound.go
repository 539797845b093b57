package ports

import (
	"context"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// QueryService is the inbound contract for hybrid retrieval and answer
// generation.
type QueryService interface {
	Retrieve(ctx context.Context, query string) (domain.Retrieval, error)
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// CorpusBuilder is the inbound contract for the bulk build pipeline.
type CorpusBuilder interface {
	BuildFromDocuments(ctx context.Context, docsDir string) error
}

// CorpusMutator keeps the index consistent as curated records change.
type CorpusMutator interface {
	AppendRecord(ctx context.Context, question, answer string) error
	Rebuild(ctx context.Context, records []domain.CuratedRecord) error
}

// RecordIntake accepts new curated records and moves them through
// their status transitions. Approval publishes an event so the worker
// picks the record up asynchronously.
type RecordIntake interface {
	Submit(ctx context.Context, question, answer, source string) (*domain.CuratedRecord, error)
	Approve(ctx context.Context, recordID string) error
}

// RecordProcessor is the inbound contract for asynchronous handling of
// approved curated records.
type RecordProcessor interface {
	ProcessApproved(ctx context.Context, recordID string) error
}
