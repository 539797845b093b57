package ports

import (
	"context"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// Embedder turns text into fixed-dimension vectors. Batching is the
// provider's concern; callers hand over whole batches.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits one page's cleaned text into overlapping chunk texts.
type Chunker interface {
	Split(text string) []string
}

// PageExtractor reads a source document into per-page plain text.
type PageExtractor interface {
	Supports(path string) bool
	ExtractPages(ctx context.Context, path string) ([]domain.Page, error)
}

// RecordStore is the durable curated question/answer set.
type RecordStore interface {
	Create(ctx context.Context, record *domain.CuratedRecord) error
	GetByID(ctx context.Context, id string) (*domain.CuratedRecord, error)
	ListApproved(ctx context.Context) ([]domain.CuratedRecord, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// MessageQueue carries record-approved events from the review surface to
// the index worker.
type MessageQueue interface {
	PublishRecordApproved(ctx context.Context, recordID string) error
	SubscribeRecordApproved(ctx context.Context, handler func(context.Context, string) error) error
}

// AnswerGenerator produces the final free-text answer from ranked
// evidence. The retrieval core only produces the evidence list.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, results []domain.SearchResult) (string, error)
}

// UnitIndex owns the unit list and the parallel vector list. Searches
// run against an immutable snapshot; mutations replace the snapshot
// atomically, so readers always see a complete index.
type UnitIndex interface {
	SearchVector(queryVector []float32, k int) []domain.SearchResult
	SearchKeyword(query string, k int) []domain.SearchResult
	Append(vector []float32, unit domain.RetrievalUnit) error
	Replace(vectors [][]float32, units []domain.RetrievalUnit) error
	// Dump returns the unit list and the parallel vector list from one
	// snapshot, so the two can never disagree about length.
	Dump() ([]domain.RetrievalUnit, [][]float32)
	Count() int
	Save() error
}
