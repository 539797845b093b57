package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

// RecordIntakeUseCase owns the curated record lifecycle up to the point
// where the index worker takes over.
type RecordIntakeUseCase struct {
	store ports.RecordStore
	queue ports.MessageQueue
}

func NewRecordIntakeUseCase(store ports.RecordStore, queue ports.MessageQueue) *RecordIntakeUseCase {
	return &RecordIntakeUseCase{
		store: store,
		queue: queue,
	}
}

// Submit stores a new record in pending state. Nothing is indexed
// until the record is approved.
func (uc *RecordIntakeUseCase) Submit(ctx context.Context, question, answer, source string) (*domain.CuratedRecord, error) {
	if question == "" || answer == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit record", errors.New("empty question or answer"))
	}

	now := time.Now().UTC()
	record := &domain.CuratedRecord{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		Source:    source,
		Status:    domain.RecordStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create curated record: %w", err)
	}
	return record, nil
}

// Approve marks the record approved and publishes the event the index
// worker consumes. The status change is durable even if the publish
// fails; a later rebuild still picks the record up.
func (uc *RecordIntakeUseCase) Approve(ctx context.Context, recordID string) error {
	if err := uc.store.UpdateStatus(ctx, recordID, domain.RecordStatusApproved); err != nil {
		return fmt.Errorf("approve record: %w", err)
	}

	if err := uc.queue.PublishRecordApproved(ctx, recordID); err != nil {
		return fmt.Errorf("publish approval event: %w", err)
	}
	return nil
}
