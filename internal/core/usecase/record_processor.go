package usecase

import (
	"context"
	"fmt"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

// ProcessRecordUseCase reacts to record-approved events by appending
// the approved record to the live index.
type ProcessRecordUseCase struct {
	store   ports.RecordStore
	mutator ports.CorpusMutator
}

func NewProcessRecordUseCase(store ports.RecordStore, mutator ports.CorpusMutator) *ProcessRecordUseCase {
	return &ProcessRecordUseCase{
		store:   store,
		mutator: mutator,
	}
}

func (uc *ProcessRecordUseCase) ProcessApproved(ctx context.Context, recordID string) error {
	record, err := uc.store.GetByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("fetch record by id: %w", err)
	}
	if record.Status != domain.RecordStatusApproved {
		return domain.WrapError(domain.ErrInvalidInput, "process record",
			fmt.Errorf("record %s has status %q, want %q", recordID, record.Status, domain.RecordStatusApproved))
	}

	if err := uc.mutator.AppendRecord(ctx, record.Question, record.Answer); err != nil {
		return fmt.Errorf("append record to index: %w", err)
	}
	return nil
}
