package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

type MutateCorpusUseCase struct {
	embedder ports.Embedder
	index    ports.UnitIndex
}

func NewMutateCorpusUseCase(embedder ports.Embedder, index ports.UnitIndex) *MutateCorpusUseCase {
	return &MutateCorpusUseCase{
		embedder: embedder,
		index:    index,
	}
}

// AppendRecord indexes one curated question/answer pair incrementally.
// The unit is embedded in its canonical text form so a later rebuild
// produces an identical vector for the same record.
func (uc *MutateCorpusUseCase) AppendRecord(ctx context.Context, question, answer string) error {
	if question == "" || answer == "" {
		return domain.WrapError(domain.ErrInvalidInput, "append record", errors.New("empty question or answer"))
	}

	unit := domain.NewCuratedUnit(question, answer)
	vector, err := uc.embedSingle(ctx, unit.Text)
	if err != nil {
		return err
	}

	if err := uc.index.Append(vector, unit); err != nil {
		return fmt.Errorf("append to index: %w", err)
	}
	if err := uc.index.Save(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Rebuild replaces every curated unit with the given record set while
// keeping document chunks and their existing embeddings untouched.
// Only the curated records are re-embedded.
func (uc *MutateCorpusUseCase) Rebuild(ctx context.Context, records []domain.CuratedRecord) error {
	existingUnits, existingVectors := uc.index.Dump()
	if len(existingUnits) != len(existingVectors) {
		return domain.WrapError(domain.ErrCorruptedIndex, "rebuild index",
			fmt.Errorf("units/vectors mismatch: %d/%d", len(existingUnits), len(existingVectors)))
	}

	units := make([]domain.RetrievalUnit, 0, len(existingUnits)+len(records))
	vectors := make([][]float32, 0, len(existingUnits)+len(records))
	for i, unit := range existingUnits {
		if unit.Kind != domain.KindDocumentChunk {
			continue
		}
		units = append(units, unit)
		vectors = append(vectors, existingVectors[i])
	}

	if len(records) > 0 {
		curatedUnits := make([]domain.RetrievalUnit, len(records))
		texts := make([]string, len(records))
		for i, record := range records {
			curatedUnits[i] = domain.NewCuratedUnit(record.Question, record.Answer)
			texts[i] = curatedUnits[i].Text
		}

		curatedVectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed curated records: %w", err)
		}
		if len(curatedVectors) != len(records) {
			return domain.WrapError(
				domain.ErrInvalidInput,
				"embed curated records",
				fmt.Errorf("vectors/records mismatch: %d/%d", len(curatedVectors), len(records)),
			)
		}

		units = append(units, curatedUnits...)
		vectors = append(vectors, curatedVectors...)
	}

	if err := uc.index.Replace(vectors, units); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	if err := uc.index.Save(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func (uc *MutateCorpusUseCase) embedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := uc.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed record: %w", err)
	}
	if len(vectors) != 1 {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed record",
			fmt.Errorf("expected 1 vector, got %d", len(vectors)),
		)
	}
	return vectors[0], nil
}
