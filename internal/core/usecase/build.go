package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

type BuildCorpusUseCase struct {
	extractors         []ports.PageExtractor
	chunker            ports.Chunker
	embedder           ports.Embedder
	index              ports.UnitIndex
	duplicateThreshold float64
}

func NewBuildCorpusUseCase(
	extractors []ports.PageExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.UnitIndex,
	duplicateThreshold float64,
) *BuildCorpusUseCase {
	return &BuildCorpusUseCase{
		extractors:         extractors,
		chunker:            chunker,
		embedder:           embedder,
		index:              index,
		duplicateThreshold: duplicateThreshold,
	}
}

// BuildFromDocuments runs the full build pipeline over every supported
// file under docsDir: extract pages, chunk, embed, drop near-duplicate
// chunks, then atomically replace and persist the index. The previous
// index stays live until the replacement is complete.
func (uc *BuildCorpusUseCase) BuildFromDocuments(ctx context.Context, docsDir string) error {
	paths, err := uc.collectPaths(docsDir)
	if err != nil {
		return fmt.Errorf("scan documents dir: %w", err)
	}
	if len(paths) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "build corpus",
			fmt.Errorf("no supported documents under %s", docsDir))
	}

	units, err := uc.chunkDocuments(ctx, paths)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "build corpus", errors.New("chunking produced zero units"))
	}

	vectors, err := uc.embedUnits(ctx, units)
	if err != nil {
		return err
	}

	units, vectors = dedupeBySimilarity(units, vectors, uc.duplicateThreshold)

	if err := uc.index.Replace(vectors, units); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	if err := uc.index.Save(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func (uc *BuildCorpusUseCase) collectPaths(docsDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if uc.extractorFor(path) != nil {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (uc *BuildCorpusUseCase) chunkDocuments(ctx context.Context, paths []string) ([]domain.RetrievalUnit, error) {
	var units []domain.RetrievalUnit
	for _, path := range paths {
		extractor := uc.extractorFor(path)
		pages, err := extractor.ExtractPages(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("extract pages from %s: %w", filepath.Base(path), err)
		}
		for _, page := range pages {
			for _, chunk := range uc.chunker.Split(page.Text) {
				units = append(units, domain.NewChunkUnit(chunk, page.SourceID, page.Number))
			}
		}
	}
	return units, nil
}

func (uc *BuildCorpusUseCase) embedUnits(ctx context.Context, units []domain.RetrievalUnit) ([][]float32, error) {
	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = unit.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(units) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/units mismatch: %d/%d", len(vectors), len(units)),
		)
	}
	return vectors, nil
}

func (uc *BuildCorpusUseCase) extractorFor(path string) ports.PageExtractor {
	for _, e := range uc.extractors {
		if e.Supports(path) {
			return e
		}
	}
	return nil
}
