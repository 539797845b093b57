package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

type extractorFake struct {
	ext   string
	pages map[string][]domain.Page
	err   error
}

func (f *extractorFake) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), f.ext)
}

func (f *extractorFake) ExtractPages(_ context.Context, path string) ([]domain.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[filepath.Base(path)], nil
}

type chunkerFake struct{}

func (chunkerFake) Split(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "|")
}

func writeDoc(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuildCorpusFromDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.pdf")
	writeDoc(t, dir, "notes.txt")

	extractor := &extractorFake{
		ext: ".pdf",
		pages: map[string][]domain.Page{
			"guide.pdf": {
				{Text: "first|second", Number: 1, SourceID: "guide.pdf"},
				{Text: "third", Number: 2, SourceID: "guide.pdf"},
			},
		},
	}
	index := &indexFake{}
	uc := NewBuildCorpusUseCase(
		[]ports.PageExtractor{extractor},
		chunkerFake{},
		&embedderFake{},
		index,
		0.93,
	)

	if err := uc.BuildFromDocuments(context.Background(), dir); err != nil {
		t.Fatalf("BuildFromDocuments() error = %v", err)
	}
	if len(index.replaceUnits) != 3 {
		t.Fatalf("expected 3 indexed units, got %d", len(index.replaceUnits))
	}
	if index.replaceUnits[0].Text != "first" || index.replaceUnits[0].PageNumber != 1 {
		t.Fatalf("unexpected first unit: %+v", index.replaceUnits[0])
	}
	if index.replaceUnits[2].Text != "third" || index.replaceUnits[2].PageNumber != 2 {
		t.Fatalf("unexpected last unit: %+v", index.replaceUnits[2])
	}
	if index.replaceUnits[0].SourceID != "guide.pdf" {
		t.Fatalf("unexpected source id %q", index.replaceUnits[0].SourceID)
	}
	if index.saveCalls != 1 {
		t.Fatalf("expected index persisted once, got %d saves", index.saveCalls)
	}
}

func TestBuildCorpusDropsNearDuplicateChunks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.pdf")

	extractor := &extractorFake{
		ext: ".pdf",
		pages: map[string][]domain.Page{
			"guide.pdf": {{Text: "a|b", Number: 1, SourceID: "guide.pdf"}},
		},
	}
	// Identical vectors for both chunks force the duplicate drop.
	embedder := &sameVectorEmbedder{}
	index := &indexFake{}
	uc := NewBuildCorpusUseCase([]ports.PageExtractor{extractor}, chunkerFake{}, embedder, index, 0.93)

	if err := uc.BuildFromDocuments(context.Background(), dir); err != nil {
		t.Fatalf("BuildFromDocuments() error = %v", err)
	}
	if len(index.replaceUnits) != 1 {
		t.Fatalf("expected duplicate chunk dropped, got %d units", len(index.replaceUnits))
	}
	if index.replaceUnits[0].Text != "a" {
		t.Fatalf("earlier chunk must survive, got %q", index.replaceUnits[0].Text)
	}
}

type sameVectorEmbedder struct{}

func (sameVectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (sameVectorEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestBuildCorpusNoSupportedDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "notes.txt")

	uc := NewBuildCorpusUseCase(
		[]ports.PageExtractor{&extractorFake{ext: ".pdf"}},
		chunkerFake{},
		&embedderFake{},
		&indexFake{},
		0.93,
	)

	err := uc.BuildFromDocuments(context.Background(), dir)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildCorpusExtractionFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.pdf")

	extractor := &extractorFake{ext: ".pdf", err: errors.New("broken file")}
	index := &indexFake{}
	uc := NewBuildCorpusUseCase([]ports.PageExtractor{extractor}, chunkerFake{}, &embedderFake{}, index, 0.93)

	if err := uc.BuildFromDocuments(context.Background(), dir); err == nil {
		t.Fatalf("expected error")
	}
	if index.saveCalls != 0 {
		t.Fatalf("index must not be persisted after a failed build")
	}
}

func TestBuildCorpusEmbedFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.pdf")

	extractor := &extractorFake{
		ext: ".pdf",
		pages: map[string][]domain.Page{
			"guide.pdf": {{Text: "only", Number: 1, SourceID: "guide.pdf"}},
		},
	}
	index := &indexFake{}
	uc := NewBuildCorpusUseCase(
		[]ports.PageExtractor{extractor},
		chunkerFake{},
		&embedderFake{batchErr: errors.New("provider down")},
		index,
		0.93,
	)

	if err := uc.BuildFromDocuments(context.Background(), dir); err == nil {
		t.Fatalf("expected error")
	}
	if len(index.replaceUnits) != 0 || index.saveCalls != 0 {
		t.Fatalf("index must stay untouched after a failed build")
	}
}
