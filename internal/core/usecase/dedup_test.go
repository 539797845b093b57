package usecase

import (
	"testing"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

func dedupUnit(text string) domain.RetrievalUnit {
	return domain.NewChunkUnit(text, "guide.pdf", 1)
}

func TestDedupeBySimilarityDropsLaterDuplicate(t *testing.T) {
	units := []domain.RetrievalUnit{
		dedupUnit("first occurrence"),
		dedupUnit("near duplicate of first"),
		dedupUnit("unrelated"),
	}
	vectors := [][]float32{
		{1, 0},
		{1, 0.01},
		{0, 1},
	}

	gotUnits, gotVectors := dedupeBySimilarity(units, vectors, 0.93)
	if len(gotUnits) != 2 {
		t.Fatalf("expected 2 units after dedup, got %d", len(gotUnits))
	}
	if gotUnits[0].Text != "first occurrence" {
		t.Fatalf("earlier unit must survive, got %q", gotUnits[0].Text)
	}
	if gotUnits[1].Text != "unrelated" {
		t.Fatalf("non-duplicate must survive, got %q", gotUnits[1].Text)
	}
	if len(gotVectors) != 2 || gotVectors[1][1] != 1 {
		t.Fatalf("vectors must stay parallel to units: %v", gotVectors)
	}
}

func TestDedupeBySimilarityKeepsChains(t *testing.T) {
	// b duplicates a and is dropped; c is similar to b but not to a,
	// so c survives because dropped units take no further part.
	units := []domain.RetrievalUnit{
		dedupUnit("a"),
		dedupUnit("b"),
		dedupUnit("c"),
	}
	vectors := [][]float32{
		{1, 0},
		{0.97, 0.243},
		{0.88, 0.475},
	}

	gotUnits, _ := dedupeBySimilarity(units, vectors, 0.95)
	if len(gotUnits) != 2 {
		t.Fatalf("expected 2 units, got %d", len(gotUnits))
	}
	if gotUnits[0].Text != "a" || gotUnits[1].Text != "c" {
		t.Fatalf("expected a and c to survive, got %q and %q", gotUnits[0].Text, gotUnits[1].Text)
	}
}

func TestDedupeBySimilarityBelowThresholdKeepsAll(t *testing.T) {
	units := []domain.RetrievalUnit{dedupUnit("a"), dedupUnit("b")}
	vectors := [][]float32{
		{1, 0},
		{0.7, 0.714},
	}

	gotUnits, gotVectors := dedupeBySimilarity(units, vectors, 0.93)
	if len(gotUnits) != 2 || len(gotVectors) != 2 {
		t.Fatalf("expected all units kept, got %d", len(gotUnits))
	}
}

func TestDedupeBySimilaritySingleAndEmpty(t *testing.T) {
	units := []domain.RetrievalUnit{dedupUnit("only")}
	vectors := [][]float32{{1, 0}}

	gotUnits, _ := dedupeBySimilarity(units, vectors, 0.93)
	if len(gotUnits) != 1 {
		t.Fatalf("single unit must pass through, got %d", len(gotUnits))
	}

	gotUnits, gotVectors := dedupeBySimilarity(nil, nil, 0.93)
	if len(gotUnits) != 0 || len(gotVectors) != 0 {
		t.Fatalf("empty batch must stay empty")
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{1, 0}
	if got := cosineSimilarity(a, b, vectorNorm(a), vectorNorm(b)); got != 0 {
		t.Fatalf("zero vector similarity must be 0, got %v", got)
	}
}
