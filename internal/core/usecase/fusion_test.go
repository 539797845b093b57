package usecase

import (
	"math"
	"testing"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

func vectorResult(id int64, text string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Unit:        domain.RetrievalUnit{ID: id, Text: text, Kind: domain.KindDocumentChunk},
		VectorScore: score,
	}
}

func keywordResult(id int64, text string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Unit:         domain.RetrievalUnit{ID: id, Text: text, Kind: domain.KindDocumentChunk},
		KeywordScore: score,
	}
}

func resultIDs(results []domain.SearchResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.Unit.ID
	}
	return ids
}

func TestFuseHybridCombinesBothSignals(t *testing.T) {
	vector := []domain.SearchResult{
		vectorResult(1, "visa fee overview", 0.8),
		vectorResult(2, "application steps", 0.5),
	}
	keyword := []domain.SearchResult{
		keywordResult(2, "application steps", 1.0),
		keywordResult(3, "processing times", 0.4),
	}

	fused := fuseHybrid(vector, keyword, 0.3, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}

	// unit 2: 0.3*0.5 + 0.7*1.0 = 0.85, unit 3: 0.28, unit 1: 0.24
	wantOrder := []int64{2, 3, 1}
	for i, id := range wantOrder {
		if fused[i].Unit.ID != id {
			t.Fatalf("position %d: expected unit %d, got %d", i, id, fused[i].Unit.ID)
		}
		if fused[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, fused[i].Rank)
		}
	}
	if math.Abs(fused[0].CombinedScore-0.85) > 1e-9 {
		t.Fatalf("expected combined score 0.85, got %v", fused[0].CombinedScore)
	}
	if fused[2].KeywordScore != 0 {
		t.Fatalf("unit absent from keyword list must contribute zero, got %v", fused[2].KeywordScore)
	}
}

func TestFuseHybridAlphaOneIsPureVectorRanking(t *testing.T) {
	vector := []domain.SearchResult{
		vectorResult(1, "a", 0.9),
		vectorResult(2, "b", 0.6),
		vectorResult(3, "c", 0.3),
	}
	keyword := []domain.SearchResult{
		keywordResult(3, "c", 1.0),
		keywordResult(2, "b", 0.8),
	}

	fused := fuseHybrid(vector, keyword, 1.0, 10)
	got := resultIDs(fused)
	want := []int64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pure vector order %v, got %v", want, got)
		}
	}
}

func TestFuseHybridAlphaZeroIsPureKeywordRanking(t *testing.T) {
	vector := []domain.SearchResult{
		vectorResult(1, "a", 0.9),
		vectorResult(2, "b", 0.6),
	}
	keyword := []domain.SearchResult{
		keywordResult(3, "c", 1.0),
		keywordResult(2, "b", 0.8),
	}

	fused := fuseHybrid(vector, keyword, 0.0, 10)
	got := resultIDs(fused)
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pure keyword order %v, got %v", want, got)
		}
	}
}

func TestFuseHybridTruncatesToK(t *testing.T) {
	vector := []domain.SearchResult{
		vectorResult(1, "a", 0.9),
		vectorResult(2, "b", 0.8),
		vectorResult(3, "c", 0.7),
	}

	fused := fuseHybrid(vector, nil, 1.0, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
	if fused[0].Unit.ID != 1 || fused[1].Unit.ID != 2 {
		t.Fatalf("unexpected order after truncation: %v", resultIDs(fused))
	}
}

func TestFilterAndDeduplicateCollapsesSurfaceVariants(t *testing.T) {
	results := []domain.SearchResult{
		{Unit: domain.RetrievalUnit{ID: 1, Text: "The fee is $500."}, CombinedScore: 0.9},
		{Unit: domain.RetrievalUnit{ID: 2, Text: "The fee is $500!"}, CombinedScore: 0.8},
		{Unit: domain.RetrievalUnit{ID: 3, Text: "Completely different content here"}, CombinedScore: 0.7},
	}

	kept := filterAndDeduplicate(results, 5, 0.9)
	if len(kept) != 2 {
		t.Fatalf("expected surface variants to collapse, got %d results", len(kept))
	}
	if kept[0].Unit.ID != 1 {
		t.Fatalf("expected higher-scored variant kept, got unit %d", kept[0].Unit.ID)
	}
	if kept[1].Unit.ID != 3 {
		t.Fatalf("expected distinct result kept, got unit %d", kept[1].Unit.ID)
	}
}

func TestFilterAndDeduplicateStopsAtFinalK(t *testing.T) {
	results := []domain.SearchResult{
		{Unit: domain.RetrievalUnit{ID: 1, Text: "alpha one"}, CombinedScore: 0.5},
		{Unit: domain.RetrievalUnit{ID: 2, Text: "beta two"}, CombinedScore: 0.9},
		{Unit: domain.RetrievalUnit{ID: 3, Text: "gamma three"}, CombinedScore: 0.7},
	}

	kept := filterAndDeduplicate(results, 2, 0.9)
	if len(kept) != 2 {
		t.Fatalf("expected 2 results, got %d", len(kept))
	}
	if kept[0].Unit.ID != 2 || kept[1].Unit.ID != 3 {
		t.Fatalf("expected best-first order after re-sort, got %v", resultIDs(kept))
	}
	if kept[0].Rank != 1 || kept[1].Rank != 2 {
		t.Fatalf("ranks not reassigned: %d, %d", kept[0].Rank, kept[1].Rank)
	}
}

func TestJaccardMixedScripts(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical after normalization", a: "E-2ビザの費用", b: "e2ビザの費用!", want: 1.0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0.0},
		{name: "both empty", a: "", b: "", want: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(charSet(tt.a), charSet(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
