package usecase

import (
	"math"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// dedupeBySimilarity drops near-duplicate units within one batch.
// Pairs are compared by embedding cosine similarity; when a pair meets
// the threshold the higher-index unit is dropped, so the earliest
// occurrence always survives. Relative order is preserved.
func dedupeBySimilarity(
	units []domain.RetrievalUnit,
	vectors [][]float32,
	threshold float64,
) ([]domain.RetrievalUnit, [][]float32) {
	if len(units) < 2 {
		return units, vectors
	}

	kept := make([]bool, len(units))
	for i := range kept {
		kept[i] = true
	}

	norms := make([]float64, len(vectors))
	for i, vec := range vectors {
		norms[i] = vectorNorm(vec)
	}

	for i := 0; i < len(units); i++ {
		if !kept[i] {
			continue
		}
		for j := i + 1; j < len(units); j++ {
			if !kept[j] {
				continue
			}
			if cosineSimilarity(vectors[i], vectors[j], norms[i], norms[j]) >= threshold {
				kept[j] = false
			}
		}
	}

	outUnits := make([]domain.RetrievalUnit, 0, len(units))
	outVectors := make([][]float32, 0, len(vectors))
	for i := range units {
		if kept[i] {
			outUnits = append(outUnits, units[i])
			outVectors = append(outVectors, vectors[i])
		}
	}
	return outUnits, outVectors
}

func cosineSimilarity(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
