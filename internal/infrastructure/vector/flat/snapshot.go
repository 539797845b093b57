package flat

import (
	"sort"
	"strings"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// snapshot is one immutable version of the index. Vectors live in a
// contiguous float32 arena for cache-friendly scans; folded holds the
// case-folded unit texts keyword matching runs against. A snapshot is
// never mutated after construction; the Index handle swaps whole
// snapshots instead.
type snapshot struct {
	dim    int
	arena  []float32
	units  []domain.RetrievalUnit
	folded []string
	nextID int64
}

func newSnapshot(dim int, arena []float32, units []domain.RetrievalUnit, nextID int64) *snapshot {
	folded := make([]string, len(units))
	for i, u := range units {
		folded[i] = strings.ToLower(u.Text)
	}
	return &snapshot{
		dim:    dim,
		arena:  arena,
		units:  units,
		folded: folded,
		nextID: nextID,
	}
}

func emptySnapshot() *snapshot {
	return newSnapshot(0, nil, nil, 1)
}

func (s *snapshot) count() int {
	return len(s.units)
}

func (s *snapshot) vector(i int) []float32 {
	start := i * s.dim
	return s.arena[start : start+s.dim]
}

// searchVector returns the k units with the smallest L2 distance to the
// query, annotated with similarity = 1/(1+distance). Distances are
// squared L2, matching flat exact-search convention; the transform is
// monotonic either way. Ties keep insertion order.
func (s *snapshot) searchVector(query []float32, k int) []domain.SearchResult {
	if k <= 0 || s.count() == 0 || len(query) != s.dim {
		return nil
	}

	distances := make([]float64, s.count())
	order := make([]int, s.count())
	for i := range order {
		order[i] = i
		distances[i] = squaredL2(query, s.vector(i))
	}

	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]domain.SearchResult, 0, k)
	for rank, idx := range order[:k] {
		out = append(out, domain.SearchResult{
			Unit:        s.units[idx],
			VectorScore: 1.0 / (1.0 + distances[idx]),
			Rank:        rank + 1,
		})
	}
	return out
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
