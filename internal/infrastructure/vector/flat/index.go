package flat

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// Index is the single owner of the unit list and the parallel vector
// list. Readers load the active snapshot pointer lock-free and always
// see a complete, consistent version; writers serialize on mu, build a
// replacement snapshot off to the side and swap it in atomically.
type Index struct {
	path string

	mu     sync.Mutex
	active atomic.Pointer[snapshot]
}

// New returns an empty index that will persist to path.
func New(path string) *Index {
	x := &Index{path: path}
	x.active.Store(emptySnapshot())
	return x
}

// Replace installs a freshly built unit/vector set, assigning new
// sequential IDs. Count and dimension mismatches are corruption, not
// something to repair silently.
func (x *Index) Replace(vectors [][]float32, units []domain.RetrievalUnit) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	snap, err := buildSnapshot(vectors, units)
	if err != nil {
		return err
	}
	x.active.Store(snap)
	return nil
}

// Append adds one vector/unit pair without touching existing entries.
// The unit receives the next stable ID.
func (x *Index) Append(vector []float32, unit domain.RetrievalUnit) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	cur := x.active.Load()
	dim := cur.dim
	if cur.count() == 0 {
		dim = len(vector)
	}
	if len(vector) == 0 || len(vector) != dim {
		return domain.WrapError(domain.ErrCorruptedIndex, "append unit",
			fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector), dim))
	}

	arena := make([]float32, 0, len(cur.arena)+dim)
	arena = append(arena, cur.arena...)
	arena = append(arena, vector...)

	unit.ID = cur.nextID
	units := make([]domain.RetrievalUnit, 0, len(cur.units)+1)
	units = append(units, cur.units...)
	units = append(units, unit)

	x.active.Store(newSnapshot(dim, arena, units, cur.nextID+1))
	return nil
}

// SearchVector returns the k nearest units to the query embedding.
func (x *Index) SearchVector(queryVector []float32, k int) []domain.SearchResult {
	return x.active.Load().searchVector(queryVector, k)
}

// SearchKeyword returns the k best lexical matches for the query.
func (x *Index) SearchKeyword(query string, k int) []domain.SearchResult {
	return x.active.Load().searchKeyword(query, k)
}

// Units returns a copy of the current unit list in insertion order.
func (x *Index) Units() []domain.RetrievalUnit {
	snap := x.active.Load()
	out := make([]domain.RetrievalUnit, len(snap.units))
	copy(out, snap.units)
	return out
}

// Dump returns copies of the unit list and the parallel embeddings,
// both taken from the same snapshot. A concurrent Append or Replace
// cannot make the two lists diverge in length.
func (x *Index) Dump() ([]domain.RetrievalUnit, [][]float32) {
	snap := x.active.Load()

	units := make([]domain.RetrievalUnit, len(snap.units))
	copy(units, snap.units)

	vectors := make([][]float32, snap.count())
	for i := range vectors {
		vec := make([]float32, snap.dim)
		copy(vec, snap.vector(i))
		vectors[i] = vec
	}
	return units, vectors
}

// Count reports how many units the active snapshot holds.
func (x *Index) Count() int {
	return x.active.Load().count()
}

// Dimension reports the embedding dimension, 0 while empty.
func (x *Index) Dimension() int {
	return x.active.Load().dim
}

func buildSnapshot(vectors [][]float32, units []domain.RetrievalUnit) (*snapshot, error) {
	if len(vectors) != len(units) {
		return nil, domain.WrapError(domain.ErrCorruptedIndex, "build index",
			fmt.Errorf("vectors/units count mismatch: %d/%d", len(vectors), len(units)))
	}
	if len(vectors) == 0 {
		return emptySnapshot(), nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, domain.WrapError(domain.ErrCorruptedIndex, "build index",
			fmt.Errorf("zero-length embedding at position 0"))
	}

	arena := make([]float32, 0, len(vectors)*dim)
	assigned := make([]domain.RetrievalUnit, len(units))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, domain.WrapError(domain.ErrCorruptedIndex, "build index",
				fmt.Errorf("inconsistent embedding dimension at position %d: %d != %d", i, len(vec), dim))
		}
		arena = append(arena, vec...)
		assigned[i] = units[i]
		assigned[i].ID = int64(i + 1)
	}

	return newSnapshot(dim, arena, assigned, int64(len(units)+1)), nil
}
