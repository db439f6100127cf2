// Package vector provides an exact nearest-neighbor index over fixed-dimension
// embeddings, plus distance and similarity helpers.
package vector

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDimensionMismatch marks a vector whose length does not match the index dimension.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Entry pairs an entity id with its embedding. The id always travels with the
// vector in the same record so the id-to-score mapping of search results cannot
// drift from the vectors it was built with.
type Entry struct {
	ID     string
	Vector []float32
}

// Result is a single search hit.
type Result struct {
	ID string
	// Distance is the squared Euclidean distance to the query. Lower is more similar.
	Distance float64
}

// Index is an exact linear-scan nearest-neighbor index. Build replaces the
// whole contents; Search is a read-only O(N*d) scan. Build and Search are safe
// to call concurrently: a search sees either the previous or the new contents,
// never a partially replaced one.
type Index struct {
	dimensions int
	entries    []Entry
	mu         sync.RWMutex
}

// New creates an empty index for vectors of the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &Index{dimensions: dimensions}, nil
}

// Build replaces the index contents with entries. The order of entries is
// preserved; search ties are broken by this insertion ordinal. Vectors are
// copied, so callers may reuse their slices. Returns ErrDimensionMismatch
// (wrapped) if any vector has the wrong length, leaving the index unchanged.
func (idx *Index) Build(entries []Entry) error {
	replacement := make([]Entry, len(entries))
	for i, e := range entries {
		if len(e.Vector) != idx.dimensions {
			return fmt.Errorf("%w: entry %q has %d dimensions, index expects %d",
				ErrDimensionMismatch, e.ID, len(e.Vector), idx.dimensions)
		}
		vec := make([]float32, idx.dimensions)
		copy(vec, e.Vector)
		replacement[i] = Entry{ID: e.ID, Vector: vec}
	}
	idx.mu.Lock()
	idx.entries = replacement
	idx.mu.Unlock()
	return nil
}

// Search returns up to k entries ranked by ascending squared Euclidean
// distance to query. Ties are broken by insertion ordinal (earlier wins).
// Returns fewer than k results when the index holds fewer entries, and an
// empty slice for an empty index or k <= 0.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(query), idx.dimensions)
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	results := make([]Result, len(idx.entries))
	for i, e := range idx.entries {
		results[i] = Result{ID: e.ID, Distance: SquaredL2(query, e.Vector)}
	}
	// Stable sort keeps insertion order among equal distances.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the number of entries in the index.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimensions returns the configured vector dimension.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}
