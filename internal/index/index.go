// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index is the semantic index over a fixed corpus of papers or
// datasets. It embeds every item once at Build time and answers nearest
// neighbour queries by exact squared-L2 distance over the stored vectors.
//
// An Index is read-only after Build and safe for concurrent searches.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/embedding"
)

// Errors returned by index operations.
var (
	ErrNotInitialized     = errors.New("semantic index not initialized")
	ErrEmptyCorpus        = errors.New("semantic index corpus is empty")
	ErrItemNotIndexed     = errors.New("item not in semantic index")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrUnsupportedVersion = errors.New("unsupported index snapshot version")
)

// Item is a corpus record the index can embed.
type Item interface {
	Key() string
	EmbeddingText() string
	ItemTitle() string
}

// Hit is one nearest-neighbour result.
type Hit[T Item] struct {
	Item T

	// Distance is the squared L2 distance to the query vector.
	Distance float64

	// Rank is the 1-based position by distance.
	Rank int

	// Similarity is 1/(1+Distance), set by item-to-item searches.
	Similarity float64
}

// Index holds a corpus and its embedding matrix.
type Index[T Item] struct {
	provider embedding.Provider
	log      *zap.Logger

	mu      sync.RWMutex
	ready   bool
	items   []T
	vectors [][]float32
	byKey   map[string]int
}

// New returns an uninitialised index that embeds with p.
func New[T Item](p embedding.Provider, log *zap.Logger) *Index[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index[T]{provider: p, log: log}
}

// Build embeds every item in one batch and replaces the index contents.
// Items sharing a non-empty key are indexed once (first occurrence wins).
// An empty corpus leaves the index uninitialised and returns ErrEmptyCorpus.
func (ix *Index[T]) Build(ctx context.Context, items []T) error {
	return ix.build(ctx, items, nil)
}

func (ix *Index[T]) build(ctx context.Context, items []T, cached map[string]SnapshotEntry) error {
	items = uniqueByKey(items)
	if len(items) == 0 {
		ix.reset()
		return ErrEmptyCorpus
	}

	vectors := make([][]float32, len(items))
	var missing []int
	var texts []string
	for i, it := range items {
		text := it.EmbeddingText()
		if e, ok := cached[it.Key()]; ok && it.Key() != "" && e.TextHash == textHash(text) {
			vectors[i] = e.Vector
			continue
		}
		missing = append(missing, i)
		texts = append(texts, text)
	}

	if len(texts) > 0 {
		embedded, err := ix.provider.EmbedBatch(ctx, texts)
		if err != nil {
			ix.reset()
			return fmt.Errorf("embedding corpus: %w", err)
		}
		if len(embedded) != len(texts) {
			ix.reset()
			return fmt.Errorf("embedding corpus: got %d vectors for %d texts", len(embedded), len(texts))
		}
		for j, i := range missing {
			vectors[i] = embedded[j]
		}
	}

	dims := ix.provider.Dimensions()
	for i, v := range vectors {
		if len(v) != dims {
			ix.reset()
			return fmt.Errorf("%w: item %q has %d dimensions, want %d", ErrDimensionMismatch, items[i].Key(), len(v), dims)
		}
	}

	byKey := make(map[string]int, len(items))
	for i, it := range items {
		if k := it.Key(); k != "" {
			byKey[k] = i
		}
	}

	ix.mu.Lock()
	ix.items = items
	ix.vectors = vectors
	ix.byKey = byKey
	ix.ready = true
	ix.mu.Unlock()

	ix.log.Info("semantic index built",
		zap.Int("items", len(items)),
		zap.Int("embedded", len(texts)),
		zap.Int("reused", len(items)-len(texts)),
		zap.String("model", ix.provider.ModelName()))
	return nil
}

func (ix *Index[T]) reset() {
	ix.mu.Lock()
	ix.ready = false
	ix.items = nil
	ix.vectors = nil
	ix.byKey = nil
	ix.mu.Unlock()
}

// Ready reports whether Build has completed successfully.
func (ix *Index[T]) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// Len returns the number of indexed items (0 before Build).
func (ix *Index[T]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// Items returns the indexed corpus in index order.
func (ix *Index[T]) Items() []T {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]T(nil), ix.items...)
}

// Lookup returns the item stored under key.
func (ix *Index[T]) Lookup(key string) (T, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var zero T
	if !ix.ready {
		return zero, false
	}
	i, ok := ix.byKey[key]
	if !ok {
		return zero, false
	}
	return ix.items[i], true
}

// SearchByText embeds query and returns up to 2k nearest items ordered by
// distance. The over-fetch leaves room for callers to filter or re-rank.
func (ix *Index[T]) SearchByText(ctx context.Context, query string, k int) ([]Hit[T], error) {
	if !ix.Ready() {
		return nil, ErrNotInitialized
	}
	vec, err := ix.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return ix.nearest(vec, 2*k, -1)
}

// SearchByItem returns up to k items nearest to the stored vector of key,
// excluding the item itself, each carrying Similarity = 1/(1+distance).
func (ix *Index[T]) SearchByItem(key string, k int) ([]Hit[T], error) {
	ix.mu.RLock()
	if !ix.ready {
		ix.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	i, ok := ix.byKey[key]
	if !ok {
		ix.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrItemNotIndexed, key)
	}
	vec := ix.vectors[i]
	ix.mu.RUnlock()

	hits, err := ix.nearest(vec, k, i)
	if err != nil {
		return nil, err
	}
	for j := range hits {
		hits[j].Similarity = 1 / (1 + hits[j].Distance)
	}
	return hits, nil
}

// nearest scans all vectors and returns the n closest, skipping position
// exclude. Ties keep index order.
func (ix *Index[T]) nearest(query []float32, n, exclude int) ([]Hit[T], error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.ready {
		return nil, ErrNotInitialized
	}
	if len(query) != len(ix.vectors[0]) {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), len(ix.vectors[0]))
	}
	if n <= 0 {
		return []Hit[T]{}, nil
	}

	type scored struct {
		pos  int
		dist float64
	}
	all := make([]scored, 0, len(ix.vectors))
	for i, v := range ix.vectors {
		if i == exclude {
			continue
		}
		all = append(all, scored{pos: i, dist: squaredL2(query, v)})
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	if len(all) > n {
		all = all[:n]
	}
	hits := make([]Hit[T], len(all))
	for r, s := range all {
		hits[r] = Hit[T]{Item: ix.items[s.pos], Distance: s.dist, Rank: r + 1}
	}
	return hits, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func uniqueByKey[T Item](items []T) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if k != "" {
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, it)
	}
	return out
}
