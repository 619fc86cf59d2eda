// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/embedding"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// RRF damping constant and popularity weight.
const (
	rrfK     = 60.0
	rrfGamma = 1.0
)

// DatasetIndex is the semantic index over datasets.
type DatasetIndex struct {
	*Index[types.Dataset]
}

// NewDatasetIndex returns an uninitialised dataset index.
func NewDatasetIndex(p embedding.Provider, log *zap.Logger) *DatasetIndex {
	return &DatasetIndex{Index: New[types.Dataset](p, log)}
}

// RankedDataset is a dataset search result with its fused ranking.
type RankedDataset struct {
	Dataset types.Dataset `json:"dataset" yaml:"dataset"`

	Distance       float64 `json:"distance" yaml:"distance"`
	DistanceRank   int     `json:"distance_rank" yaml:"distance_rank"`
	PopularityRank int     `json:"popularity_rank" yaml:"popularity_rank"`
	RRFScore       float64 `json:"rrf_score" yaml:"rrf_score"`

	// Rank is the 1-based position after fusion.
	Rank int `json:"rank" yaml:"rank"`
}

// Search over-fetches by embedding distance, re-ranks by paper count, and
// returns the top k by reciprocal rank fusion of the two orderings.
func (dx *DatasetIndex) Search(ctx context.Context, query string, k int) ([]RankedDataset, error) {
	hits, err := dx.SearchByText(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return FuseByPopularity(hits, k), nil
}

// FuseByPopularity applies RRF over distance rank and popularity rank. Both
// sorts are stable so ties keep distance order.
func FuseByPopularity(hits []Hit[types.Dataset], k int) []RankedDataset {
	ranked := make([]RankedDataset, len(hits))
	for i, h := range hits {
		ranked[i] = RankedDataset{Dataset: h.Item, Distance: h.Distance, DistanceRank: h.Rank}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Dataset.NumPapers > ranked[b].Dataset.NumPapers
	})
	for i := range ranked {
		ranked[i].PopularityRank = i + 1
		ranked[i].RRFScore = 1/(rrfK+float64(ranked[i].DistanceRank)) + rrfGamma/(rrfK+float64(ranked[i].PopularityRank))
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].RRFScore > ranked[b].RRFScore
	})
	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Similar returns up to k datasets nearest to the indexed dataset id.
func (dx *DatasetIndex) Similar(id string, k int) ([]Hit[types.Dataset], error) {
	return dx.SearchByItem(id, k)
}
