// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/embedding"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// fuzzyTitleCandidates is how many nearest neighbours FuzzyTitle inspects.
const fuzzyTitleCandidates = 5

// PaperIndex is the semantic index over papers.
type PaperIndex struct {
	*Index[types.Paper]
}

// NewPaperIndex returns an uninitialised paper index.
func NewPaperIndex(p embedding.Provider, log *zap.Logger) *PaperIndex {
	return &PaperIndex{Index: New[types.Paper](p, log)}
}

// Search returns up to k papers nearest to query. Papers dated after cutoff
// are dropped; papers with unparseable dates are kept. A zero cutoff disables
// the filter. Papers without an external ID are skipped.
func (px *PaperIndex) Search(ctx context.Context, query string, k int, cutoff time.Time) ([]Hit[types.Paper], error) {
	hits, err := px.SearchByText(ctx, query, k)
	if err != nil {
		return nil, err
	}

	out := make([]Hit[types.Paper], 0, k)
	for _, h := range hits {
		if len(out) >= k {
			break
		}
		if h.Item.ExternalID == "" {
			continue
		}
		if !cutoff.IsZero() {
			if d, ok := types.ParseDate(h.Item.Date); ok && d.After(cutoff) {
				continue
			}
		}
		out = append(out, h)
	}
	return out, nil
}

// Similar returns up to k papers nearest to the indexed paper id.
func (px *PaperIndex) Similar(id string, k int) ([]types.ScoredPaper, error) {
	hits, err := px.SearchByItem(id, k)
	if err != nil {
		return nil, err
	}
	out := make([]types.ScoredPaper, len(hits))
	for i, h := range hits {
		out[i] = types.ScoredPaper{Paper: h.Item, Similarity: h.Similarity}
	}
	return out, nil
}

// FuzzyTitle finds the paper whose title matches title. Among the nearest
// candidates it keeps those whose title contains, or is contained in, the
// query title ignoring case, and returns the closest one.
func (px *PaperIndex) FuzzyTitle(ctx context.Context, title string) (types.Paper, bool, error) {
	if !px.Ready() {
		return types.Paper{}, false, ErrNotInitialized
	}
	vec, err := px.provider.Embed(ctx, title)
	if err != nil {
		return types.Paper{}, false, err
	}
	hits, err := px.nearest(vec, fuzzyTitleCandidates, -1)
	if err != nil {
		return types.Paper{}, false, err
	}

	want := strings.ToLower(title)
	for _, h := range hits {
		got := strings.ToLower(h.Item.Title)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return h.Item, true, nil
		}
	}
	return types.Paper{}, false, nil
}
