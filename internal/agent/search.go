// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// searchStage runs every query concurrently. Each query's hits are claimed,
// resolved, scored, and attached at depth 0 under the query's branch. The
// hits then form the first frontier in query order.
func (a *Agent) searchStage(ctx context.Context, r *run, queries []string, opts Options, log *zap.Logger) error {
	branches := r.queryBranches(queries)

	k := opts.SearchPapers
	if a.source.Kind() == "dataset" && opts.SearchDatasets > 0 {
		k = opts.SearchDatasets
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.ThreadsNum)
	for i, q := range queries {
		b := branches[i]
		g.Go(func() error {
			return a.searchQuery(gctx, r, b, q, k, opts, log)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.seedFrontier()
	return nil
}

func (a *Agent) searchQuery(ctx context.Context, r *run, b *Branch, query string, k int, opts Options, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hits, err := a.source.Search(ctx, query, k, opts.EndDate)
	if err != nil {
		return fmt.Errorf("searching %q: %w", query, err)
	}

	var cands []Candidate
	for _, h := range hits {
		if !r.claim(h.ExternalID) {
			continue
		}
		c, ok, err := a.source.Resolve(ctx, h)
		if err != nil {
			return err
		}
		if ok {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		log.Debug("query found nothing new", zap.String("query", query), zap.Int("hits", len(hits)))
		return nil
	}

	scores, err := a.score(ctx, cands, r.query)
	if err != nil {
		return skipOrFail(err, opts, log, "skipping query batch", zap.String("query", query))
	}

	added := r.attach(nil, b, cands, scores, 0, "Query: "+query)
	log.Debug("query searched",
		zap.String("query", query),
		zap.Int("hits", len(hits)),
		zap.Int("added", len(added)))
	return nil
}
