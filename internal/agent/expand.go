// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// expandLayer sorts the frontier, caps it beyond the first layer, and has
// ThreadsNum workers pull nodes from the front of the work list. Each worker
// fetches similar items for its node, claims the new ones, scores them, and
// attaches them one level deeper.
func (a *Agent) expandLayer(ctx context.Context, r *run, depth int, opts Options, log *zap.Logger) (LayerStats, error) {
	work := r.nextLayer(depth, opts.ExpandPapers)
	stats := LayerStats{Depth: depth, Expanded: len(work)}
	if len(work) == 0 {
		return stats, nil
	}

	before := r.added()
	wl := &workList{items: work}
	workers := min(opts.ThreadsNum, len(work))

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				n, ok := wl.pop()
				if !ok {
					return nil
				}
				if err := a.expandNode(gctx, r, n, opts, log); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Added = r.added() - before
	log.Info("layer expanded",
		zap.Int("depth", depth),
		zap.Int("expanded", stats.Expanded),
		zap.Int("added", stats.Added))
	return stats, nil
}

func (a *Agent) expandNode(ctx context.Context, r *run, parent *Node, opts Options, log *zap.Logger) error {
	if parent.ExternalID == "" {
		return nil
	}
	sims, err := a.source.Similar(ctx, parent, opts.SimilarPerNode)
	if err != nil {
		return fmt.Errorf("similar to %s: %w", parent.ExternalID, err)
	}

	var cands []Candidate
	for _, c := range sims {
		if c.ExternalID == "" || !r.claim(c.ExternalID) {
			continue
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return nil
	}

	scores, err := a.score(ctx, cands, r.query)
	if err != nil {
		return skipOrFail(err, opts, log, "skipping expansion batch", zap.String("parent", parent.ExternalID))
	}

	r.attach(parent, nil, cands, scores, parent.Depth+1, "Similar to: "+parent.Title)
	return nil
}
