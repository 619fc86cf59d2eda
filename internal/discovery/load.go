// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/scholar-agent/internal/corpus"
	"github.com/pdiddy/scholar-agent/internal/embedding"
	"github.com/pdiddy/scholar-agent/internal/index"
	"github.com/pdiddy/scholar-agent/internal/llm"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Indexes are the semantic indexes built from one corpus.
type Indexes struct {
	Papers   *index.PaperIndex
	Datasets *index.DatasetIndex
}

// BuildIndexes embeds the stored corpus, reusing the snapshots named in cfg.
// An empty half of the corpus leaves that index uninitialised; agents over
// it report index.ErrNotInitialized.
func BuildIndexes(ctx context.Context, store *corpus.Store, p embedding.Provider, cfg types.CorpusConfig, log *zap.Logger) (Indexes, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ix := Indexes{
		Papers:   index.NewPaperIndex(p, log.Named("papers")),
		Datasets: index.NewDatasetIndex(p, log.Named("datasets")),
	}

	papers, err := store.Papers(ctx)
	if err != nil {
		return ix, err
	}
	datasets, err := store.Datasets(ctx)
	if err != nil {
		return ix, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreEmpty(ix.Papers.BuildCached(gctx, papers, cfg.PapersIndex), "papers", log)
	})
	g.Go(func() error {
		return ignoreEmpty(ix.Datasets.BuildCached(gctx, datasets, cfg.DatasetsIndex), "datasets", log)
	})
	if err := g.Wait(); err != nil {
		return ix, fmt.Errorf("building indexes: %w", err)
	}
	return ix, nil
}

func ignoreEmpty(err error, corpusName string, log *zap.Logger) error {
	if errors.Is(err, index.ErrEmptyCorpus) {
		log.Warn("corpus is empty, index left uninitialised", zap.String("corpus", corpusName))
		return nil
	}
	return err
}

// Load opens the corpus, builds both indexes, and connects the LLM services.
// useMock replaces the configured LLM provider with the offline mock.
func Load(ctx context.Context, cfg types.Config, useMock bool, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	store, err := corpus.Open(cfg.Corpus.DBPath, log.Named("corpus"))
	if err != nil {
		return nil, err
	}

	p, err := embedding.New(cfg.Embedding)
	if err != nil {
		store.Close()
		return nil, err
	}

	ix, err := BuildIndexes(ctx, store, p, cfg.Corpus, log.Named("index"))
	if err != nil {
		store.Close()
		return nil, err
	}

	services, err := llm.New(cfg.LLM, useMock)
	if err != nil {
		store.Close()
		return nil, err
	}

	log.Info("discovery service ready",
		zap.Int("papers", ix.Papers.Len()),
		zap.Int("datasets", ix.Datasets.Len()),
		zap.String("embedding_model", p.ModelName()),
		zap.String("llm", string(services.Provider)))

	return New(Deps{
		Store:    store,
		Papers:   ix.Papers,
		Datasets: ix.Datasets,
		LLM:      services,
		Defaults: cfg.Agent,
		Log:      log,
	}), nil
}
