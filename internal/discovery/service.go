// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery binds the corpus, the semantic indexes, and the LLM
// services into the paper and dataset agents served by the CLI, the HTTP
// API, and the MCP tools.
package discovery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/agent"
	"github.com/pdiddy/scholar-agent/internal/corpus"
	"github.com/pdiddy/scholar-agent/internal/filter"
	"github.com/pdiddy/scholar-agent/internal/index"
	"github.com/pdiddy/scholar-agent/internal/llm"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Overrides replaces individual agent budgets for one request. Nil fields
// keep the configured defaults.
type Overrides struct {
	ExpandLayers   *int `json:"expand_layers,omitempty" yaml:"expand_layers,omitempty"`
	SearchQueries  *int `json:"search_queries,omitempty" yaml:"search_queries,omitempty"`
	SearchPapers   *int `json:"search_papers,omitempty" yaml:"search_papers,omitempty"`
	SearchDatasets *int `json:"search_datasets,omitempty" yaml:"search_datasets,omitempty"`
	ExpandPapers   *int `json:"expand_papers,omitempty" yaml:"expand_papers,omitempty"`
	ThreadsNum     *int `json:"threads_num,omitempty" yaml:"threads_num,omitempty"`

	// EndDate is YYYYMMDD or YYYY-MM-DD; empty means today.
	EndDate string `json:"end_date,omitempty" yaml:"end_date,omitempty"`

	Answer []string `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// Apply returns base with the overrides applied.
func (o Overrides) Apply(base types.AgentConfig) (agent.Options, error) {
	opts := agent.Options{AgentConfig: base, Answer: o.Answer}
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&opts.ExpandLayers, o.ExpandLayers)
	set(&opts.SearchQueries, o.SearchQueries)
	set(&opts.SearchPapers, o.SearchPapers)
	set(&opts.SearchDatasets, o.SearchDatasets)
	set(&opts.ExpandPapers, o.ExpandPapers)
	set(&opts.ThreadsNum, o.ThreadsNum)

	if o.EndDate != "" {
		end, err := agent.ParseEndDate(o.EndDate)
		if err != nil {
			return opts, err
		}
		opts.EndDate = end
	}
	return opts, opts.Validate()
}

// PaperRequest asks for papers answering Query.
type PaperRequest struct {
	Query   string    `json:"query" yaml:"query"`
	Options Overrides `json:"options" yaml:"options"`
}

// DatasetRequest asks for datasets answering Query. Constraints wins over
// Where, a free-text description of the constraints.
type DatasetRequest struct {
	Query       string              `json:"query" yaml:"query"`
	Where       string              `json:"where,omitempty" yaml:"where,omitempty"`
	Constraints *filter.Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Options     Overrides           `json:"options" yaml:"options"`
}

// Searcher is the operation set the surfaces expose.
type Searcher interface {
	SearchPapers(ctx context.Context, req PaperRequest) (*agent.Result, error)
	SearchDatasets(ctx context.Context, req DatasetRequest) (*agent.Result, error)
	Health(ctx context.Context) Health
}

// Health reports what the service can answer.
type Health struct {
	PapersIndexed   int    `json:"papers_indexed" yaml:"papers_indexed"`
	DatasetsIndexed int    `json:"datasets_indexed" yaml:"datasets_indexed"`
	LLMProvider     string `json:"llm_provider" yaml:"llm_provider"`
}

// Ready reports whether at least one agent can run.
func (h Health) Ready() bool {
	return h.PapersIndexed > 0 || h.DatasetsIndexed > 0
}

// Deps are the components a Service is built from. Store may be nil.
type Deps struct {
	Store    *corpus.Store
	Papers   *index.PaperIndex
	Datasets *index.DatasetIndex
	LLM      llm.Services
	Defaults types.AgentConfig
	Log      *zap.Logger
}

// Service runs discovery requests. Indexes must be built before New.
type Service struct {
	deps     Deps
	papers   *agent.Agent
	datasets *index.DatasetIndex
	log      *zap.Logger
}

// New returns a service over deps.
func New(deps Deps) *Service {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	var lookup agent.PaperLookup
	if deps.Store != nil {
		lookup = storeLookup(deps.Store)
	}
	return &Service{
		deps:     deps,
		papers:   agent.New(agent.NewPaperSource(deps.Papers, lookup), deps.LLM.Crawler, deps.LLM.Selector, deps.Log.Named("papers")),
		datasets: deps.Datasets,
		log:      deps.Log,
	}
}

// SearchPapers runs the paper agent.
func (s *Service) SearchPapers(ctx context.Context, req PaperRequest) (*agent.Result, error) {
	opts, err := req.Options.Apply(s.deps.Defaults)
	if err != nil {
		return nil, err
	}
	return s.papers.Run(ctx, req.Query, opts)
}

// SearchDatasets runs the dataset agent with the request's constraints.
func (s *Service) SearchDatasets(ctx context.Context, req DatasetRequest) (*agent.Result, error) {
	opts, err := req.Options.Apply(s.deps.Defaults)
	if err != nil {
		return nil, err
	}

	var c filter.Constraints
	switch {
	case req.Constraints != nil:
		c = *req.Constraints
	case req.Where != "":
		c = filter.ParseConstraints(req.Where)
	}
	if !c.IsZero() {
		s.log.Debug("dataset constraints", zap.Any("constraints", c))
	}

	a := agent.New(agent.NewDatasetSource(s.datasets, c), s.deps.LLM.Crawler, s.deps.LLM.Selector, s.log.Named("datasets"))
	return a.Run(ctx, req.Query, opts)
}

// Health implements Searcher.
func (s *Service) Health(_ context.Context) Health {
	return Health{
		PapersIndexed:   s.deps.Papers.Len(),
		DatasetsIndexed: s.deps.Datasets.Len(),
		LLMProvider:     string(s.deps.LLM.Provider),
	}
}

// Close releases the corpus store.
func (s *Service) Close() error {
	if s.deps.Store == nil {
		return nil
	}
	return s.deps.Store.Close()
}

func storeLookup(store *corpus.Store) agent.PaperLookup {
	return func(ctx context.Context, id string) (types.Paper, bool, error) {
		p, err := store.PaperByExternalID(ctx, id)
		if errors.Is(err, corpus.ErrNotFound) {
			return types.Paper{}, false, nil
		}
		if err != nil {
			return types.Paper{}, false, err
		}
		return p, true, nil
	}
}
