// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the discovery loop: generate search queries, search the
// corpus, score hits for relevance, and expand through similar items layer by
// layer while recording every discovery in a provenance tree.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/index"
	"github.com/pdiddy/scholar-agent/internal/llm"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Errors returned by Run.
var (
	ErrInvalidOptions = errors.New("invalid agent options")
	ErrEmptyQuery     = errors.New("empty user query")
)

// Options tunes one run.
type Options struct {
	types.AgentConfig

	// EndDate excludes papers dated after it. Zero means today.
	EndDate time.Time

	// Answer lists known relevant titles, recorded in the root for evaluation.
	Answer []string
}

// DefaultOptions returns Options with the default budgets.
func DefaultOptions() Options {
	return Options{AgentConfig: types.DefaultAgentConfig()}
}

// Validate checks the budgets. Zero expansion layers is allowed and runs the
// search stage only.
func (o Options) Validate() error {
	switch {
	case o.ExpandLayers < 0:
		return fmt.Errorf("%w: expand_layers %d is negative", ErrInvalidOptions, o.ExpandLayers)
	case o.SearchQueries <= 0:
		return fmt.Errorf("%w: search_queries must be positive", ErrInvalidOptions)
	case o.SearchPapers <= 0:
		return fmt.Errorf("%w: search_papers must be positive", ErrInvalidOptions)
	case o.ExpandPapers <= 0:
		return fmt.Errorf("%w: expand_papers must be positive", ErrInvalidOptions)
	case o.ThreadsNum <= 0:
		return fmt.Errorf("%w: threads_num must be positive", ErrInvalidOptions)
	case o.SimilarPerNode < 0:
		return fmt.Errorf("%w: similar_per_node is negative", ErrInvalidOptions)
	case o.SearchDatasets < 0:
		return fmt.Errorf("%w: search_datasets is negative", ErrInvalidOptions)
	}
	return nil
}

// ParseEndDate parses "20060102" or "2006-01-02". An empty string means
// today.
func ParseEndDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: end date %q is not YYYYMMDD or YYYY-MM-DD", ErrInvalidOptions, s)
}

// LayerStats summarises one expansion layer.
type LayerStats struct {
	Depth    int `json:"depth" yaml:"depth"`
	Expanded int `json:"expanded" yaml:"expanded"`
	Added    int `json:"added" yaml:"added"`
}

// Stats summarises a run.
type Stats struct {
	Queries  int           `json:"queries" yaml:"queries"`
	Nodes    int           `json:"nodes" yaml:"nodes"`
	Touched  int           `json:"touched" yaml:"touched"`
	Recalled int           `json:"recalled" yaml:"recalled"`
	Layers   []LayerStats  `json:"layers" yaml:"layers"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Kind    string
	Query   string
	Queries []string

	// Results are the recalled nodes, best first.
	Results []*Node

	Root *Node

	// Touched lists every external ID claimed, in claim order.
	Touched []string

	Stats Stats
}

// Agent explores one source with an LLM crawler and selector. An Agent is
// safe for concurrent runs.
type Agent struct {
	source   Source
	crawler  llm.Crawler
	selector llm.Selector
	log      *zap.Logger
}

// New returns an agent over source. A nil crawler falls back to query
// variants derived from the user query.
func New(source Source, crawler llm.Crawler, selector llm.Selector, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{source: source, crawler: crawler, selector: selector, log: log}
}

// Run answers userQuery: it generates queries, runs the search stage, then
// expands ExpandLayers layers of similar items. It returns every recalled
// node ranked by relevance together with the full provenance tree.
func (a *Agent) Run(ctx context.Context, userQuery string, opts Options) (*Result, error) {
	if userQuery == "" {
		return nil, ErrEmptyQuery
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !a.source.Ready() {
		return nil, fmt.Errorf("%s source: %w", a.source.Kind(), index.ErrNotInitialized)
	}
	if opts.SimilarPerNode == 0 {
		opts.SimilarPerNode = types.DefaultAgentConfig().SimilarPerNode
	}
	if opts.EndDate.IsZero() && a.source.Kind() == "paper" {
		opts.EndDate, _ = ParseEndDate("")
	}

	start := time.Now()
	id := uuid.NewString()
	log := a.log.With(zap.String("run_id", id), zap.String("kind", a.source.Kind()))
	log.Info("run started", zap.String("query", userQuery))

	r := newRun(userQuery)
	queries := GenerateQueries(ctx, a.crawler, userQuery, opts.SearchQueries, log)
	log.Info("queries generated", zap.Strings("queries", queries))

	if err := a.searchStage(ctx, r, queries, opts, log); err != nil {
		return nil, err
	}

	var layers []LayerStats
	for depth := 0; depth < opts.ExpandLayers; depth++ {
		ls, err := a.expandLayer(ctx, r, depth, opts, log)
		if err != nil {
			return nil, err
		}
		layers = append(layers, ls)
		if ls.Expanded == 0 {
			break
		}
	}

	r.finish(opts.Answer)

	res := &Result{
		RunID:   id,
		Kind:    a.source.Kind(),
		Query:   userQuery,
		Queries: queries,
		Root:    r.root,
		Touched: append([]string{}, r.order...),
	}
	r.root.Walk(func(n, parent *Node) {
		if parent != nil && n.RelevanceScore > RecallThreshold {
			res.Results = append(res.Results, n)
		}
	})
	SortByScore(res.Results)

	res.Stats = Stats{
		Queries:  len(queries),
		Nodes:    r.nodes,
		Touched:  len(r.order),
		Recalled: len(res.Results),
		Layers:   layers,
		Duration: time.Since(start),
	}
	log.Info("run finished",
		zap.Int("nodes", res.Stats.Nodes),
		zap.Int("recalled", res.Stats.Recalled),
		zap.Duration("duration", res.Stats.Duration))
	return res, nil
}

// score asks the selector to rate candidates against the user query.
func (a *Agent) score(ctx context.Context, cands []Candidate, userQuery string) ([]float64, error) {
	prompts := make([]string, len(cands))
	for i, c := range cands {
		prompts[i] = a.source.Prompt(c, userQuery)
	}
	scores, err := a.selector.Score(ctx, prompts)
	if err != nil {
		return nil, fmt.Errorf("scoring %d candidates: %w", len(cands), err)
	}
	if err := llm.CheckScores(scores, len(prompts)); err != nil {
		return nil, err
	}
	return scores, nil
}

// skipOrFail applies the failed-batch policy to a scoring error.
func skipOrFail(err error, opts Options, log *zap.Logger, msg string, fields ...zap.Field) error {
	if opts.SkipFailedBatches && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn(msg, append(fields, zap.Error(err))...)
		return nil
	}
	return err
}
