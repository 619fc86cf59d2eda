// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/scholar-agent/internal/filter"
	"github.com/pdiddy/scholar-agent/internal/index"
	"github.com/pdiddy/scholar-agent/internal/llm"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Candidate is an item found by a source before it becomes a node.
type Candidate struct {
	ExternalID string
	Title      string
	Abstract   string
	Authors    []string
	Tags       []string
	Date       string
	URLPDF     string
	URLAbs     string

	// Extra is copied into the node's extra map.
	Extra map[string]any

	// Record is the full corpus record.
	Record any
}

func (c Candidate) node(depth int, source string, score float64) *Node {
	extra := make(map[string]any, len(c.Extra)+1)
	for k, v := range c.Extra {
		extra[k] = v
	}
	return &Node{
		Title:           c.Title,
		ExternalID:      c.ExternalID,
		Depth:           depth,
		Abstract:        c.Abstract,
		Authors:         c.Authors,
		Tags:            c.Tags,
		Date:            c.Date,
		URLPDF:          c.URLPDF,
		URLAbs:          c.URLAbs,
		RelevanceScore:  score,
		DiscoverySource: source,
		Extra:           extra,
		Record:          c.Record,
	}
}

// Source is the corpus an agent run explores.
type Source interface {
	// Kind names the record type, "paper" or "dataset".
	Kind() string

	Ready() bool

	// Search returns up to k hits for query with normalised external IDs.
	// Items dated after a non-zero cutoff are excluded.
	Search(ctx context.Context, query string, k int, cutoff time.Time) ([]Candidate, error)

	// Resolve returns the full record for a search hit. False drops the hit.
	Resolve(ctx context.Context, hit Candidate) (Candidate, bool, error)

	// Similar returns up to k items similar to the node, best first. Each
	// candidate carries its similarity in Extra.
	Similar(ctx context.Context, n *Node, k int) ([]Candidate, error)

	// Prompt renders the relevance prompt for a candidate.
	Prompt(c Candidate, userQuery string) string
}

// PaperLookup fetches a paper by normalised external ID. False means the
// paper is unknown.
type PaperLookup func(ctx context.Context, id string) (types.Paper, bool, error)

// PaperSource explores a paper index.
type PaperSource struct {
	ix     *index.PaperIndex
	lookup PaperLookup

	// aliases maps normalised IDs to index keys.
	aliases map[string]string
}

// NewPaperSource returns a source over ix. When lookup is set, search hits
// are re-read through it and hits it does not know are dropped; otherwise the
// indexed record is used.
func NewPaperSource(ix *index.PaperIndex, lookup PaperLookup) *PaperSource {
	s := &PaperSource{ix: ix, lookup: lookup, aliases: make(map[string]string)}
	for _, p := range ix.Items() {
		if norm := types.NormalizeID(p.ExternalID); norm != p.ExternalID {
			if _, ok := s.aliases[norm]; !ok {
				s.aliases[norm] = p.ExternalID
			}
		}
	}
	return s
}

// Kind implements Source.
func (s *PaperSource) Kind() string { return "paper" }

// Ready implements Source.
func (s *PaperSource) Ready() bool { return s.ix.Ready() }

// Search implements Source.
func (s *PaperSource) Search(ctx context.Context, query string, k int, cutoff time.Time) ([]Candidate, error) {
	hits, err := s.ix.Search(ctx, query, k, cutoff)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(hits))
	for i, h := range hits {
		out[i] = paperCandidate(h.Item)
	}
	return out, nil
}

// Resolve implements Source.
func (s *PaperSource) Resolve(ctx context.Context, hit Candidate) (Candidate, bool, error) {
	if s.lookup == nil {
		return hit, true, nil
	}
	p, ok, err := s.lookup(ctx, hit.ExternalID)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("looking up paper %s: %w", hit.ExternalID, err)
	}
	if !ok {
		return Candidate{}, false, nil
	}
	return paperCandidate(p), true, nil
}

// Similar implements Source.
func (s *PaperSource) Similar(ctx context.Context, n *Node, k int) ([]Candidate, error) {
	key := n.ExternalID
	if alias, ok := s.aliases[key]; ok {
		key = alias
	}
	sims, err := s.ix.Similar(key, k)
	if errors.Is(err, index.ErrItemNotIndexed) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(sims))
	for i, sp := range sims {
		c := paperCandidate(sp.Paper)
		c.Extra = map[string]any{extraSimScore: sp.Similarity}
		out[i] = c
	}
	return out, nil
}

// Prompt implements Source.
func (s *PaperSource) Prompt(c Candidate, userQuery string) string {
	return llm.SelectPaperPrompt(c.Title, c.Abstract, userQuery)
}

func paperCandidate(p types.Paper) Candidate {
	return Candidate{
		ExternalID: types.NormalizeID(p.ExternalID),
		Title:      p.Title,
		Abstract:   p.Abstract,
		Authors:    p.Authors,
		Tags:       p.Tasks,
		Date:       p.Date,
		URLPDF:     p.URLPDF,
		URLAbs:     p.URLAbs,
		Record:     p,
	}
}

// DatasetSource explores a dataset index. Search results are ranked by
// fusing embedding distance with popularity, and optional constraints drop
// datasets before they are scored.
type DatasetSource struct {
	ix          *index.DatasetIndex
	constraints filter.Constraints
}

// NewDatasetSource returns a source over ix restricted by c.
func NewDatasetSource(ix *index.DatasetIndex, c filter.Constraints) *DatasetSource {
	return &DatasetSource{ix: ix, constraints: c}
}

// Kind implements Source.
func (s *DatasetSource) Kind() string { return "dataset" }

// Ready implements Source.
func (s *DatasetSource) Ready() bool { return s.ix.Ready() }

// Search implements Source. Datasets have no date cutoff.
func (s *DatasetSource) Search(ctx context.Context, query string, k int, _ time.Time) ([]Candidate, error) {
	ranked, err := s.ix.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		if !filter.Matches(r.Dataset, s.constraints) {
			continue
		}
		c := datasetCandidate(r.Dataset)
		c.Extra["rrf_score"] = r.RRFScore
		c.Extra["rank"] = r.Rank
		out = append(out, c)
	}
	return out, nil
}

// Resolve implements Source.
func (s *DatasetSource) Resolve(_ context.Context, hit Candidate) (Candidate, bool, error) {
	return hit, true, nil
}

// Similar implements Source.
func (s *DatasetSource) Similar(_ context.Context, n *Node, k int) ([]Candidate, error) {
	hits, err := s.ix.Similar(n.ExternalID, k)
	if errors.Is(err, index.ErrItemNotIndexed) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		if !filter.Matches(h.Item, s.constraints) {
			continue
		}
		c := datasetCandidate(h.Item)
		c.Extra[extraSimScore] = h.Similarity
		out = append(out, c)
	}
	return out, nil
}

// Prompt implements Source.
func (s *DatasetSource) Prompt(c Candidate, userQuery string) string {
	return llm.SelectDatasetPrompt(c.Title, c.Abstract, userQuery)
}

func datasetCandidate(d types.Dataset) Candidate {
	desc := d.Description
	if desc == "" {
		desc = d.ShortDescription
	}
	return Candidate{
		ExternalID: d.ID,
		Title:      d.Name,
		Abstract:   desc,
		Tags:       d.Tasks,
		Date:       d.IntroducedDate,
		URLAbs:     d.URL,
		Extra: map[string]any{
			"num_papers": d.NumPapers,
			"modalities": d.Modalities,
			"languages":  d.Languages,
			"license":    d.LicenseName,
		},
		Record: d,
	}
}
