// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-agent/internal/embedding"
	"github.com/pdiddy/scholar-agent/internal/filter"
	"github.com/pdiddy/scholar-agent/internal/index"
	"github.com/pdiddy/scholar-agent/internal/llm"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

func testPapers() []types.Paper {
	return []types.Paper{
		{ExternalID: "2301.00001v2", Title: "Graph neural networks for molecules", Abstract: "message passing on molecular graphs", Date: "2023-01-02"},
		{ExternalID: "2301.00002", Title: "Molecular property prediction with graph networks", Abstract: "graph networks predict molecular properties", Date: "2023-01-05"},
		{ExternalID: "2402.00003", Title: "Protein folding with transformers", Abstract: "attention for protein structure", Date: "2024-02-01"},
		{ExternalID: "", Title: "Untracked note on graphs", Abstract: "graph molecules"},
	}
}

func paperIndex(t *testing.T) *index.PaperIndex {
	t.Helper()
	ix := index.NewPaperIndex(embedding.NewHashProvider(256), nil)
	require.NoError(t, ix.Build(context.Background(), testPapers()))
	return ix
}

func TestPaperSource_SearchNormalisesAndFilters(t *testing.T) {
	src := NewPaperSource(paperIndex(t), nil)
	assert.Equal(t, "paper", src.Kind())
	assert.True(t, src.Ready())

	cands, err := src.Search(context.Background(), "graph networks molecules", 10, time.Time{})
	require.NoError(t, err)
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ExternalID
		assert.IsType(t, types.Paper{}, c.Record)
	}
	assert.Contains(t, ids, "2301.00001")
	assert.NotContains(t, ids, "2301.00001v2")
	assert.NotContains(t, ids, "")

	cutoff := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	cands, err = src.Search(context.Background(), "protein folding transformers", 10, cutoff)
	require.NoError(t, err)
	for _, c := range cands {
		assert.NotEqual(t, "2402.00003", c.ExternalID)
	}
}

func TestPaperSource_SimilarResolvesVersionedKeys(t *testing.T) {
	src := NewPaperSource(paperIndex(t), nil)

	sims, err := src.Similar(context.Background(), &Node{ExternalID: "2301.00001"}, 2)
	require.NoError(t, err)
	require.Len(t, sims, 2)
	for _, c := range sims {
		assert.NotEqual(t, "2301.00001", c.ExternalID)
		assert.Contains(t, c.Extra, extraSimScore)
	}

	sims, err = src.Similar(context.Background(), &Node{ExternalID: "9999.99999"}, 2)
	require.NoError(t, err)
	assert.Empty(t, sims)
}

func TestPaperSource_ResolveThroughLookup(t *testing.T) {
	corpus := map[string]types.Paper{
		"2301.00002": {ExternalID: "2301.00002", Title: "Molecular property prediction (journal version)"},
	}
	lookup := func(_ context.Context, id string) (types.Paper, bool, error) {
		if id == "broken" {
			return types.Paper{}, false, errors.New("db closed")
		}
		p, ok := corpus[id]
		return p, ok, nil
	}
	src := NewPaperSource(paperIndex(t), lookup)

	c, ok, err := src.Resolve(context.Background(), Candidate{ExternalID: "2301.00002"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Molecular property prediction (journal version)", c.Title)

	_, ok, err = src.Resolve(context.Background(), Candidate{ExternalID: "2301.00001"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = src.Resolve(context.Background(), Candidate{ExternalID: "broken"})
	assert.ErrorContains(t, err, "db closed")
}

func TestPaperSource_Prompt(t *testing.T) {
	src := NewPaperSource(paperIndex(t), nil)
	p := src.Prompt(Candidate{Title: "T", Abstract: "A"}, "Q")
	assert.Contains(t, p, "Title: T")
	assert.Contains(t, p, "User Query: Q")
}

func testDatasets() []types.Dataset {
	return []types.Dataset{
		{ID: "squad", Name: "SQuAD", Description: "Reading comprehension questions on Wikipedia.", Modalities: []string{"Texts"}, Languages: []string{"English"}, Tasks: []string{"Question Answering"}, NumPapers: 900},
		{ID: "triviaqa", Name: "TriviaQA", Description: "Trivia questions with evidence documents.", Modalities: []string{"Texts"}, Languages: []string{"English"}, Tasks: []string{"Question Answering"}, NumPapers: 300},
		{ID: "vqa", Name: "VQA", Description: "Visual questions about images.", Modalities: []string{"Images", "Texts"}, Tasks: []string{"Visual Question Answering"}, NumPapers: 700},
	}
}

func TestDatasetSource_SearchAppliesConstraints(t *testing.T) {
	ix := index.NewDatasetIndex(embedding.NewHashProvider(256), nil)
	require.NoError(t, ix.Build(context.Background(), testDatasets()))

	all := NewDatasetSource(ix, filter.Constraints{})
	assert.Equal(t, "dataset", all.Kind())
	cands, err := all.Search(context.Background(), "question answering", 3, time.Time{})
	require.NoError(t, err)
	assert.Len(t, cands, 3)
	for _, c := range cands {
		assert.Contains(t, c.Extra, "rrf_score")
	}

	images := NewDatasetSource(ix, filter.Constraints{Modalities: []string{"Images"}})
	cands, err = images.Search(context.Background(), "question answering", 3, time.Time{})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "vqa", cands[0].ExternalID)
	assert.Equal(t, "VQA", cands[0].Title)

	sims, err := images.Similar(context.Background(), &Node{ExternalID: "squad"}, 2)
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, "vqa", sims[0].ExternalID)
}

func TestDatasetRun(t *testing.T) {
	ix := index.NewDatasetIndex(embedding.NewHashProvider(256), nil)
	require.NoError(t, ix.Build(context.Background(), testDatasets()))

	selector := &llm.MockSelector{ScoreFunc: func(title, _, _ string) float64 {
		if title == "VQA" {
			return 0.2
		}
		return 0.9
	}}
	a := New(NewDatasetSource(ix, filter.Constraints{}), &llm.MockCrawler{Queries: []string{"question answering"}}, selector, nil)

	opts := testOptions(1, 2)
	opts.SearchDatasets = 2
	res, err := a.Run(context.Background(), "English QA datasets", opts)
	require.NoError(t, err)
	assert.Equal(t, "dataset", res.Kind)
	assert.ElementsMatch(t, []string{"squad", "triviaqa", "vqa"}, res.Touched)
	for _, n := range res.Results {
		assert.NotEqual(t, "VQA", n.Title)
	}
}
