// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "corpus.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePapers() []types.Paper {
	return []types.Paper{
		{ExternalID: "2301.00001v2", Title: "Graph neural networks for molecules", Abstract: "Message passing on molecular graphs.", Authors: []string{"A. Author"}, Tasks: []string{"Molecular Property Prediction"}, Date: "2023-01-02"},
		{ExternalID: "2301.00002", Title: "Protein folding with transformers", Abstract: "Attention for protein structure.", Date: "2023-01-05", URLPDF: "https://arxiv.org/pdf/2301.00002"},
		{Title: "A note without an identifier"},
	}
}

func TestUpsertPapers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sum, err := s.UpsertPapers(ctx, samplePapers())
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Inserted: 2, Skipped: 1}, sum)
	assert.Equal(t, 3, sum.Total())

	updated := samplePapers()[:1]
	updated[0].Title = "Graph neural networks for molecules (revised)"
	sum, err = s.UpsertPapers(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Updated: 1}, sum)

	papers, err := s.Papers(ctx)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "Graph neural networks for molecules (revised)", papers[0].Title)
	assert.Equal(t, []string{"A. Author"}, papers[0].Authors)
	assert.Nil(t, papers[1].Authors)
	assert.Equal(t, "https://arxiv.org/pdf/2301.00002", papers[1].URLPDF)
}

func TestPaperByExternalID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.UpsertPapers(ctx, samplePapers())
	require.NoError(t, err)

	p, err := s.PaperByExternalID(ctx, "2301.00001v2")
	require.NoError(t, err)
	assert.Equal(t, "Graph neural networks for molecules", p.Title)

	p, err = s.PaperByExternalID(ctx, "2301.00001")
	require.NoError(t, err)
	assert.Equal(t, "2301.00001v2", p.ExternalID, "versionless IDs match stored versions")

	_, err = s.PaperByExternalID(ctx, "9999.99999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchPapers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.UpsertPapers(ctx, samplePapers())
	require.NoError(t, err)

	got, err := s.SearchPapers(ctx, "protein", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2301.00002", got[0].ExternalID)

	got, err = s.SearchPapers(ctx, "molecular graphs", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2301.00001v2", got[0].ExternalID)

	got, err = s.SearchPapers(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDatasets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ds := []types.Dataset{
		{ID: "squad", Name: "SQuAD", Description: "Reading comprehension.", Modalities: []string{"Texts"}, Languages: []string{"English"}, Tasks: []string{"Question Answering"}, NumPapers: 900, IntroducedDate: "2016-06-16", LicenseName: "CC BY-SA 4.0"},
		{ID: "vqa", Name: "VQA", Modalities: []string{"Images", "Texts"}, NumPapers: 700},
		{Name: "no id"},
	}
	sum, err := s.UpsertDatasets(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Inserted: 2, Skipped: 1}, sum)

	got, err := s.DatasetByID(ctx, "squad")
	require.NoError(t, err)
	assert.Equal(t, ds[0], got)

	_, err = s.DatasetByID(ctx, "imagenet")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "vqa", all[1].ID)
	assert.Equal(t, []string{"Images", "Texts"}, all[1].Modalities)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Papers)
	assert.Equal(t, 2, st.Datasets)
}

func TestDecode(t *testing.T) {
	jsonArr := `[{"arxiv_id": "1", "title": "One"}, {"arxiv_id": "2", "title": "Two"}]`
	jsonl := "{\"arxiv_id\": \"1\", \"title\": \"One\"}\n\n{\"arxiv_id\": \"2\", \"title\": \"Two\"}\n"
	yml := "- arxiv_id: \"1\"\n  title: One\n- arxiv_id: \"2\"\n  title: Two\n"

	for name, tc := range map[string]struct {
		in string
		f  Format
	}{
		"json":  {jsonArr, FormatJSON},
		"jsonl": {jsonl, FormatJSONL},
		"yaml":  {yml, FormatYAML},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Decode[types.Paper](strings.NewReader(tc.in), tc.f)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "1", got[0].ExternalID)
			assert.Equal(t, "Two", got[1].Title)
		})
	}

	_, err := Decode[types.Paper](strings.NewReader("{not json"), FormatJSON)
	assert.Error(t, err)
	_, err = Decode[types.Paper](strings.NewReader("{}\n{oops"), FormatJSONL)
	assert.ErrorContains(t, err, "record 2")
	_, err = Decode[types.Paper](strings.NewReader(""), Format("csv"))
	assert.Error(t, err)

	empty, err := Decode[types.Paper](strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSONL, FormatFromPath("papers.jsonl"))
	assert.Equal(t, FormatJSONL, FormatFromPath("papers.NDJSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("datasets.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("papers.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("papers"))
}

func TestImportFiles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	papers := filepath.Join(dir, "papers.jsonl")
	require.NoError(t, os.WriteFile(papers, []byte(`{"arxiv_id": "2301.1", "title": "One", "tasks": ["QA"]}`+"\n"), 0o644))
	datasets := filepath.Join(dir, "datasets.yaml")
	require.NoError(t, os.WriteFile(datasets, []byte("- id: squad\n  name: SQuAD\n  num_papers: 10\n"), 0o644))

	sum, err := s.ImportPapersFile(ctx, papers)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)

	sum, err = s.ImportDatasetsFile(ctx, datasets)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Papers)
	assert.Equal(t, 1, st.Datasets)

	_, err = s.ImportPapersFile(ctx, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestOpenReusesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.UpsertPapers(context.Background(), samplePapers())
	require.NoError(t, err)
	fts := s.fts
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, fts, s.fts)

	got, err := s.SearchPapers(context.Background(), "protein", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
