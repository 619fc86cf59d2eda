// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-agent/internal/agent"
	"github.com/pdiddy/scholar-agent/internal/secrets"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	c, mock, err := configFrom(v, secrets.Secrets{})
	require.NoError(t, err)
	assert.False(t, mock)
	assert.Equal(t, types.DefaultAgentConfig(), c.Agent)
	assert.Equal(t, types.EmbeddingOllama, c.Embedding.Provider)
	assert.Equal(t, 384, c.Embedding.Dimensions)
	assert.Equal(t, 30*time.Second, c.Embedding.Timeout)
	assert.Equal(t, 3, c.LLM.MaxRetries)
	assert.Equal(t, "data/corpus.db", c.Corpus.DBPath)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 120*time.Second, c.Server.RequestTimeout)
}

func TestConfigFromFileAndSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scholar-agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  expand_layers: 3
  threads_num: 4
llm:
  provider: ollama
embedding:
  provider: hash
  timeout: 5s
`), 0o644))

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	t.Setenv("USE_MOCK_MODELS", "")
	c, mock, err := configFrom(v, secrets.Secrets{
		"anthropic-api-key": "sk-test",
		"ollama-url":        "http://gpu-box:11434",
		"use-mock-models":   "yes",
	})
	require.NoError(t, err)
	assert.True(t, mock)
	assert.Equal(t, 3, c.Agent.ExpandLayers)
	assert.Equal(t, 4, c.Agent.ThreadsNum)
	assert.Equal(t, 10, c.Agent.SearchPapers, "unset keys keep their defaults")
	assert.Equal(t, types.EmbeddingHash, c.Embedding.Provider)
	assert.Equal(t, 5*time.Second, c.Embedding.Timeout)
	assert.Equal(t, "sk-test", c.LLM.APIKey)
	assert.Equal(t, "http://gpu-box:11434", c.LLM.BaseURL)
	assert.Equal(t, "http://gpu-box:11434", c.Embedding.BaseURL)
}

func TestConfigMockFromEnvironment(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	t.Setenv("USE_MOCK_MODELS", "true")
	_, mock, err := configFrom(v, secrets.Secrets{})
	require.NoError(t, err)
	assert.True(t, mock)
}

func testCommand(t *testing.T, c *cobra.Command) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetContext(context.Background())
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetErr(nil)
	})
	return &out
}

func useTestConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev := cfg
	cfg = types.Config{
		Agent:     types.DefaultAgentConfig(),
		Embedding: types.EmbeddingConfig{Provider: types.EmbeddingHash, Dimensions: 128},
		LLM:       types.LLMConfig{Provider: types.LLMMock},
		Corpus: types.CorpusConfig{
			DBPath:        filepath.Join(dir, "corpus.db"),
			PapersIndex:   filepath.Join(dir, "papers.gob"),
			DatasetsIndex: filepath.Join(dir, "datasets.gob"),
		},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestCorpusImportAndPapersSearch(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	dump := filepath.Join(dir, "papers.jsonl")
	require.NoError(t, os.WriteFile(dump, []byte(strings.Join([]string{
		`{"arxiv_id": "2301.00001", "title": "Graph neural networks for molecules", "abstract": "message passing on molecular graphs", "date": "2023-01-02"}`,
		`{"arxiv_id": "2301.00002", "title": "Molecular graph property prediction", "abstract": "graph networks predict molecular properties", "date": "2023-01-05"}`,
		`{"title": "no identifier"}`,
	}, "\n")), 0o644))

	out := testCommand(t, corpusImportCmd)
	require.NoError(t, runCorpusImport(corpusImportCmd, []string{"papers", dump}))
	assert.Contains(t, out.String(), "3 papers read: 2 inserted, 0 updated, 1 skipped")

	out = testCommand(t, indexBuildCmd)
	require.NoError(t, indexBuildCmd.RunE(indexBuildCmd, nil))
	assert.Contains(t, out.String(), "Papers indexed:   2")
	assert.FileExists(t, cfg.Corpus.PapersIndex)

	runFile := filepath.Join(dir, "run.yaml")
	require.NoError(t, papersCmd.Flags().Set("mock", "true"))
	require.NoError(t, papersCmd.Flags().Set("layers", "1"))
	require.NoError(t, papersCmd.Flags().Set("json", "true"))
	require.NoError(t, papersCmd.Flags().Set("out", runFile))
	out = testCommand(t, papersCmd)
	require.NoError(t, runPapers(papersCmd, []string{"molecular", "graph"}))

	jsonStart := strings.Index(out.String(), "{")
	require.GreaterOrEqual(t, jsonStart, 0)
	var rep agent.Report
	require.NoError(t, json.Unmarshal([]byte(out.String()[jsonStart:]), &rep))
	assert.Equal(t, "molecular graph", rep.Query)
	assert.NotEmpty(t, rep.Results)

	saved, err := agent.ReadRunFile(runFile)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, saved.RunID)
}

func TestFormatResults(t *testing.T) {
	res := &agent.Result{
		Queries: []string{"q1", "q2"},
		Results: []*agent.Node{
			{ExternalID: "1706.03762", Title: "Attention is all you need", RelevanceScore: 0.95, DiscoverySource: "Query: q1"},
		},
		Stats: agent.Stats{Touched: 7, Nodes: 7, Duration: 1500 * time.Millisecond},
	}

	var buf bytes.Buffer
	require.NoError(t, formatResults(&buf, res, false))
	s := buf.String()
	assert.Contains(t, s, "Queries: q1 | q2")
	assert.Contains(t, s, "1706.03762")
	assert.Contains(t, s, "0.95")
	assert.Contains(t, s, "1 results from 7 candidates (7 nodes) in 1.5s")

	buf.Reset()
	require.NoError(t, formatResults(&buf, &agent.Result{}, false))
	assert.Contains(t, buf.String(), "No relevant results found.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestCorpusInspectCommands(t *testing.T) {
	useTestConfig(t)
	dump := filepath.Join(t.TempDir(), "datasets.yaml")
	require.NoError(t, os.WriteFile(dump, []byte("- id: squad\n  name: SQuAD\n  num_papers: 900\n  languages: [English]\n"), 0o644))

	testCommand(t, corpusImportCmd)
	require.NoError(t, runCorpusImport(corpusImportCmd, []string{"datasets", dump}))
	assert.Error(t, runCorpusImport(corpusImportCmd, []string{"authors", dump}))

	out := testCommand(t, corpusStatsCmd)
	require.NoError(t, corpusStatsCmd.RunE(corpusStatsCmd, nil))
	assert.Contains(t, out.String(), "Datasets:  1")

	out = testCommand(t, corpusShowCmd)
	require.NoError(t, corpusShowCmd.RunE(corpusShowCmd, []string{"dataset", "squad"}))
	assert.Contains(t, out.String(), "name: SQuAD")
	assert.Error(t, corpusShowCmd.RunE(corpusShowCmd, []string{"paper", "missing"}))

	out = testCommand(t, corpusSearchCmd)
	require.NoError(t, corpusSearchCmd.RunE(corpusSearchCmd, []string{"anything"}))
	assert.Contains(t, out.String(), "No papers found.")
}
