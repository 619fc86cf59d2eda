// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-agent/internal/agent"
	"github.com/pdiddy/scholar-agent/internal/discovery"
	"github.com/pdiddy/scholar-agent/internal/index"
)

type fakeSearcher struct {
	health discovery.Health
	err    error

	paperReq   discovery.PaperRequest
	datasetReq discovery.DatasetRequest
}

func (f *fakeSearcher) result(kind, query string) *agent.Result {
	root := &agent.Node{Title: query, Depth: -1}
	child := &agent.Node{Title: "Attention is all you need", ExternalID: "1706.03762", RelevanceScore: 0.9, DiscoverySource: "Query: transformers"}
	b := root.Branch(agent.BranchQuery, "transformers")
	b.Children = append(b.Children, child)
	return &agent.Result{
		RunID:   "run-1",
		Kind:    kind,
		Query:   query,
		Queries: []string{"transformers"},
		Results: []*agent.Node{child},
		Root:    root,
		Touched: []string{"1706.03762"},
		Stats:   agent.Stats{Queries: 1, Nodes: 1, Touched: 1, Recalled: 1},
	}
}

func (f *fakeSearcher) SearchPapers(_ context.Context, req discovery.PaperRequest) (*agent.Result, error) {
	f.paperReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result("paper", req.Query), nil
}

func (f *fakeSearcher) SearchDatasets(_ context.Context, req discovery.DatasetRequest) (*agent.Result, error) {
	f.datasetReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result("dataset", req.Query), nil
}

func (f *fakeSearcher) Health(context.Context) discovery.Health { return f.health }

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	f := &fakeSearcher{}
	s := New(f, ":0", 0, nil)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.health = discovery.Health{PapersIndexed: 3, LLMProvider: "mock"}
	rec = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"papers_indexed":3,"datasets_indexed":0,"llm_provider":"mock"}`, rec.Body.String())
}

func TestSearchPapers(t *testing.T) {
	f := &fakeSearcher{}
	s := New(f, ":0", 0, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/search/papers",
		`{"query": "transformers for translation", "options": {"expand_layers": 1, "end_date": "2020-01-01"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "transformers for translation", f.paperReq.Query)
	require.NotNil(t, f.paperReq.Options.ExpandLayers)
	assert.Equal(t, 1, *f.paperReq.Options.ExpandLayers)
	assert.Equal(t, "2020-01-01", f.paperReq.Options.EndDate)

	var rep agent.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, "paper", rep.Kind)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "1706.03762", rep.Results[0]["external_id"])

	root, err := rep.Root()
	require.NoError(t, err)
	require.Len(t, root.Children("transformers"), 1)
}

func TestSearchDatasets(t *testing.T) {
	f := &fakeSearcher{}
	s := New(f, ":0", 0, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/search/datasets",
		`{"query": "QA benchmarks", "where": "English text", "constraints": {"languages": ["English"]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "English text", f.datasetReq.Where)
	require.NotNil(t, f.datasetReq.Constraints)
	assert.Equal(t, []string{"English"}, f.datasetReq.Constraints.Languages)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed body", `{"query":`, nil, http.StatusBadRequest},
		{"unknown field", `{"question": "x"}`, nil, http.StatusBadRequest},
		{"empty query", `{"query": ""}`, agent.ErrEmptyQuery, http.StatusBadRequest},
		{"invalid options", `{"query": "x"}`, fmt.Errorf("%w: threads_num must be positive", agent.ErrInvalidOptions), http.StatusBadRequest},
		{"index not built", `{"query": "x"}`, fmt.Errorf("paper source: %w", index.ErrNotInitialized), http.StatusServiceUnavailable},
		{"deadline", `{"query": "x"}`, context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"selector down", `{"query": "x"}`, errors.New("selector unavailable"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&fakeSearcher{err: tc.err}, ":0", 0, nil)
			rec := do(t, s, http.MethodPost, "/api/v1/search/papers", tc.body)
			assert.Equal(t, tc.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := New(&fakeSearcher{}, ":0", 0, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search/papers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New(&fakeSearcher{}, "127.0.0.1:0", 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
