// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/llm"
)

func TestParseSearchQueries(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{name: "two queries", text: "Search]graph networks[\nSearch]  molecule property prediction [", max: 5,
			want: []string{"graph networks", "molecule property prediction"}},
		{name: "truncated", text: "Search]a[ Search]b[ Search]c[", max: 2, want: []string{"a", "b"}},
		{name: "no limit", text: "Search]a[ Search]b[ Search]c[", max: 0, want: []string{"a", "b", "c"}},
		{name: "duplicates and blanks dropped", text: "Search]a[ Search] [ Search]a[ Search]b[", max: 5, want: []string{"a", "b"}},
		{name: "spans lines", text: "Search]multi\nline[", max: 5, want: []string{"multi\nline"}},
		{name: "unterminated", text: "Search]never closed", max: 5, want: nil},
		{name: "no markers", text: "Here are some ideas: graphs, molecules.", max: 5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSearchQueries(tt.text, tt.max))
		})
	}
}

func TestFallbackQueries(t *testing.T) {
	assert.Equal(t,
		[]string{"segmentation using transformers", "segmentation with transformers"},
		FallbackQueries("segmentation using transformers", 5))

	assert.Equal(t,
		[]string{"datasets for QA in French", "datasets in QA in French", "datasets for QA for French"},
		FallbackQueries("datasets for QA in French", 5))

	assert.Equal(t, []string{"datasets for QA in French"}, FallbackQueries("datasets for QA in French", 1))
	assert.Equal(t, []string{"protein folding"}, FallbackQueries("  protein folding ", 5))
	assert.Nil(t, FallbackQueries("   ", 5))
}

func TestGenerateQueries(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	crawler := &llm.MockCrawler{Queries: []string{"a", "b", "c"}}
	assert.Equal(t, []string{"a", "b"}, GenerateQueries(ctx, crawler, "user", 2, log))
	assert.Equal(t, 1, crawler.Calls())

	echo := &llm.MockCrawler{}
	assert.Equal(t, []string{"graph learning"}, GenerateQueries(ctx, echo, "graph learning", 5, log))

	failing := &llm.MockCrawler{Err: errors.New("timeout")}
	assert.Equal(t, []string{"nets for graphs", "nets in graphs"}, GenerateQueries(ctx, failing, "nets for graphs", 5, log))

	assert.Equal(t, []string{"nets for graphs", "nets in graphs"}, GenerateQueries(ctx, nil, "nets for graphs", 5, log))
}
