// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
)

// MockCrawler returns canned search segments. With no Queries it echoes the
// user query found in the prompt as a single segment.
type MockCrawler struct {
	Queries []string

	// Raw, when set, is returned verbatim.
	Raw string

	Err   error
	calls atomic.Int32
}

// Generate implements Crawler.
func (m *MockCrawler) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Raw != "" {
		return m.Raw, nil
	}

	queries := m.Queries
	if len(queries) == 0 {
		if q := field(prompt, markerUserQuery); q != "" {
			queries = []string{q}
		}
	}
	var sb strings.Builder
	for _, q := range queries {
		fmt.Fprintf(&sb, "Search]%s[\n", q)
	}
	return sb.String(), nil
}

// Calls returns how many times Generate ran.
func (m *MockCrawler) Calls() int { return int(m.calls.Load()) }

// MockSelector scores prompts deterministically. ScoreFunc receives the
// candidate title, abstract, and user query parsed back out of each prompt.
// Without ScoreFunc the score is the share of user-query words found in the
// title and abstract.
type MockSelector struct {
	ScoreFunc func(title, abstract, userQuery string) float64
	Err       error

	calls   atomic.Int32
	prompts atomic.Int64
}

// Score implements Selector.
func (m *MockSelector) Score(ctx context.Context, prompts []string) ([]float64, error) {
	m.calls.Add(1)
	m.prompts.Add(int64(len(prompts)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	fn := m.ScoreFunc
	if fn == nil {
		fn = OverlapScore
	}
	scores := make([]float64, len(prompts))
	for i, p := range prompts {
		scores[i] = fn(field(p, markerTitle), field(p, markerAbstract), field(p, markerUserQuery))
	}
	return scores, nil
}

// Calls returns how many batches were scored.
func (m *MockSelector) Calls() int { return int(m.calls.Load()) }

// Prompts returns how many prompts were scored in total.
func (m *MockSelector) Prompts() int { return int(m.prompts.Load()) }

// OverlapScore is the share of distinct query words (three letters or more)
// present in title or abstract.
func OverlapScore(title, abstract, userQuery string) float64 {
	have := make(map[string]bool)
	for _, w := range words(title + " " + abstract) {
		have[w] = true
	}
	want := make(map[string]bool)
	for _, w := range words(userQuery) {
		if len(w) >= 3 {
			want[w] = true
		}
	}
	if len(want) == 0 {
		return 0
	}
	hit := 0
	for w := range want {
		if have[w] {
			hit++
		}
	}
	return float64(hit) / float64(len(want))
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// field returns the rest of the line that starts with marker.
func field(prompt, marker string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return ""
}
