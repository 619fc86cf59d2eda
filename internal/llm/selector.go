// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CompleterCrawler adapts a Completer to the Crawler contract.
type CompleterCrawler struct {
	Completer Completer
}

// Generate forwards the prompt unchanged.
func (c *CompleterCrawler) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Completer.Complete(ctx, prompt)
}

// defaultSelectorConcurrency bounds parallel completions within one batch.
const defaultSelectorConcurrency = 4

// CompleterSelector scores a batch by completing each prompt and parsing the
// answer. Any failed or unparseable answer fails the whole batch.
type CompleterSelector struct {
	Completer   Completer
	Concurrency int
}

// Score returns one score per prompt, in input order.
func (s *CompleterSelector) Score(ctx context.Context, prompts []string) ([]float64, error) {
	scores := make([]float64, len(prompts))

	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultSelectorConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, p := range prompts {
		g.Go(func() error {
			answer, err := s.Completer.Complete(gctx, p)
			if err != nil {
				return fmt.Errorf("scoring prompt %d: %w", i, err)
			}
			score, err := ParseScore(answer)
			if err != nil {
				return fmt.Errorf("scoring prompt %d: %w", i, err)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

type selectorAnswer struct {
	Decision *bool    `json:"decision"`
	Score    *float64 `json:"score"`
	Reason   string   `json:"reason"`
}

// ParseScore reads a selector answer. A JSON object with a numeric "score"
// wins; otherwise its boolean "decision" maps to 1 or 0. Plain answers
// starting with True/Yes or False/No are accepted as well.
func ParseScore(answer string) (float64, error) {
	text := strings.TrimSpace(answer)
	if text == "" {
		return 0, ErrEmptyResponse
	}

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var a selectorAnswer
		if err := json.Unmarshal([]byte(text[start:end+1]), &a); err == nil {
			switch {
			case a.Score != nil:
				return *a.Score, nil
			case a.Decision != nil && *a.Decision:
				return 1, nil
			case a.Decision != nil:
				return 0, nil
			}
		}
	}

	lower := strings.ToLower(strings.TrimLeft(text, "`*\"' \n"))
	switch {
	case strings.HasPrefix(lower, "true"), strings.HasPrefix(lower, "yes"):
		return 1, nil
	case strings.HasPrefix(lower, "false"), strings.HasPrefix(lower, "no"):
		return 0, nil
	}
	return 0, fmt.Errorf("unrecognised selector answer %q", truncate(text, 80))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
