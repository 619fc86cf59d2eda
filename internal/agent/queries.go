// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/llm"
)

// searchSegment matches one query in crawler output: Search]query[.
var searchSegment = regexp.MustCompile(`(?s)Search\](.*?)\[`)

// ParseSearchQueries extracts the queries marked as Search]...[ in crawler
// output. Queries are trimmed; empty and repeated ones are dropped. At most
// max are returned when max is positive.
func ParseSearchQueries(text string, max int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range searchSegment.FindAllStringSubmatch(text, -1) {
		q := strings.TrimSpace(m[1])
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

var swaps = []struct {
	from *regexp.Regexp
	to   string
}{
	{regexp.MustCompile(`(?i)\bfor\b`), "in"},
	{regexp.MustCompile(`(?i)\bin\b`), "for"},
	{regexp.MustCompile(`(?i)\busing\b`), "with"},
	{regexp.MustCompile(`(?i)\bwith\b`), "using"},
}

// FallbackQueries derives search queries from the user query alone: the
// query itself followed by variants with "for"/"in" and "using"/"with"
// swapped.
func FallbackQueries(userQuery string, max int) []string {
	q := strings.TrimSpace(userQuery)
	if q == "" {
		return nil
	}
	out := []string{q}
	seen := map[string]bool{q: true}
	for _, s := range swaps {
		if max > 0 && len(out) >= max {
			break
		}
		if !s.from.MatchString(q) {
			continue
		}
		v := s.from.ReplaceAllString(q, s.to)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// GenerateQueries asks the crawler for search queries. Without a crawler, or
// when the crawler fails, the fallback variants of the user query are used.
// A crawler answer with no marked queries yields an empty list.
func GenerateQueries(ctx context.Context, crawler llm.Crawler, userQuery string, max int, log *zap.Logger) []string {
	if crawler == nil {
		return FallbackQueries(userQuery, max)
	}
	text, err := crawler.Generate(ctx, llm.GenerateQueryPrompt(userQuery))
	if err != nil {
		log.Warn("query generation failed, using fallback queries", zap.Error(err))
		return FallbackQueries(userQuery, max)
	}
	return ParseSearchQueries(text, max)
}
