// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the corpus records and configuration shared by the
// index, agent, corpus, and surface packages.
package types

import (
	"regexp"
	"strings"
	"time"
)

// Paper is one corpus paper, normalised to the field names used throughout
// the agent. Dates stay as strings because corpus dumps mix formats.
type Paper struct {
	// ExternalID is the arXiv identifier, possibly carrying a version suffix ("2301.07041v2").
	ExternalID string `json:"arxiv_id" yaml:"arxiv_id"`

	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract" yaml:"abstract"`
	Authors  []string `json:"authors" yaml:"authors"`
	Tasks    []string `json:"tasks" yaml:"tasks"`

	// Date is the publication date, usually "2006-01-02".
	Date string `json:"date" yaml:"date"`

	URLPDF string `json:"url_pdf,omitempty" yaml:"url_pdf,omitempty"`
	URLAbs string `json:"url_abs,omitempty" yaml:"url_abs,omitempty"`
}

// Key returns the identifier the semantic index uses for this paper.
func (p Paper) Key() string { return p.ExternalID }

// EmbeddingText concatenates the fields embedded for nearest-neighbour search.
func (p Paper) EmbeddingText() string {
	text := p.Title + " " + p.Abstract
	if len(p.Tasks) > 0 {
		text += " " + strings.Join(p.Tasks, " ")
	}
	return text
}

// ItemTitle returns the display title.
func (p Paper) ItemTitle() string { return p.Title }

var versionSuffix = regexp.MustCompile(`v\d+$`)

// NormalizeID strips a trailing version suffix such as "v2" from an external
// ID so that versions of one paper deduplicate together.
func NormalizeID(id string) string {
	return versionSuffix.ReplaceAllString(id, "")
}

// paperDateLayouts lists the date formats found in corpus dumps.
var paperDateLayouts = []string{"2006-01-02", "20060102", time.RFC3339, "2006-01", "2006"}

// ParseDate parses a corpus date string. The boolean is false when no known
// layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range paperDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ScoredPaper is a paper returned by an item-to-item similarity lookup.
type ScoredPaper struct {
	Paper
	// Similarity is 1/(1+distance): monotonic in closeness, not a probability.
	Similarity float64 `json:"similarity_score" yaml:"similarity_score"`
}
