// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter checks candidate datasets against structured constraints.
// Every present constraint must hold for a dataset to pass.
package filter

import (
	"strings"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Constraints describes the characteristics a dataset must have. Nil and
// empty fields are not checked.
type Constraints struct {
	MinSamples *int64 `json:"min_samples,omitempty" yaml:"min_samples,omitempty"`
	MaxSamples *int64 `json:"max_samples,omitempty" yaml:"max_samples,omitempty"`

	// Modalities and Languages must all be present on the dataset.
	Modalities []string `json:"modalities,omitempty" yaml:"modalities,omitempty"`
	Languages  []string `json:"languages,omitempty" yaml:"languages,omitempty"`

	// Task must be a substring of at least one dataset task. Case-sensitive.
	Task string `json:"task,omitempty" yaml:"task,omitempty"`

	// IntroducedYear excludes datasets introduced in exactly that year.
	IntroducedYear *int `json:"introduced_year,omitempty" yaml:"introduced_year,omitempty"`

	// LicenseName must be a case-insensitive substring of the dataset license.
	LicenseName string `json:"license_name,omitempty" yaml:"license_name,omitempty"`
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.MinSamples == nil && c.MaxSamples == nil &&
		len(c.Modalities) == 0 && len(c.Languages) == 0 &&
		c.Task == "" && c.IntroducedYear == nil && c.LicenseName == ""
}

// Matches reports whether d satisfies every constraint in c.
func Matches(d types.Dataset, c Constraints) bool {
	if c.MinSamples != nil || c.MaxSamples != nil {
		n, ok := datasetSamples(d)
		if !ok {
			return false
		}
		if c.MinSamples != nil && n < *c.MinSamples {
			return false
		}
		if c.MaxSamples != nil && n > *c.MaxSamples {
			return false
		}
	}

	if !containsAll(d.Modalities, c.Modalities) || !containsAll(d.Languages, c.Languages) {
		return false
	}

	if c.Task != "" && !anyContains(d.Tasks, c.Task) {
		return false
	}

	// A dataset introduced in the given year is excluded. Datasets without
	// a parseable introduction date are kept.
	if c.IntroducedYear != nil {
		if year, ok := d.IntroducedYear(); ok && year == *c.IntroducedYear {
			return false
		}
	}

	if c.LicenseName != "" && !strings.Contains(strings.ToLower(d.LicenseName), strings.ToLower(c.LicenseName)) {
		return false
	}

	return true
}

// Apply returns the datasets that satisfy c, in input order.
func Apply(ds []types.Dataset, c Constraints) []types.Dataset {
	out := make([]types.Dataset, 0, len(ds))
	for _, d := range ds {
		if Matches(d, c) {
			out = append(out, d)
		}
	}
	return out
}

func datasetSamples(d types.Dataset) (int64, bool) {
	if n, ok := SampleCount(d.Description); ok {
		return n, true
	}
	return SampleCount(d.ShortDescription)
}

// containsAll reports whether have includes every entry of want, ignoring case.
func containsAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func anyContains(values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}
