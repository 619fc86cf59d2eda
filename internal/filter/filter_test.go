// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func TestSampleCount(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want int64
		ok   bool
	}{
		{name: "total of with k suffix", desc: "This dataset contains a total of 10k images", want: 10000, ok: true},
		{name: "sum of train and test", desc: "Images are split into 5,000 training and 1,200 test examples.", want: 6200, ok: true},
		{name: "dataset has split sizes", desc: "The dataset has 5,000 training and 1,200 test images.", want: 6200, ok: true},
		{name: "train test and validation", desc: "Train set: 80k, validation set: 10k, test set: 10k.", want: 100000, ok: true},
		{name: "in total", desc: "We collected 3 annotators' labels for 1.2 million sentences in total.", want: 1200000, ok: true},
		{name: "dataset contains", desc: "The corpus contains approximately 2,500 dialogues.", want: 2500, ok: true},
		{name: "explicit total beats splits", desc: "A total of 900 clips with 700 train and 200 test.", want: 900, ok: true},
		{name: "single split falls back to bare count", desc: "It provides 4,000 training pairs and 9,000 labeled samples.", want: 9000, ok: true},
		{name: "max of bare mentions", desc: "Version 1 has 300 samples; version 2 adds 1.5k samples and 20 instances.", want: 1500, ok: true},
		{name: "billion suffix", desc: "Contains 5B examples crawled from the web.", want: 5000000000, ok: true},
		{name: "no count", desc: "A benchmark for question answering over tables.", ok: false},
		{name: "empty", desc: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SampleCount(tt.desc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMatches_YearEqualityExcludes(t *testing.T) {
	// Datasets introduced in the constraint year are excluded, not selected.
	d := types.Dataset{ID: "squad", IntroducedDate: "2019-05-01"}
	assert.False(t, Matches(d, Constraints{IntroducedYear: ptr(2019)}))
	assert.True(t, Matches(d, Constraints{IntroducedYear: ptr(2020)}))

	undated := types.Dataset{ID: "x", IntroducedDate: "sometime"}
	assert.True(t, Matches(undated, Constraints{IntroducedYear: ptr(2019)}))
}

func TestMatches(t *testing.T) {
	imagenet := types.Dataset{
		ID:          "imagenet",
		Description: "The dataset contains a total of 14 million images.",
		Modalities:  []string{"Images"},
		Languages:   []string{"English"},
		Tasks:       []string{"Image Classification", "Object Detection"},
		LicenseName: "Custom (non-commercial)",
	}

	tests := []struct {
		name string
		c    Constraints
		want bool
	}{
		{name: "no constraints", c: Constraints{}, want: true},
		{name: "min samples satisfied", c: Constraints{MinSamples: ptr(int64(1_000_000))}, want: true},
		{name: "max samples violated", c: Constraints{MaxSamples: ptr(int64(1_000_000))}, want: false},
		{name: "modality subset", c: Constraints{Modalities: []string{"images"}}, want: true},
		{name: "modality missing", c: Constraints{Modalities: []string{"Images", "Texts"}}, want: false},
		{name: "language subset", c: Constraints{Languages: []string{"English"}}, want: true},
		{name: "language missing", c: Constraints{Languages: []string{"French"}}, want: false},
		{name: "task substring", c: Constraints{Task: "Classification"}, want: true},
		{name: "task is case-sensitive", c: Constraints{Task: "classification"}, want: false},
		{name: "license case-insensitive", c: Constraints{LicenseName: "custom"}, want: true},
		{name: "license mismatch", c: Constraints{LicenseName: "mit"}, want: false},
		{
			name: "all constraints together",
			c: Constraints{
				MinSamples: ptr(int64(10)), Modalities: []string{"Images"},
				Task: "Detection", LicenseName: "non-commercial",
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(imagenet, tt.c))
		})
	}
}

func TestMatches_UnparseableSamplesFailClosed(t *testing.T) {
	d := types.Dataset{ID: "x", Description: "A collection of scanned receipts."}
	assert.False(t, Matches(d, Constraints{MinSamples: ptr(int64(1))}))
	assert.False(t, Matches(d, Constraints{MaxSamples: ptr(int64(1_000_000))}))
	assert.True(t, Matches(d, Constraints{Task: ""}))
}

func TestMatches_ShortDescriptionFallback(t *testing.T) {
	d := types.Dataset{ID: "x", Description: "Receipts.", ShortDescription: "Contains 500 samples."}
	assert.True(t, Matches(d, Constraints{MinSamples: ptr(int64(100))}))
}

func TestApply(t *testing.T) {
	ds := []types.Dataset{
		{ID: "a", Modalities: []string{"Texts"}},
		{ID: "b", Modalities: []string{"Images"}},
		{ID: "c", Modalities: []string{"Texts", "Images"}},
	}
	got := Apply(ds, Constraints{Modalities: []string{"Texts"}})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestConstraintsIsZero(t *testing.T) {
	assert.True(t, Constraints{}.IsZero())
	assert.False(t, Constraints{Task: "QA"}.IsZero())
}

func TestParseConstraints(t *testing.T) {
	c := ParseConstraints(`English text datasets with more than 10k samples for task: Question Answering, introduced in 2019, MIT license`)
	require.NotNil(t, c.MinSamples)
	assert.Equal(t, int64(10000), *c.MinSamples)
	assert.Nil(t, c.MaxSamples)
	assert.Equal(t, []string{"Texts"}, c.Modalities)
	assert.Equal(t, []string{"English"}, c.Languages)
	assert.Equal(t, "Question Answering", c.Task)
	require.NotNil(t, c.IntroducedYear)
	assert.Equal(t, 2019, *c.IntroducedYear)
	assert.Equal(t, "mit", c.LicenseName)
}

func TestParseConstraints_Ranges(t *testing.T) {
	c := ParseConstraints("video datasets between 1,000 and 50k clips")
	require.NotNil(t, c.MinSamples)
	require.NotNil(t, c.MaxSamples)
	assert.Equal(t, int64(1000), *c.MinSamples)
	assert.Equal(t, int64(50000), *c.MaxSamples)
	assert.Equal(t, []string{"Videos"}, c.Modalities)

	c = ParseConstraints("image and point cloud data with fewer than 2 million samples under CC-BY-SA license")
	require.NotNil(t, c.MaxSamples)
	assert.Equal(t, int64(2000000), *c.MaxSamples)
	assert.Nil(t, c.MinSamples)
	assert.Equal(t, []string{"Images", "Point cloud"}, c.Modalities)
	assert.Equal(t, "cc by-sa", c.LicenseName)
}

func TestParseConstraints_Empty(t *testing.T) {
	assert.True(t, ParseConstraints("anything useful for my thesis").IsZero())
}
