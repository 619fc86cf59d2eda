// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Dataset is one corpus dataset as exported by Papers with Code.
type Dataset struct {
	// ID is the dataset slug ("imagenet", "squad").
	ID string `json:"id" yaml:"id"`

	Name             string   `json:"name" yaml:"name"`
	FullName         string   `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Description      string   `json:"description" yaml:"description"`
	ShortDescription string   `json:"short_description,omitempty" yaml:"short_description,omitempty"`
	Modalities       []string `json:"modalities" yaml:"modalities"`
	Languages        []string `json:"languages" yaml:"languages"`
	Tasks            []string `json:"tasks" yaml:"tasks"`

	// IntroducedDate is when the dataset was introduced, usually "2006-01-02".
	IntroducedDate string `json:"introduced_date,omitempty" yaml:"introduced_date,omitempty"`

	LicenseName string `json:"license_name,omitempty" yaml:"license_name,omitempty"`

	// NumPapers counts papers that use the dataset; it is the popularity signal.
	NumPapers int `json:"num_papers" yaml:"num_papers"`

	// PaperTitle is the title of the paper that introduced the dataset.
	PaperTitle string `json:"paper_title,omitempty" yaml:"paper_title,omitempty"`

	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Key returns the identifier the semantic index uses for this dataset.
func (d Dataset) Key() string { return d.ID }

// ItemTitle returns the display title.
func (d Dataset) ItemTitle() string { return d.Name }

// EmbeddingText concatenates the fields embedded for nearest-neighbour search.
func (d Dataset) EmbeddingText() string {
	return fmt.Sprintf("%s %s %s tasks: %s modalities: %s languages: %s introduced year: %s",
		d.Name, d.Description, d.PaperTitle,
		strings.Join(d.Tasks, ", "),
		strings.Join(d.Modalities, ", "),
		strings.Join(d.Languages, ", "),
		d.IntroducedDate)
}

// IntroducedYear returns the year part of IntroducedDate.
func (d Dataset) IntroducedYear() (int, bool) {
	t, ok := ParseDate(d.IntroducedDate)
	if !ok {
		return 0, false
	}
	return t.Year(), true
}
