// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	betweenRe = regexp.MustCompile(`(?i)\bbetween\s+` + num + `\s+and\s+` + num)
	minRe     = regexp.MustCompile(`(?i)(?:\bmore\s+than|\bover|\bat\s+least|>=?)\s*` + num)
	maxRe     = regexp.MustCompile(`(?i)(?:\bless\s+than|\bfewer\s+than|\bunder|\bat\s+most|\bup\s+to|<=?)\s*` + num)
	yearRe    = regexp.MustCompile(`(?i)\bintroduced\s+(?:in\s+)?((?:19|20)\d{2})\b`)
	taskRe    = regexp.MustCompile(`(?i)\btask\s*[:=]?\s*"([^"]+)"|\btask:\s*([^,;.]+)`)
	licenseRe = regexp.MustCompile(`(?i)\b(cc0|cc[\s-]by(?:[\s-](?:nc|sa|nd))*|mit|apache|lgpl|gpl|bsd)\b`)
)

// Canonical modality and language names as used by Papers with Code, keyed
// by the words that select them.
var (
	modalityWords = []struct {
		re   *regexp.Regexp
		name string
	}{
		{regexp.MustCompile(`(?i)\bimages?\b|\bimagery\b|\bphotos?\b`), "Images"},
		{regexp.MustCompile(`(?i)\btexts?\b|\btextual\b`), "Texts"},
		{regexp.MustCompile(`(?i)\bvideos?\b`), "Videos"},
		{regexp.MustCompile(`(?i)\baudio\b`), "Audio"},
		{regexp.MustCompile(`(?i)\bspeech\b`), "Speech"},
		{regexp.MustCompile(`(?i)\bgraphs?\b`), "Graphs"},
		{regexp.MustCompile(`(?i)\btabular\b`), "Tabular"},
		{regexp.MustCompile(`(?i)\btime[\s-]series\b`), "Time series"},
		{regexp.MustCompile(`(?i)\bpoint[\s-]clouds?\b`), "Point cloud"},
		{regexp.MustCompile(`(?i)\b3d\b`), "3D"},
		{regexp.MustCompile(`(?i)\bmedical\b`), "Medical"},
	}

	languageNames = []string{
		"English", "Chinese", "French", "German", "Spanish", "Japanese",
		"Korean", "Arabic", "Russian", "Portuguese", "Italian", "Hindi",
	}
	languageRes = compileWords(languageNames)
)

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// ParseConstraints extracts dataset constraints from a free-text request
// such as "English text datasets with more than 10k samples, introduced 2019,
// MIT license". Unrecognised text is ignored.
func ParseConstraints(text string) Constraints {
	var c Constraints

	if m := betweenRe.FindStringSubmatch(text); m != nil {
		lo, okLo := parseCount(m[1], m[2])
		hi, okHi := parseCount(m[3], m[4])
		if okLo && okHi {
			c.MinSamples, c.MaxSamples = &lo, &hi
		}
	} else {
		if m := minRe.FindStringSubmatch(text); m != nil {
			if n, ok := parseCount(m[1], m[2]); ok {
				c.MinSamples = &n
			}
		}
		if m := maxRe.FindStringSubmatch(text); m != nil {
			if n, ok := parseCount(m[1], m[2]); ok {
				c.MaxSamples = &n
			}
		}
	}

	for _, mw := range modalityWords {
		if mw.re.MatchString(text) {
			c.Modalities = append(c.Modalities, mw.name)
		}
	}

	for i, re := range languageRes {
		if re.MatchString(text) {
			c.Languages = append(c.Languages, languageNames[i])
		}
	}

	if m := taskRe.FindStringSubmatch(text); m != nil {
		c.Task = strings.TrimSpace(m[1] + m[2])
	}

	if m := yearRe.FindStringSubmatch(text); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			c.IntroducedYear = &y
		}
	}

	if strings.Contains(strings.ToLower(text), "licen") {
		if m := licenseRe.FindStringSubmatch(text); m != nil {
			name := strings.ToLower(m[1])
			name = strings.Replace(name, "cc-by", "cc by", 1)
			c.LicenseName = name
		}
	}

	return c
}
