// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// num matches a count such as 1200, 1,200, 1.2k, or 3 million. It has two
// capture groups: the digits and the optional magnitude suffix.
const num = `(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)(?:\s*(thousand|million|billion|[kmb])\b)?`

var (
	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btotal\s+of\s+` + num),
		regexp.MustCompile(`(?i)` + num + `\s+(?:[\w-]+\s+){0,3}in\s+total\b`),
		regexp.MustCompile(`(?i)\b(?:dataset|corpus|collection|benchmark)\s+(?:contains|consists\s+of|comprises|includes|has)\s+` +
			`(?:over\s+|more\s+than\s+|about\s+|approximately\s+|around\s+|roughly\s+|nearly\s+)?` + num),
	}

	splitPatterns = [][]*regexp.Regexp{
		{
			regexp.MustCompile(`(?i)` + num + `\s+(?:[\w-]+\s+)?(?:training|train)\b`),
			regexp.MustCompile(`(?i)\b(?:training|train)(?:\s+set|\s+split)?(?:\s*:|\s+of|\s+with|\s+has)?\s+` + num),
		},
		{
			regexp.MustCompile(`(?i)` + num + `\s+(?:[\w-]+\s+)?(?:testing|test)\b`),
			regexp.MustCompile(`(?i)\b(?:testing|test)(?:\s+set|\s+split)?(?:\s*:|\s+of|\s+with|\s+has)?\s+` + num),
		},
		{
			regexp.MustCompile(`(?i)` + num + `\s+(?:[\w-]+\s+)?(?:validation|val|dev)\b`),
			regexp.MustCompile(`(?i)\b(?:validation|val|dev)(?:\s+set|\s+split)?(?:\s*:|\s+of|\s+with|\s+has)?\s+` + num),
		},
	}

	barePattern = regexp.MustCompile(`(?i)` + num + `\s+(?:[\w-]+\s+)?(?:examples|samples|instances)\b`)

	// splitFollows rejects a "total" whose number actually names a split size.
	splitFollows = regexp.MustCompile(`(?i)^\s+(?:[\w-]+\s+)?(?:training|train|testing|test|validation|val|dev)\b`)
)

// SampleCount extracts the number of samples a dataset description states.
// Explicit totals win; otherwise the train, test, and validation sizes are
// summed when at least two are present; otherwise the largest count of
// examples, samples, or instances is used. The boolean is false when no
// count can be found.
func SampleCount(description string) (int64, bool) {
	for _, re := range totalPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(description, -1) {
			if splitFollows.MatchString(description[loc[1]:]) {
				continue
			}
			if n, ok := parseCount(group(description, loc, 1), group(description, loc, 2)); ok {
				return n, true
			}
		}
	}

	var sum int64
	found := 0
	for _, patterns := range splitPatterns {
		for _, re := range patterns {
			if m := re.FindStringSubmatch(description); m != nil {
				if n, ok := parseCount(m[1], m[2]); ok {
					sum += n
					found++
					break
				}
			}
		}
	}
	if found >= 2 {
		return sum, true
	}

	var best int64
	ok := false
	for _, m := range barePattern.FindAllStringSubmatch(description, -1) {
		if n, parsed := parseCount(m[1], m[2]); parsed && (!ok || n > best) {
			best, ok = n, true
		}
	}
	return best, ok
}

func group(s string, loc []int, i int) string {
	if loc[2*i] < 0 {
		return ""
	}
	return s[loc[2*i]:loc[2*i+1]]
}

// parseCount converts digits with optional comma grouping and a magnitude
// suffix into an integer.
func parseCount(digits, suffix string) (int64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		v *= 1e3
	case "m", "million":
		v *= 1e6
	case "b", "billion":
		v *= 1e9
	}
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(math.Round(v)), true
}
