// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Report is the on-disk form of a run. A run can be saved and reloaded
// without repeating the LLM calls.
type Report struct {
	RunID     string           `json:"run_id" yaml:"run_id"`
	Kind      string           `json:"kind" yaml:"kind"`
	Query     string           `json:"query" yaml:"query"`
	Queries   []string         `json:"queries" yaml:"queries"`
	Results   []map[string]any `json:"results" yaml:"results"`
	Tree      map[string]any   `json:"tree" yaml:"tree"`
	Stats     Stats            `json:"stats" yaml:"stats"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
}

// Report converts the result into its serializable form.
func (res *Result) Report() Report {
	results := make([]map[string]any, len(res.Results))
	for i, n := range res.Results {
		results[i] = n.Flat()
	}
	return Report{
		RunID:     res.RunID,
		Kind:      res.Kind,
		Query:     res.Query,
		Queries:   res.Queries,
		Results:   results,
		Tree:      res.Root.ToMap(),
		Stats:     res.Stats,
		Timestamp: time.Now().UTC(),
	}
}

// Root rebuilds the provenance tree.
func (r Report) Root() (*Node, error) {
	if r.Tree == nil {
		return nil, fmt.Errorf("run %s has no tree", r.RunID)
	}
	return NodeFromMap(r.Tree)
}

// WriteRunFile saves the run to path as JSON when the extension is .json and
// as YAML otherwise.
func WriteRunFile(path string, res *Result) error {
	rep := res.Report()

	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(rep, "", "  ")
	} else {
		data, err = yaml.Marshal(&rep)
	}
	if err != nil {
		return fmt.Errorf("encoding run file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating run file directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run file: %w", err)
	}
	return nil
}

// ReadRunFile loads a run saved by WriteRunFile.
func ReadRunFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("reading run file: %w", err)
	}
	var rep Report
	if isJSON(path) {
		err = json.Unmarshal(data, &rep)
	} else {
		err = yaml.Unmarshal(data, &rep)
	}
	if err != nil {
		return Report{}, fmt.Errorf("parsing run file %s: %w", path, err)
	}
	return rep, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
