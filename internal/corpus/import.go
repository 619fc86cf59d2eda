// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Format is a corpus dump encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions
// are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a list of records in the given format: a JSON array, one JSON
// object per line, or a YAML sequence.
func Decode[T any](r io.Reader, f Format) ([]T, error) {
	var out []T
	switch f {
	case FormatJSONL:
		dec := json.NewDecoder(r)
		for {
			var v T
			err := dec.Decode(&v)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decoding record %d: %w", len(out)+1, err)
			}
			out = append(out, v)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown corpus format %q", f)
	}
	return out, nil
}

// ImportPapersFile loads a paper dump and upserts it.
func (s *Store) ImportPapersFile(ctx context.Context, path string) (ImportSummary, error) {
	papers, err := decodeFile[types.Paper](path)
	if err != nil {
		return ImportSummary{}, err
	}
	summary, err := s.UpsertPapers(ctx, papers)
	if err != nil {
		return summary, err
	}
	s.log.Info("papers imported", zap.String("path", path),
		zap.Int("inserted", summary.Inserted), zap.Int("updated", summary.Updated), zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// ImportDatasetsFile loads a dataset dump and upserts it.
func (s *Store) ImportDatasetsFile(ctx context.Context, path string) (ImportSummary, error) {
	datasets, err := decodeFile[types.Dataset](path)
	if err != nil {
		return ImportSummary{}, err
	}
	summary, err := s.UpsertDatasets(ctx, datasets)
	if err != nil {
		return summary, err
	}
	s.log.Info("datasets imported", zap.String("path", path),
		zap.Int("inserted", summary.Inserted), zap.Int("updated", summary.Updated), zap.Int("skipped", summary.Skipped))
	return summary, nil
}

func decodeFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	out, err := Decode[T](f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
