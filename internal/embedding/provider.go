// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding turns text into fixed-length vectors for the semantic index.
package embedding

import (
	"context"
	"fmt"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Provider abstracts the embedding model so tests and offline runs can
// substitute a deterministic implementation.
type Provider interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the model; index snapshots record it.
	ModelName() string

	// Dimensions is the length of every returned vector.
	Dimensions() int
}

// New builds the provider named by cfg.
func New(cfg types.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case types.EmbeddingOllama, "":
		var opts []OllamaOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, WithDimensions(cfg.Dimensions))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewOllamaProvider(opts...), nil
	case types.EmbeddingHash:
		dims := cfg.Dimensions
		if dims <= 0 {
			dims = DefaultDimensions
		}
		return NewHashProvider(dims), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
