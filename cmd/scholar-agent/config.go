// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-agent/internal/embedding"
	"github.com/pdiddy/scholar-agent/internal/secrets"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

func setDefaults(v *viper.Viper) {
	a := types.DefaultAgentConfig()
	v.SetDefault("agent.expand_layers", a.ExpandLayers)
	v.SetDefault("agent.search_queries", a.SearchQueries)
	v.SetDefault("agent.search_papers", a.SearchPapers)
	v.SetDefault("agent.expand_papers", a.ExpandPapers)
	v.SetDefault("agent.threads_num", a.ThreadsNum)
	v.SetDefault("agent.similar_per_node", a.SimilarPerNode)
	v.SetDefault("agent.search_datasets", a.SearchDatasets)
	v.SetDefault("agent.skip_failed_batches", a.SkipFailedBatches)

	v.SetDefault("embedding.provider", string(types.EmbeddingOllama))
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.model", embedding.DefaultModel)
	v.SetDefault("embedding.dimensions", embedding.DefaultDimensions)
	v.SetDefault("embedding.timeout", 30*time.Second)

	v.SetDefault("llm.provider", string(types.LLMAnthropic))
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.requests_per_second", 0.0)
	v.SetDefault("llm.timeout", 2*time.Minute)

	v.SetDefault("corpus.db_path", "data/corpus.db")
	v.SetDefault("corpus.papers_index", "data/cache/papers.gob")
	v.SetDefault("corpus.datasets_index", "data/cache/datasets.gob")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.add_source", false)
	v.SetDefault("log.service_name", "scholar-agent")
	v.SetDefault("log.log_file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 120*time.Second)
}

// configFrom unmarshals the configuration tree and folds in secrets. It
// reports whether the mock LLM provider was requested through
// USE_MOCK_MODELS.
func configFrom(v *viper.Viper, s secrets.Secrets) (types.Config, bool, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return c, false, fmt.Errorf("parsing configuration: %w", err)
	}

	if c.LLM.APIKey == "" {
		if key, ok := s.Get("anthropic-api-key"); ok {
			c.LLM.APIKey = key
		} else {
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if url, ok := s.Get("ollama-url"); ok {
		if c.LLM.BaseURL == "" && c.LLM.Provider == types.LLMOllama {
			c.LLM.BaseURL = url
		}
		if c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = url
		}
	}

	mock := s.Bool("use-mock-models")
	switch strings.ToLower(os.Getenv("USE_MOCK_MODELS")) {
	case "true", "1", "yes":
		mock = true
	}
	return c, mock, nil
}
