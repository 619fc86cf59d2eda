// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Config is the full configuration tree loaded from scholar-agent.yaml,
// SCHOLAR_AGENT_* environment variables, and command-line flags.
type Config struct {
	Agent     AgentConfig     `mapstructure:"agent" json:"agent" yaml:"agent"`
	Embedding EmbeddingConfig `mapstructure:"embedding" json:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm" json:"llm" yaml:"llm"`
	Corpus    CorpusConfig    `mapstructure:"corpus" json:"corpus" yaml:"corpus"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
	Server    ServerConfig    `mapstructure:"server" json:"server" yaml:"server"`
}

// AgentConfig holds the expansion budgets for one discovery run.
type AgentConfig struct {
	// ExpandLayers is the number of similarity expansion rounds after the search stage (default 2).
	ExpandLayers int `mapstructure:"expand_layers" json:"expand_layers" yaml:"expand_layers"`

	// SearchQueries caps the number of generated search strings (default 5).
	SearchQueries int `mapstructure:"search_queries" json:"search_queries" yaml:"search_queries"`

	// SearchPapers caps raw hits per query (default 10).
	SearchPapers int `mapstructure:"search_papers" json:"search_papers" yaml:"search_papers"`

	// ExpandPapers caps the frontier of every layer after the first (default 20).
	ExpandPapers int `mapstructure:"expand_papers" json:"expand_papers" yaml:"expand_papers"`

	// ThreadsNum is the worker count per expansion layer (default 20).
	ThreadsNum int `mapstructure:"threads_num" json:"threads_num" yaml:"threads_num"`

	// SimilarPerNode is how many similar items each expanded node fetches (default 10).
	SimilarPerNode int `mapstructure:"similar_per_node" json:"similar_per_node" yaml:"similar_per_node"`

	// SearchDatasets caps raw hits per query for dataset runs (default 10).
	SearchDatasets int `mapstructure:"search_datasets" json:"search_datasets" yaml:"search_datasets"`

	// SkipFailedBatches logs and skips a batch whose scoring failed instead of aborting the run.
	SkipFailedBatches bool `mapstructure:"skip_failed_batches" json:"skip_failed_batches" yaml:"skip_failed_batches"`
}

// DefaultAgentConfig returns the documented expansion defaults.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ExpandLayers:   2,
		SearchQueries:  5,
		SearchPapers:   10,
		ExpandPapers:   20,
		ThreadsNum:     20,
		SimilarPerNode: 10,
		SearchDatasets: 10,
	}
}

// EmbeddingProvider names an embedding backend.
type EmbeddingProvider string

const (
	EmbeddingOllama EmbeddingProvider = "ollama"
	EmbeddingHash   EmbeddingProvider = "hash"
)

// EmbeddingConfig selects and tunes the embedding model behind the semantic index.
type EmbeddingConfig struct {
	Provider   EmbeddingProvider `mapstructure:"provider" json:"provider" yaml:"provider"`
	BaseURL    string            `mapstructure:"base_url" json:"base_url" yaml:"base_url"`
	Model      string            `mapstructure:"model" json:"model" yaml:"model"`
	Dimensions int               `mapstructure:"dimensions" json:"dimensions" yaml:"dimensions"`
	Timeout    time.Duration     `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// LLMProvider names a backend for the crawler and selector services.
type LLMProvider string

const (
	LLMAnthropic LLMProvider = "anthropic"
	LLMOllama    LLMProvider = "ollama"
	LLMMock      LLMProvider = "mock"
)

// LLMConfig holds settings for the crawler and selector services.
type LLMConfig struct {
	Provider LLMProvider `mapstructure:"provider" json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929" or "llama3.1").
	Model string `mapstructure:"model" json:"model" yaml:"model"`

	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url"`

	// APIKey is the authentication key; usually supplied through .secrets/ or .env.
	APIKey string `mapstructure:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond limits outgoing calls; 0 means unlimited.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`

	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// CorpusConfig locates the corpus database and the cached index snapshots.
type CorpusConfig struct {
	DBPath        string `mapstructure:"db_path" json:"db_path" yaml:"db_path"`
	PapersIndex   string `mapstructure:"papers_index" json:"papers_index" yaml:"papers_index"`
	DatasetsIndex string `mapstructure:"datasets_index" json:"datasets_index" yaml:"datasets_index"`
}

// LogConfig configures the process-wide structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// Format is console (colourised levels) or json.
	Format string `mapstructure:"format" json:"format" yaml:"format"`

	AddSource   bool   `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`

	// LogFile enables a rotating JSON file sink when set.
	LogFile    string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" json:"addr" yaml:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`
}
