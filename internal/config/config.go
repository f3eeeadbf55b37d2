package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the chatbot looks for its configuration when no
// --config flag is given. YAML parsing accepts the JSON layout as-is.
const DefaultPath = "config.json"

// ErrNotFound is returned by Load when the configuration file does not exist.
var ErrNotFound = errors.New("config file not found")

// ParseError reports a configuration document that is not valid structured data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a field whose value breaks a constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config field %s: %s", e.Field, e.Reason)
}

// DataConfig points at the knowledge file.
type DataConfig struct {
	KnowledgeFile string `yaml:"knowledge_file" json:"knowledge_file"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	Collection string `yaml:"collection" json:"collection"`
	APIKey     string `yaml:"api_key" json:"api_key"`
}

// RAGConfig configures chunking, embedding, indexing and retrieval.
type RAGConfig struct {
	ChunkSize         int          `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap      int          `yaml:"chunk_overlap" json:"chunk_overlap"`
	SimilaritySearchK int          `yaml:"similarity_search_k" json:"similarity_search_k"`
	Splitter          string       `yaml:"splitter" json:"splitter"`
	Embedder          string       `yaml:"embedder" json:"embedder"`
	VectorStore       string       `yaml:"vector_store" json:"vector_store"`
	EmbedConcurrency  int          `yaml:"embed_concurrency" json:"embed_concurrency"`
	Qdrant            QdrantConfig `yaml:"qdrant" json:"qdrant"`
}

// OpenAIConfig holds credentials and model names for the AI provider.
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key" json:"api_key"`
	EmbeddingModel string  `yaml:"embedding_model" json:"embedding_model"`
	Model          string  `yaml:"model" json:"model"`
	Temperature    float64 `yaml:"temperature" json:"temperature"`
	BaseURL        string  `yaml:"base_url" json:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" json:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" json:"max_retries"`
	BatchSize      int     `yaml:"batch_size" json:"batch_size"`
}

// UIConfig selects how the session is presented.
type UIConfig struct {
	Mode             string `yaml:"mode" json:"mode"`
	ShowSummary      bool   `yaml:"show_summary" json:"show_summary"`
	SummarySentences int    `yaml:"summary_sentences" json:"summary_sentences"`
}

// TelemetryConfig enables optional error reporting.
type TelemetryConfig struct {
	SentryDSN        string  `yaml:"sentry_dsn" json:"sentry_dsn"`
	Environment      string  `yaml:"environment" json:"environment"`
	TracesSampleRate float64 `yaml:"traces_sample_rate" json:"traces_sample_rate"`
}

// Config is the root application configuration structure.
type Config struct {
	Data      DataConfig      `yaml:"data" json:"data"`
	RAG       RAGConfig       `yaml:"rag" json:"rag"`
	OpenAI    OpenAIConfig    `yaml:"openai" json:"openai"`
	UI        UIConfig        `yaml:"ui" json:"ui"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return Parse(path, data)
}

// Parse decodes a configuration document. The path is only used in errors.
func Parse(path string, data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
// A .json path gets indented JSON, anything else YAML.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Starter returns a complete configuration for a first run. The API key is
// left empty so it can come from OPENAI_API_KEY.
func Starter() *Config {
	cfg := &Config{
		Data: DataConfig{KnowledgeFile: "knowledge.txt"},
		RAG: RAGConfig{
			ChunkSize:         1000,
			ChunkOverlap:      200,
			SimilaritySearchK: 3,
		},
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			Model:          "gpt-4o-mini",
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

// Validate checks the constraints every component relies on.
func (c *Config) Validate() error {
	switch {
	case c.Data.KnowledgeFile == "":
		return &ValidationError{Field: "data.knowledge_file", Reason: "must be set"}
	case c.RAG.ChunkSize <= 0:
		return &ValidationError{Field: "rag.chunk_size", Reason: "must be greater than 0"}
	case c.RAG.ChunkOverlap < 0:
		return &ValidationError{Field: "rag.chunk_overlap", Reason: "must not be negative"}
	case c.RAG.ChunkOverlap >= c.RAG.ChunkSize:
		return &ValidationError{Field: "rag.chunk_overlap", Reason: "must be smaller than rag.chunk_size"}
	case c.RAG.SimilaritySearchK <= 0:
		return &ValidationError{Field: "rag.similarity_search_k", Reason: "must be greater than 0"}
	case c.OpenAI.Temperature < 0:
		return &ValidationError{Field: "openai.temperature", Reason: "must not be negative"}
	case c.OpenAI.Model == "":
		return &ValidationError{Field: "openai.model", Reason: "must be set"}
	case c.Telemetry.TracesSampleRate < 0 || c.Telemetry.TracesSampleRate > 1:
		return &ValidationError{Field: "telemetry.traces_sample_rate", Reason: "must be between 0 and 1"}
	case c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "":
		return &ValidationError{Field: "openai.api_key", Reason: "must be set unless openai.base_url points at a keyless endpoint"}
	}
	if err := oneOf("rag.splitter", c.RAG.Splitter, "recursive", "sentence"); err != nil {
		return err
	}
	if err := oneOf("rag.embedder", c.RAG.Embedder, "openai", "tfidf"); err != nil {
		return err
	}
	if c.RAG.Embedder == "openai" && c.OpenAI.EmbeddingModel == "" {
		return &ValidationError{Field: "openai.embedding_model", Reason: "must be set for the openai embedder"}
	}
	if err := oneOf("rag.vector_store", c.RAG.VectorStore, "memory", "qdrant"); err != nil {
		return err
	}
	if c.RAG.VectorStore == "qdrant" && c.RAG.Qdrant.Collection == "" {
		return &ValidationError{Field: "rag.qdrant.collection", Reason: "must be set for the qdrant vector store"}
	}
	return oneOf("ui.mode", c.UI.Mode, "plain", "tui")
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Reason: fmt.Sprintf("unknown value %q (want one of %v)", value, allowed)}
}

func applyConfigDefaults(cfg *Config) {
	if cfg.RAG.Splitter == "" {
		cfg.RAG.Splitter = "recursive"
	}
	if cfg.RAG.Embedder == "" {
		cfg.RAG.Embedder = "openai"
	}
	if cfg.RAG.VectorStore == "" {
		cfg.RAG.VectorStore = "memory"
	}
	if cfg.RAG.EmbedConcurrency <= 0 {
		cfg.RAG.EmbedConcurrency = 1
	}
	if cfg.RAG.VectorStore == "qdrant" {
		if cfg.RAG.Qdrant.Host == "" {
			cfg.RAG.Qdrant.Host = "localhost"
		}
		if cfg.RAG.Qdrant.Port == 0 {
			cfg.RAG.Qdrant.Port = 6334
		}
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 60
	}
	if cfg.OpenAI.MaxRetries == 0 {
		cfg.OpenAI.MaxRetries = 3
	}
	if cfg.OpenAI.BatchSize == 0 {
		cfg.OpenAI.BatchSize = 64
	}
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = "plain"
	}
	if cfg.UI.SummarySentences == 0 {
		cfg.UI.SummarySentences = 3
	}
	if cfg.Telemetry.Environment == "" {
		cfg.Telemetry.Environment = "development"
	}
}
