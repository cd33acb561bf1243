// Package config holds the docqa configuration surface: YAML file loading,
// defaults, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all docqa configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Retrieval configuration
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Pipeline orchestration settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Document store settings
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, genai

	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`
	TaskType    string `yaml:"task_type"`
}

// RetrievalConfig configures the retrieval stage.
type RetrievalConfig struct {
	// TopK is the number of passages requested per retrieval query.
	TopK int `yaml:"top_k"`

	// Strict controls the retrieval failure policy: when true a retriever
	// error aborts the run; when false it degrades to empty context.
	Strict bool `yaml:"strict"`
}

// PipelineConfig configures the graph runner.
type PipelineConfig struct {
	// SummaryThreshold is the history length above which the memory
	// summarizer regenerates the rolling conversation summary.
	SummaryThreshold int `yaml:"summary_threshold"`

	// MaxToolIterations caps the agent wrapper's tool-call loop.
	MaxToolIterations int `yaml:"max_tool_iterations"`

	// StageTimeout bounds each external capability call.
	StageTimeout string `yaml:"stage_timeout"`
}

// StoreConfig configures the SQLite document store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "docqa",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
			BaseURL:  "https://api.anthropic.com/v1",
			Timeout:  "120s",
		},

		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "RETRIEVAL_QUERY",
		},

		Retrieval: RetrievalConfig{
			TopK:   5,
			Strict: true,
		},

		Pipeline: PipelineConfig{
			SummaryThreshold:  2,
			MaxToolIterations: 5,
			StageTimeout:      "120s",
		},

		Store: StoreConfig{
			DatabasePath: "data/docqa.db",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// API keys are checked in priority order: ANTHROPIC > OPENAI.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Embedding.GenAIAPIKey == "" {
		c.Embedding.GenAIAPIKey = key
	}
	if path := os.Getenv("DOCQA_DB_PATH"); path != "" {
		c.Store.DatabasePath = path
	}
	if os.Getenv("DOCQA_DEBUG") == "1" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// LLMTimeout parses the LLM timeout string, defaulting to 120s.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// StageTimeout parses the per-stage timeout string, defaulting to 120s.
func (c *Config) StageTimeout() time.Duration {
	return parseDuration(c.Pipeline.StageTimeout, 120*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// DefaultConfigPath returns the default path to .docqa/config.yaml in the
// current working directory.
func DefaultConfigPath() string {
	return filepath.Join(".docqa", "config.yaml")
}
