package llm

import (
	"fmt"
	"os"
	"time"

	"docqa/internal/config"
	"docqa/internal/logging"
)

// Provider identifies which API backend a client talks to.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClientFromConfig creates a client from the resolved LLM configuration.
func NewClientFromConfig(cfg config.LLMConfig) (Client, error) {
	provider := Provider(cfg.Provider)
	apiKey := cfg.APIKey
	if apiKey == "" {
		var err error
		provider, apiKey, err = detectProvider()
		if err != nil {
			return nil, err
		}
	}

	timeout := 120 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}

	logging.Boot("LLM client: provider=%s model=%s", provider, cfg.Model)

	switch provider {
	case ProviderAnthropic:
		ac := DefaultAnthropicConfig(apiKey)
		if cfg.Model != "" {
			ac.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			ac.BaseURL = cfg.BaseURL
		}
		ac.Timeout = timeout
		return NewAnthropicClientWithConfig(ac), nil

	case ProviderOpenAI:
		oc := DefaultOpenAIConfig(apiKey)
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.Timeout = timeout
		return NewOpenAIClientWithConfig(oc), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// NewClientFromEnv creates a client from environment variables alone.
func NewClientFromEnv() (Client, error) {
	provider, apiKey, err := detectProvider()
	if err != nil {
		return nil, err
	}
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey), nil
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey), nil
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", provider)
}

// detectProvider checks environment variables in priority order.
func detectProvider() (Provider, string, error) {
	probes := []struct {
		envVar   string
		provider Provider
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"OPENAI_API_KEY", ProviderOpenAI},
	}
	for _, p := range probes {
		if key := os.Getenv(p.envVar); key != "" {
			return p.provider, key, nil
		}
	}
	return "", "", fmt.Errorf("no API key found; set ANTHROPIC_API_KEY or OPENAI_API_KEY, or configure llm.api_key")
}
