package config

import (
	"time"

	"github.com/vivaneiona/extractkit"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openai": {
				Type:       "openai",
				Model:      extractkit.DefaultOpenAIModel,
				APIKey:     "${OPENAI_API_KEY}",
				Timeout:    120 * time.Second,
				MaxRetries: 2,
			},
			"gemini": {
				Type:       "gemini",
				Model:      extractkit.DefaultGeminiModel,
				APIKey:     "${GEMINI_API_KEY}",
				Timeout:    120 * time.Second,
				MaxRetries: 2,
			},
		},
		Extraction: ExtractionCfg{
			Provider:     "openai",
			Prompt:       extractkit.DefaultPromptTag,
			Timeout:      60 * time.Second,
			Concurrency:  4,
			RetryBackoff: 500 * time.Millisecond,
			Parameters:   map[string]string{"temperature": "0"},
		},
		Cache: CacheCfg{
			Type:   "none",
			Prefix: "extractkit:reply:",
			TTL:    24 * time.Hour,
		},
		LogLevel: "info",
	}
}
