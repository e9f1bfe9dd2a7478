package config

import "time"

// Config is the extractkit CLI configuration.
type Config struct {
	Providers  map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Extraction ExtractionCfg          `mapstructure:"extraction" yaml:"extraction"`
	Cache      CacheCfg               `mapstructure:"cache" yaml:"cache"`
	LogLevel   string                 `mapstructure:"log_level" yaml:"log_level"`
}

// ProviderCfg configures one inference backend.
type ProviderCfg struct {
	Type       string        `mapstructure:"type" yaml:"type"`               // "openai", "gemini"
	Model      string        `mapstructure:"model" yaml:"model"`             // Default model
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`         // API key (supports ${ENV_VAR} syntax)
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`       // Optional endpoint override
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`         // HTTP timeout
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"` // Retries around each call
}

// ExtractionCfg holds per-call defaults.
type ExtractionCfg struct {
	Provider     string            `mapstructure:"provider" yaml:"provider"`           // Key into Providers
	Prompt       string            `mapstructure:"prompt" yaml:"prompt"`               // Template tag
	PromptDir    string            `mapstructure:"prompt_dir" yaml:"prompt_dir"`       // Directory of *.twig templates
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout"`             // Per-document timeout
	Concurrency  int               `mapstructure:"concurrency" yaml:"concurrency"`     // Batch parallelism
	RetryBackoff time.Duration     `mapstructure:"retry_backoff" yaml:"retry_backoff"` // Initial retry delay
	Parameters   map[string]string `mapstructure:"parameters" yaml:"parameters"`       // Generation parameters
}

// CacheCfg selects the reply cache.
type CacheCfg struct {
	Type      string        `mapstructure:"type" yaml:"type"`             // "none", "memory", "redis"
	RedisAddr string        `mapstructure:"redis_addr" yaml:"redis_addr"` // host:port
	Prefix    string        `mapstructure:"prefix" yaml:"prefix"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}
