package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/vivaneiona/extractkit"
	"github.com/vivaneiona/extractkit/internal/config"
)

// overrides carries per-invocation flags that take precedence over the
// configuration file.
type overrides struct {
	Provider string
	Model    string
	Prompt   string
	Timeout  time.Duration
	Retries  int // -1 keeps the provider setting
	Cache    string
	Params   map[string]string
}

func defaultOverrides() overrides { return overrides{Retries: -1} }

// newInvoker creates the backend invoker for a provider entry.
func newInvoker(ctx context.Context, p config.ProviderCfg, log *slog.Logger) (extractkit.Invoker, error) {
	switch p.Type {
	case "openai":
		return extractkit.NewOpenAIInvoker(extractkit.OpenAIConfig{
			APIKey:  p.APIKey,
			Model:   p.Model,
			BaseURL: p.BaseURL,
			Timeout: p.Timeout,
		}, log), nil
	case "gemini", "genai":
		if p.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		client, err := genai.NewClient(ctx, genaiClientConfig(p))
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		return extractkit.NewGenAIInvoker(client, log), nil
	}
	return nil, fmt.Errorf("unsupported provider type %q", p.Type)
}

func genaiClientConfig(p config.ProviderCfg) *genai.ClientConfig {
	cc := &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.BaseURL != "" {
		cc.HTTPOptions.BaseURL = p.BaseURL
	}
	if p.Timeout > 0 {
		timeout := p.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}
	return cc
}

// newCache returns nil when caching is disabled.
func newCache(c config.CacheCfg) (extractkit.Cache, error) {
	switch c.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return extractkit.NewMemoryCache(), nil
	case "redis":
		addr := config.ResolveEnvVars(c.RedisAddr)
		if addr == "" {
			return nil, fmt.Errorf("redis cache requires redis_addr")
		}
		return extractkit.NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}), c.Prefix, c.TTL), nil
	}
	return nil, fmt.Errorf("unsupported cache type %q", c.Type)
}

func newPromptProvider(dir string) (extractkit.PromptProvider, error) {
	if dir == "" {
		return extractkit.DefaultPrompts(), nil
	}
	p, err := extractkit.NewStickPromptProvider(extractkit.WithFS(os.DirFS(dir), "."))
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts from %s: %w", dir, err)
	}
	return p, nil
}

// buildExtractor wires provider, retries, cache and prompts from cfg.
func buildExtractor(ctx context.Context, cfg *config.Config, ov overrides, log *slog.Logger) (*extractkit.Extractor, error) {
	if log == nil {
		log = slog.Default()
	}

	p, err := cfg.Provider(ov.Provider)
	if err != nil {
		return nil, err
	}

	inv, err := newInvoker(ctx, p, log)
	if err != nil {
		return nil, err
	}

	retries := p.MaxRetries
	if ov.Retries >= 0 {
		retries = ov.Retries
	}
	inv = extractkit.WithRetry(inv, retries, cfg.Extraction.RetryBackoff, log)

	cacheCfg := cfg.Cache
	if ov.Cache != "" {
		cacheCfg.Type = ov.Cache
	}
	cache, err := newCache(cacheCfg)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		inv = extractkit.NewCachingInvoker(inv, cache, log)
	}

	prompts, err := newPromptProvider(cfg.Extraction.PromptDir)
	if err != nil {
		return nil, err
	}

	model := p.Model
	if ov.Model != "" {
		model = ov.Model
	}
	inf := extractkit.NewPromptInferrer(inv, prompts, model, log)

	timeout := cfg.Extraction.Timeout
	if ov.Timeout > 0 {
		timeout = ov.Timeout
	}
	prompt := cfg.Extraction.Prompt
	if ov.Prompt != "" {
		prompt = ov.Prompt
	}

	log.Debug("Extractor configured",
		"provider", p.Type,
		"model", model,
		"retries", retries,
		"cache", cacheCfg.Type,
		"prompt", prompt)

	return extractkit.NewWithLogger(inf, log,
		extractkit.WithTimeout(timeout),
		extractkit.WithPrompt(prompt),
		extractkit.WithConcurrency(cfg.Extraction.Concurrency),
		extractkit.WithParameters(cfg.Extraction.Parameters),
		extractkit.WithParameters(ov.Params),
	), nil
}
