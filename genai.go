package extractkit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used by GenAIInvoker when no model is given.
const DefaultGeminiModel = "gemini-2.0-flash"

// GenerateOption represents options for generation
type GenerateOption func(*generateConfig)

type generateConfig struct {
	ModelName  string
	Prompt     string
	Parameters map[string]string
}

// WithModelName sets the model name
func WithModelName(name string) GenerateOption {
	return func(cfg *generateConfig) { cfg.ModelName = name }
}

// WithPromptText sets the prompt sent as the single user turn
func WithPromptText(prompt string) GenerateOption {
	return func(cfg *generateConfig) { cfg.Prompt = prompt }
}

// WithGenerationParameters sets the model parameters
func WithGenerationParameters(params map[string]string) GenerateOption {
	return func(cfg *generateConfig) { cfg.Parameters = params }
}

// GenerateBytes generates bytes using the Gemini API via Google GenAI
func GenerateBytes(ctx context.Context, client *genai.Client, log *slog.Logger, opts ...GenerateOption) ([]byte, error) {
	var cfg generateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if client == nil {
		return nil, fmt.Errorf("client not initialized")
	}
	if cfg.Prompt == "" {
		return nil, fmt.Errorf("no valid content provided")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(cfg.Prompt)}, genai.RoleUser),
	}

	// Create generation config for JSON output
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if err := applyGenerationParameters(config, cfg.Parameters); err != nil {
		return nil, err
	}

	log.Debug("Generating content", "model", modelName, "prompt_length", len(cfg.Prompt))

	resp, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	log.Debug("Received response", "candidates_count", len(resp.Candidates))

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no parts in candidate content")
	}
	part := candidate.Content.Parts[0]
	if part.Text == "" {
		return nil, fmt.Errorf("no text in first part of response")
	}

	log.Debug("Generated content successfully", "response_length", len(part.Text))
	return []byte(part.Text), nil
}

// applyGenerationParameters validates and copies string parameters into config.
func applyGenerationParameters(config *genai.GenerateContentConfig, params map[string]string) error {
	if temp, exists := params["temperature"]; exists {
		tempFloat, err := strconv.ParseFloat(temp, 32)
		if err != nil {
			return fmt.Errorf("invalid temperature parameter '%s': %w", temp, err)
		}
		if tempFloat < 0 || tempFloat > 2 {
			return fmt.Errorf("temperature parameter '%v' must be between 0.0 and 2.0", tempFloat)
		}
		val := float32(tempFloat)
		config.Temperature = &val
	}
	if topK, exists := params["topK"]; exists {
		topKFloat, err := strconv.ParseFloat(topK, 32)
		if err != nil {
			return fmt.Errorf("invalid topK parameter '%s': %w", topK, err)
		}
		if topKFloat <= 0 {
			return fmt.Errorf("topK parameter '%v' must be greater than 0", topKFloat)
		}
		val := float32(topKFloat)
		config.TopK = &val
	}
	if topP, exists := params["topP"]; exists {
		topPFloat, err := strconv.ParseFloat(topP, 32)
		if err != nil {
			return fmt.Errorf("invalid topP parameter '%s': %w", topP, err)
		}
		if topPFloat < 0 || topPFloat > 1 {
			return fmt.Errorf("topP parameter '%v' must be between 0.0 and 1.0", topPFloat)
		}
		val := float32(topPFloat)
		config.TopP = &val
	}
	for _, key := range []string{"maxTokens", "maxOutputTokens"} {
		v, exists := params[key]
		if !exists {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s parameter '%s': %w", key, v, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s parameter '%d' must be greater than 0", key, n)
		}
		config.MaxOutputTokens = int32(n)
	}
	return nil
}

// GenAIInvoker implements Invoker using Google GenAI.
type GenAIInvoker struct {
	client *genai.Client
	log    *slog.Logger
}

// NewGenAIInvoker wraps a genai client.
func NewGenAIInvoker(client *genai.Client, log *slog.Logger) *GenAIInvoker {
	if log == nil {
		log = slog.Default()
	}
	return &GenAIInvoker{client: client, log: log}
}

func (gv *GenAIInvoker) Generate(
	ctx context.Context,
	model Model,
	prompt string,
	params map[string]string,
) ([]byte, error) {
	gv.log.Debug("Starting generation", "model", string(model), "prompt_length", len(prompt))

	if gv.client == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	return GenerateBytes(ctx, gv.client, gv.log,
		WithModelName(string(model)),
		WithPromptText(prompt),
		WithGenerationParameters(params),
	)
}
