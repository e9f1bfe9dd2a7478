package extractkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultOpenAIModel matches the model the extraction prompts were tuned on.
	DefaultOpenAIModel = "gpt-4o-mini"

	openAISystemPrompt = "You extract structured data from text. Reply with a single JSON object and nothing else."
)

// OpenAIConfig holds configuration for the OpenAI invoker.
type OpenAIConfig struct {
	APIKey       string
	Model        string        // default model; "gpt-4o-mini" when empty
	Temperature  float64       // 0 keeps extraction deterministic
	SystemPrompt string        // "" → openAISystemPrompt
	MaxRetries   int           // retry attempts for SDK transport
	Timeout      time.Duration // HTTP timeout
	BaseURL      string        // Optional (tests)
	HTTPClient   *http.Client  // Optional (tests)
}

// OpenAIInvoker implements Invoker with the official OpenAI SDK.
type OpenAIInvoker struct {
	client       openai.Client
	model        string
	temperature  float64
	systemPrompt string
	log          *slog.Logger
}

// NewOpenAIInvoker creates a chat-completions backed invoker.
func NewOpenAIInvoker(cfg OpenAIConfig, log *slog.Logger) *OpenAIInvoker {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = openAISystemPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIInvoker{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
		log:          log,
	}
}

// Generate sends the prompt as a user turn and asks for a JSON object reply.
func (c *OpenAIInvoker) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	name := string(model)
	if name == "" {
		name = c.model
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(name),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if err := applyOpenAIParameters(&req, params); err != nil {
		return nil, err
	}

	c.log.Debug("Calling OpenAI chat completions", "model", name, "prompt_length", len(prompt))
	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("openai returned empty content (finish reason %q)", resp.Choices[0].FinishReason)
	}

	c.log.Debug("OpenAI response received",
		"response_length", len(content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return []byte(content), nil
}

// applyOpenAIParameters understands the same keys as the GenAI invoker.
func applyOpenAIParameters(req *openai.ChatCompletionNewParams, params map[string]string) error {
	if v, ok := params["temperature"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid temperature parameter '%s': %w", v, err)
		}
		if f < 0 || f > 2 {
			return fmt.Errorf("temperature parameter '%v' must be between 0.0 and 2.0", f)
		}
		req.Temperature = openai.Float(f)
	}
	if v, ok := params["topP"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid topP parameter '%s': %w", v, err)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("topP parameter '%v' must be between 0.0 and 1.0", f)
		}
		req.TopP = openai.Float(f)
	}
	for _, key := range []string{"maxTokens", "maxOutputTokens"} {
		v, ok := params[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s parameter '%s': %w", key, v, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s parameter '%d' must be greater than 0", key, n)
		}
		req.MaxCompletionTokens = openai.Int(int64(n))
	}
	return nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("openai error (status %d): %s: %w", apiErr.StatusCode, apiErr.Message, err)
		}
		return fmt.Errorf("openai error (status %d): %w", apiErr.StatusCode, err)
	}
	return err
}
