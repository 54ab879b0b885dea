package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
)

// Classifier classifies phrases with an OpenAI-compatible chat
// completion API in forced function calling mode. It implements
// intent.Classifier.
type Classifier struct {
	client openai.Client
	model  string
	tools  []openai.ChatCompletionToolUnionParam
	retry  RetryConfig
	logger *logger.Logger
}

// NewClassifier creates an LLM-backed classifier. Returns nil when
// apiKey is empty, which disables LLM classification.
func NewClassifier(apiKey, model, endpoint string, retry RetryConfig, log *logger.Logger) (*Classifier, error) {
	if apiKey == "" {
		return nil, nil
	}
	if model == "" {
		return nil, errors.New("model is required for LLM classification")
	}
	if endpoint == "" {
		return nil, errors.New("endpoint is required for LLM classification")
	}

	client := openai.NewClient(
		option.WithBaseURL(endpoint),
		option.WithAPIKey(apiKey),
	)

	return &Classifier{
		client: client,
		model:  model,
		tools:  buildTools(),
		retry:  retry,
		logger: log.WithModule("genai"),
	}, nil
}

// Classify picks the intent for a phrase, retrying transient failures
// with backoff.
func (c *Classifier) Classify(ctx context.Context, phrase string) (intent.Key, error) {
	if c == nil {
		return "", errors.New("classifier is not configured")
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if err := sleep(ctx, backoff(attempt, c.retry.InitialDelay, c.retry.MaxDelay)); err != nil {
			return "", err
		}

		key, err := c.classifyOnce(ctx, phrase)
		if err == nil {
			return key, nil
		}
		lastErr = err
		c.logger.WithError(err).Warn("Intent classification attempt failed",
			"attempt", attempt+1, "model", c.model)
	}
	return "", fmt.Errorf("intent classification failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Classifier) classifyOnce(ctx context.Context, phrase string) (intent.Key, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(phrase),
		},
		Tools: c.tools,
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(32),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	key, err := parseChoice(resp)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Intent classified",
		"model", c.model,
		"intent", string(key),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds())
	return key, nil
}

// parseChoice extracts the intent key from the forced tool call.
func parseChoice(resp *openai.ChatCompletion) (intent.Key, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return "", errors.New("no tool call in response")
	}
	tc := calls[0]
	if tc.Type != "function" {
		return "", fmt.Errorf("unexpected tool type: %s", tc.Type)
	}

	key, ok := functionIntents[tc.Function.Name]
	if !ok {
		return "", fmt.Errorf("unknown intent function: %s", tc.Function.Name)
	}
	return key, nil
}

// Enabled reports whether LLM classification is configured.
func (c *Classifier) Enabled() bool {
	return c != nil
}
