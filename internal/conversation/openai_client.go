package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kapalua/ordersbot/internal/observability/metrics"
	"github.com/kapalua/ordersbot/pkg/logging"
)

var llmTracer = otel.Tracer("ordersbot.internal.conversation.llm")

const completionTimeout = 30 * time.Second

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient talks to any OpenAI-compatible completion endpoint; in
// production that is an Ollama server fronting the llama3 model.
type OpenAIClient struct {
	client  chatCompleter
	model   string
	metrics *metrics.BotMetrics
	logger  *logging.Logger
}

// NewOpenAIClient builds an LLMClient against baseURL. An empty baseURL
// falls back to the official OpenAI endpoint.
func NewOpenAIClient(baseURL, apiKey, model string, m *metrics.BotMetrics, logger *logging.Logger) *OpenAIClient {
	if model == "" {
		model = "llama3"
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		metrics: m,
		logger:  logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := llmTracer.Start(ctx, "conversation.llm.complete")
	defer span.End()
	span.SetAttributes(attribute.String("ordersbot.llm.model", c.model))

	callCtx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 256,
	})
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveLLMRequest("error", time.Since(start).Seconds())
		return "", fmt.Errorf("conversation: llm completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("conversation: llm returned no choices")
		span.RecordError(err)
		c.metrics.ObserveLLMRequest("empty", time.Since(start).Seconds())
		return "", err
	}
	c.metrics.ObserveLLMRequest("ok", time.Since(start).Seconds())
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
