// Package llm adapts langchaingo models to domain.ChatClient.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quiz-corpus/internal/config"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// NewModel builds the configured langchaingo model.
func NewModel(cfg config.LLMConfig) (llms.Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model name cannot be empty")
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama, "":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("ollama server URL cannot be empty")
		}
		model, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithHTTPClient(&http.Client{}),
			ollama.WithFormat("json"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create LangchainGo Ollama client: %w", err)
		}
		return model, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key cannot be empty")
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.ServerURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// LangChainClient implements domain.ChatClient with one GenerateContent call per Chat.
type LangChainClient struct {
	model       llms.Model
	timeout     time.Duration
	temperature float64
}

func NewLangChainClient(model llms.Model, cfg config.LLMConfig) domain.ChatClient {
	return &LangChainClient{
		model:       model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
	}
}

// Chat sends the system prompt and user messages in order. A call that outlives
// the configured timeout fails with an LLM_TIMEOUT DomainError.
func (c *LangChainClient) Chat(ctx context.Context, systemPrompt string, userMessages []string) (string, error) {
	l := logger.Get()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]llms.MessageContent, 0, len(userMessages)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, m := range userMessages {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m))
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
			return "", domain.NewLLMTimeoutError("chat", err)
		}
		l.Error("Failed to get response from LLM", zap.Error(err))
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	l.Debug("LLM response received", zap.Duration("elapsed", time.Since(start)), zap.Int("length", len(resp.Choices[0].Content)))
	return resp.Choices[0].Content, nil
}
