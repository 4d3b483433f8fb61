package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"reog-rag/internal/config"
)

// Client talks to the hosted completion service. A timeout or unreachable
// server yields an error; the caller decides how to degrade.
type Client struct {
	llm     *ollama.LLM
	timeout time.Duration
}

func NewClient(llmConfig *config.LLMConfig) (*Client, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		llm:     llm,
		timeout: time.Duration(llmConfig.TimeoutSeconds) * time.Second,
	}, nil
}

// Generate runs a single completion with a hard timeout. The returned text is
// trimmed; an empty completion is not an error here.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string, temperature float64, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		log.Error().Err(err).Msg("LLM generation failed")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	log.Debug().Int("chars", len(text)).Msg("LLM generated text")
	return text, nil
}
