package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

const (
	// OpenAIProviderID identifies the OpenAI provider
	OpenAIProviderID = "openai"
	// DefaultOpenAIModel is used when no model is configured
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIConfig configures the OpenAI provider
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string // Optional, for compatible endpoints and tests
	Languages []string
}

// OpenAIProvider looks words up with an OpenAI chat model
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	languages []string
	logger    *zap.Logger
}

// NewOpenAIProvider creates the provider. It fails without an API key.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		languages: languagesOrDefault(cfg.Languages),
		logger:    logger,
	}, nil
}

// ID implements dictionary.Provider
func (p *OpenAIProvider) ID() string { return OpenAIProviderID }

// Name implements dictionary.Provider
func (p *OpenAIProvider) Name() string { return "OpenAI dictionary" }

// SupportedLanguages implements dictionary.Provider
func (p *OpenAIProvider) SupportedLanguages() []string { return p.languages }

// Lookup implements dictionary.Provider
func (p *OpenAIProvider) Lookup(ctx context.Context, word string) (*dictionary.Entry, error) {
	p.logger.Debug("OpenAI lookup", zap.String("word", word), zap.String("model", p.model))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(word)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition from OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("failed to fetch definition from OpenAI: no choices returned")
	}

	result, err := DecodeExtraction("OpenAI", resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return dictionary.NewEntry(word, p.Name(), result), nil
}
