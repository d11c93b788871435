package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

const (
	// GeminiProviderID identifies the Gemini provider
	GeminiProviderID = "gemini"
	// DefaultGeminiModel is used when no model is configured
	DefaultGeminiModel = "gemini-2.0-flash"
)

// GeminiConfig configures the Gemini provider
type GeminiConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Languages []string
}

// GeminiProvider looks words up with a Gemini model
type GeminiProvider struct {
	client    *genai.Client
	model     string
	languages []string
	logger    *zap.Logger
}

// NewGeminiProvider creates the provider. It fails without an API key.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     cfg.Model,
		languages: languagesOrDefault(cfg.Languages),
		logger:    logger,
	}, nil
}

// ID implements dictionary.Provider
func (p *GeminiProvider) ID() string { return GeminiProviderID }

// Name implements dictionary.Provider
func (p *GeminiProvider) Name() string { return "Gemini dictionary" }

// SupportedLanguages implements dictionary.Provider
func (p *GeminiProvider) SupportedLanguages() []string { return p.languages }

// Lookup implements dictionary.Provider
func (p *GeminiProvider) Lookup(ctx context.Context, word string) (*dictionary.Entry, error) {
	p.logger.Debug("Gemini lookup", zap.String("word", word), zap.String("model", p.model))

	temp := float32(0.2)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: BuildPrompt(word)},
			},
		},
	}, &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition from Gemini: %w", err)
	}

	result, err := DecodeExtraction("Gemini", responseText(resp))
	if err != nil {
		return nil, err
	}
	return dictionary.NewEntry(word, p.Name(), result), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
