package processor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
	"codeberg.org/snonux/ankilex/internal/dictionary/llm"
	"codeberg.org/snonux/ankilex/internal/dictionary/youdao"
	"codeberg.org/snonux/ankilex/internal/domparse"
	"codeberg.org/snonux/ankilex/internal/fetch"
)

// components are the lookup building blocks shared by a processor
type components struct {
	registry *dictionary.Registry
	table    *domparse.Table
	parser   dictionary.HTMLParser
}

// buildProviders creates the parse adapter and registers every provider
// the configuration allows. LLM providers are only added when keyed.
func buildProviders(ctx context.Context, cfg Config, logger *zap.Logger) (*components, error) {
	extractor := youdao.NewExtractor()
	table := domparse.NewTable(extractor)

	parser, err := domparse.New(domparse.Options{
		Mode:       cfg.ParserMode,
		SurfaceURL: cfg.SurfaceURL,
		Timeout:    cfg.ParserTimeout,
		Table:      table,
		Logger:     logger.Named("domparse"),
	})
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(cfg.HTTP, nil, logger.Named("fetch"))

	registry := dictionary.NewRegistry()
	baseURL := cfg.YoudaoURL
	if baseURL == "" {
		baseURL = youdao.DefaultBaseURL
	}
	registry.Register(youdao.NewProviderWithURL(baseURL, client, parser, logger.Named("youdao")))

	if cfg.OpenAI.APIKey != "" {
		p, err := llm.NewOpenAIProvider(cfg.OpenAI, logger.Named("openai"))
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
		}
		registry.Register(p)
	}

	if cfg.Gemini.APIKey != "" {
		p, err := llm.NewGeminiProvider(ctx, cfg.Gemini, logger.Named("gemini"))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		registry.Register(p)
	}

	return &components{
		registry: registry,
		table:    table,
		parser:   parser,
	}, nil
}
