package youdao

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
	"codeberg.org/snonux/ankilex/internal/fetch"
)

// DefaultBaseURL is the Youdao word page prefix
const DefaultBaseURL = "https://dict.youdao.com/w/"

// Provider looks words up on Youdao and extracts the Collins entry
type Provider struct {
	baseURL   string
	client    *fetch.Client
	parser    dictionary.HTMLParser
	extractor *Extractor
	logger    *zap.Logger
}

// NewProvider creates a provider against the live Youdao site
func NewProvider(client *fetch.Client, parser dictionary.HTMLParser, logger *zap.Logger) *Provider {
	return NewProviderWithURL(DefaultBaseURL, client, parser, logger)
}

// NewProviderWithURL creates a provider with a custom page prefix (for tests)
func NewProviderWithURL(baseURL string, client *fetch.Client, parser dictionary.HTMLParser, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Provider{
		baseURL:   baseURL,
		client:    client,
		parser:    parser,
		extractor: NewExtractor(),
		logger:    logger,
	}
}

// ID implements dictionary.Provider
func (p *Provider) ID() string { return ProviderID }

// Name implements dictionary.Provider
func (p *Provider) Name() string { return ProviderName }

// SupportedLanguages implements dictionary.Provider
func (p *Provider) SupportedLanguages() []string { return []string{"en"} }

// Extractor exposes the document parser so a parse surface can register it
func (p *Provider) Extractor() *Extractor { return p.extractor }

// LookupURL returns the page fetched for word
func (p *Provider) LookupURL(word string) string {
	return p.baseURL + EncodeURIComponent(word)
}

// Lookup implements dictionary.Provider
func (p *Provider) Lookup(ctx context.Context, word string) (*dictionary.Entry, error) {
	url := p.LookupURL(word)

	html, err := p.client.GetString(ctx, url)
	if err != nil {
		p.logger.Warn("Youdao fetch failed", zap.String("word", word), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch definition from Youdao: %w", err)
	}

	result := p.parser.Parse(ctx, html, p.extractor)
	entry := dictionary.NewEntry(word, ProviderName, result)

	p.logger.Debug("Youdao lookup complete",
		zap.String("word", word),
		zap.Int("definitions", len(entry.Definitions)),
		zap.Int("pronunciations", len(entry.Pronunciations)),
	)
	return entry, nil
}
