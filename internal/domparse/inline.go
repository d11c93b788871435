package domparse

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// InlineParser parses HTML in the calling goroutine
type InlineParser struct {
	logger *zap.Logger
}

// NewInlineParser creates an inline parser
func NewInlineParser(logger *zap.Logger) *InlineParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineParser{logger: logger}
}

// Parse implements dictionary.HTMLParser
func (p *InlineParser) Parse(ctx context.Context, html string, target dictionary.DocumentParser) dictionary.Extraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Warn("Failed to parse HTML", zap.String("provider", target.ID()), zap.Error(err))
		return dictionary.EmptyExtraction()
	}
	return target.ParseDocument(doc)
}
