package dictionary

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Provider looks up words in one dictionary source
type Provider interface {
	// ID is the stable identifier used in configuration and the registry
	ID() string

	// Name is the human readable display name reported in entries
	Name() string

	// SupportedLanguages lists the source languages (ISO 639-1) the provider handles
	SupportedLanguages() []string

	// Lookup fetches and normalizes the entry for word
	Lookup(ctx context.Context, word string) (*Entry, error)
}

// DocumentParser turns a parsed HTML document into an extraction.
// Scraping providers implement it so the parse step can be delegated.
type DocumentParser interface {
	ID() string
	ParseDocument(doc *goquery.Document) Extraction
}

// HTMLParser parses raw HTML and runs target over the resulting document.
// Implementations never fail: any problem yields an empty extraction.
type HTMLParser interface {
	Parse(ctx context.Context, html string, target DocumentParser) Extraction
}
