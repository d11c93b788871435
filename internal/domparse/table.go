package domparse

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// Table is the parse surface's own set of document parsers, keyed by provider id
type Table struct {
	mu      sync.RWMutex
	parsers map[string]dictionary.DocumentParser
}

// NewTable creates a table holding the given parsers
func NewTable(parsers ...dictionary.DocumentParser) *Table {
	t := &Table{parsers: make(map[string]dictionary.DocumentParser)}
	for _, p := range parsers {
		t.Add(p)
	}
	return t
}

// Add registers p under its id, replacing any previous parser
func (t *Table) Add(p dictionary.DocumentParser) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parsers[strings.ToLower(p.ID())] = p
}

// Get returns the parser for id
func (t *Table) Get(id string) (dictionary.DocumentParser, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.parsers[strings.ToLower(id)]
	return p, ok
}

// Request asks a parse surface to parse html with the parser registered as id
type Request struct {
	HTML string `json:"html"`
	ID   string `json:"id"`
}

// Response carries the extraction, or nil when the surface could not produce one
type Response struct {
	Results *dictionary.Extraction `json:"results"`
}

// Handle answers a single parse request against the table
func (t *Table) Handle(req Request, logger *zap.Logger) Response {
	parser, ok := t.Get(req.ID)
	if !ok {
		logger.Warn("Parse request for unknown provider", zap.String("id", req.ID))
		return Response{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		logger.Warn("Failed to parse HTML", zap.String("id", req.ID), zap.Error(err))
		empty := dictionary.EmptyExtraction()
		return Response{Results: &empty}
	}

	result := parser.ParseDocument(doc)
	return Response{Results: &result}
}
