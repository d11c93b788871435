package domparse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// DefaultTimeout bounds a single delegated parse round trip
const DefaultTimeout = 10 * time.Second

// ProvisionFunc creates the transport to a parse surface
type ProvisionFunc func() (Transport, error)

// DelegatingParser sends HTML to a parse surface and returns its extraction.
// The surface is provisioned on first use and at most once per parser.
type DelegatingParser struct {
	provision ProvisionFunc
	timeout   time.Duration
	logger    *zap.Logger

	mu           sync.Mutex
	transport    Transport
	provisioned  bool
	provisionErr error
}

// NewDelegatingParser creates a parser that provisions its surface lazily
func NewDelegatingParser(provision ProvisionFunc, timeout time.Duration, logger *zap.Logger) *DelegatingParser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DelegatingParser{
		provision: provision,
		timeout:   timeout,
		logger:    logger,
	}
}

func (p *DelegatingParser) ensureTransport() (Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transport != nil {
		return p.transport, nil
	}
	if p.provisioned {
		return nil, p.provisionErr
	}

	p.provisioned = true
	t, err := p.provision()
	if err != nil {
		p.provisionErr = fmt.Errorf("failed to provision parse surface: %w", err)
		return nil, p.provisionErr
	}
	p.logger.Debug("Parse surface provisioned")
	p.transport = t
	return t, nil
}

// Parse implements dictionary.HTMLParser. Every failure degrades to an
// empty extraction.
func (p *DelegatingParser) Parse(ctx context.Context, html string, target dictionary.DocumentParser) dictionary.Extraction {
	transport, err := p.ensureTransport()
	if err != nil {
		p.logger.Warn("Parse surface unavailable", zap.String("provider", target.ID()), zap.Error(err))
		return dictionary.EmptyExtraction()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := transport.RoundTrip(ctx, Request{HTML: html, ID: target.ID()})
	if err != nil {
		p.logger.Warn("Delegated parse failed", zap.String("provider", target.ID()), zap.Error(err))
		return dictionary.EmptyExtraction()
	}
	if resp.Results == nil {
		p.logger.Warn("Parse surface returned no results", zap.String("provider", target.ID()))
		return dictionary.EmptyExtraction()
	}
	return normalize(*resp.Results)
}

// Close releases an in-process surface if one was started
func (p *DelegatingParser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.transport.(*Surface); ok {
		s.Close()
	}
}

func normalize(ex dictionary.Extraction) dictionary.Extraction {
	if ex.Definitions == nil {
		ex.Definitions = []dictionary.Definition{}
	}
	if ex.Pronunciations == nil {
		ex.Pronunciations = []dictionary.Pronunciation{}
	}
	ex.Metadata = dictionary.NormalizeMetadata(ex.Metadata)
	return ex
}
