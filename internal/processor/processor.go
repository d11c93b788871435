package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/anki"
	"codeberg.org/snonux/ankilex/internal/audio"
	"codeberg.org/snonux/ankilex/internal/dictionary"
	"codeberg.org/snonux/ankilex/internal/domparse"
	"codeberg.org/snonux/ankilex/internal/fetch"
	"codeberg.org/snonux/ankilex/internal/langdetect"
)

// ErrNoProviderForLanguage is returned when no provider is mapped to a language
var ErrNoProviderForLanguage = errors.New("no dictionary provider configured for language")

// Processor handles lookups and note creation
type Processor struct {
	registry    *dictionary.Registry
	table       *domparse.Table
	parser      dictionary.HTMLParser
	providers   map[string]string
	language    string // Used when a lookup names none, may be auto
	defaultLang string // Fallback when detection is unsure
	anki        *anki.ConnectClient
	audio       *audio.Fetcher
	logger      *zap.Logger

	detectOnce sync.Once
	detector   *langdetect.Detector
}

// New builds a processor from cfg
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Processor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	comps, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	providers := make(map[string]string, len(cfg.Providers))
	for lang, id := range cfg.Providers {
		providers[strings.ToLower(strings.TrimSpace(lang))] = strings.ToLower(strings.TrimSpace(id))
	}

	language := strings.ToLower(strings.TrimSpace(cfg.DefaultLanguage))
	if language == "" {
		language = "en"
	}
	defaultLang := language
	if defaultLang == LanguageAuto {
		defaultLang = "en"
	}

	p := &Processor{
		registry:    comps.registry,
		table:       comps.table,
		parser:      comps.parser,
		providers:   providers,
		language:    language,
		defaultLang: defaultLang,
		anki:        anki.NewConnectClient(cfg.Anki, nil, logger.Named("anki")),
		logger:      logger,
	}

	if cfg.AudioCacheDir != "" {
		// Audio hosts get their own breaker, separate from lookups
		audioHTTP := cfg.HTTP
		audioHTTP.Name = "audio"
		client := fetch.NewClient(audioHTTP, nil, logger.Named("fetch"))

		p.audio, err = audio.NewFetcher(client, cfg.AudioCacheDir, logger.Named("audio"))
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Registry returns the provider registry
func (p *Processor) Registry() *dictionary.Registry { return p.registry }

// Table returns the document parsers a parse surface can serve
func (p *Processor) Table() *domparse.Table { return p.table }

// Anki returns the AnkiConnect client
func (p *Processor) Anki() *anki.ConnectClient { return p.anki }

// Languages returns the languages that have a provider, sorted
func (p *Processor) Languages() []string {
	langs := make([]string, 0, len(p.providers))
	for lang := range p.providers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ResolveProvider returns the provider id and language used for word
func (p *Processor) ResolveProvider(word, lang string) (string, string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = p.language
	}
	if lang == LanguageAuto {
		lang = p.detect(word)
	}

	id, ok := p.providers[lang]
	if !ok || id == "" {
		return "", lang, fmt.Errorf("%w: %s", ErrNoProviderForLanguage, lang)
	}
	return id, lang, nil
}

// Lookup validates word and looks it up with the provider mapped to lang
func (p *Processor) Lookup(ctx context.Context, word, lang string) (*dictionary.Entry, error) {
	word = strings.TrimSpace(word)
	if err := audio.ValidateWord(word); err != nil {
		return nil, fmt.Errorf("invalid word '%s': %w", word, err)
	}

	id, resolved, err := p.ResolveProvider(word, lang)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Looking up word",
		zap.String("word", word),
		zap.String("language", resolved),
		zap.String("provider", id),
	)
	return p.registry.Lookup(ctx, word, id)
}

// LookupWithProvider bypasses language routing
func (p *Processor) LookupWithProvider(ctx context.Context, word, providerID string) (*dictionary.Entry, error) {
	word = strings.TrimSpace(word)
	if err := audio.ValidateWord(word); err != nil {
		return nil, fmt.Errorf("invalid word '%s': %w", word, err)
	}
	return p.registry.Lookup(ctx, word, providerID)
}

// AddNote sends entry to Anki through AnkiConnect
func (p *Processor) AddNote(ctx context.Context, entry *dictionary.Entry, defIndex int, opts anki.NoteOptions) (int64, error) {
	if entry == nil {
		return 0, errors.New("no entry to add")
	}
	return p.anki.CreateNoteFromEntry(ctx, entry, opts, defIndex)
}

// Close releases the parse surface, if one was started
func (p *Processor) Close() {
	if c, ok := p.parser.(interface{ Close() }); ok {
		c.Close()
	}
}

// detect falls back to the default language when detection is unavailable or unsure
func (p *Processor) detect(word string) string {
	p.detectOnce.Do(func() {
		var codes []string
		for _, lang := range p.Languages() {
			if langdetect.Supported(lang) {
				codes = append(codes, lang)
			}
		}
		d, err := langdetect.NewDetector(codes...)
		if err != nil {
			p.logger.Debug("Language detection disabled", zap.Error(err))
			return
		}
		p.detector = d
	})

	if p.detector == nil {
		return p.defaultLang
	}
	if lang, ok := p.detector.Detect(word); ok {
		return lang
	}
	return p.defaultLang
}
