package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal"
	"codeberg.org/snonux/ankilex/internal/anki"
	"codeberg.org/snonux/ankilex/internal/archive"
	"codeberg.org/snonux/ankilex/internal/batch"
	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// ExportOptions controls an offline export
type ExportOptions struct {
	Deck      string
	OutputDir string
	CSV       bool
	Language  string // Language for every word; empty uses the default
	Provider  string // Optional provider override
	SkipAudio bool
}

// WordError records a word that could not be exported
type WordError struct {
	Word string
	Err  error
}

// ExportResult summarizes an export
type ExportResult struct {
	Path      string
	Exported  int
	WithAudio int
	Failed    []WordError
	Archived  string // Where a previous package at Path was moved, if any
}

// Export looks up every word and writes an .apkg, or a CSV with opts.CSV.
// Words that fail are reported in the result and skipped.
func (p *Processor) Export(ctx context.Context, words []batch.WordEntry, opts ExportOptions) (*ExportResult, error) {
	if opts.Deck == "" {
		opts.Deck = p.anki.Config().Deck
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := ".apkg"
	if opts.CSV {
		ext = ".csv"
	}
	result := &ExportResult{
		Path: filepath.Join(opts.OutputDir, internal.SanitizeFilename(opts.Deck)+ext),
	}

	gen := anki.NewGenerator(&anki.GeneratorOptions{
		OutputPath:     result.Path,
		IncludeHeaders: true,
	})

	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.logger.Info("Exporting word",
			zap.Int("n", i+1),
			zap.Int("total", len(words)),
			zap.String("word", w.Word),
		)

		entry, err := p.lookupForExport(ctx, w.Word, opts)
		if err != nil {
			p.logger.Warn("Skipping word", zap.String("word", w.Word), zap.Error(err))
			result.Failed = append(result.Failed, WordError{Word: w.Word, Err: err})
			continue
		}

		card := anki.CardFromEntry(entry, -1, w.Context)
		card.Tags = append(append([]string{}, p.anki.Config().Tags...), entry.Tags()...)
		if !opts.SkipAudio {
			card.AudioFile = p.downloadAudio(ctx, entry)
		}
		gen.AddCard(card)
	}

	total, withAudio := gen.Stats()
	if total == 0 {
		return result, errors.New("no words could be exported")
	}
	result.Exported = total
	result.WithAudio = withAudio

	archived, err := archive.ArchiveFile(result.Path)
	if err != nil {
		return nil, err
	}
	if archived != "" {
		result.Archived = archived
		p.logger.Info("Previous export archived", zap.String("path", archived))
	}

	if opts.CSV {
		if err := gen.GenerateCSV(); err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
	} else {
		if err := gen.GenerateAPKG(result.Path, opts.Deck); err != nil {
			return nil, fmt.Errorf("failed to generate APKG: %w", err)
		}
	}

	p.logger.Info("Export complete",
		zap.String("path", result.Path),
		zap.Int("cards", total),
		zap.Int("with_audio", withAudio),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (p *Processor) lookupForExport(ctx context.Context, word string, opts ExportOptions) (*dictionary.Entry, error) {
	if opts.Provider != "" {
		return p.LookupWithProvider(ctx, word, opts.Provider)
	}
	return p.Lookup(ctx, word, opts.Language)
}

// downloadAudio returns the cached audio path of the first pronunciation that has one
func (p *Processor) downloadAudio(ctx context.Context, entry *dictionary.Entry) string {
	if p.audio == nil {
		return ""
	}
	for _, pron := range entry.Pronunciations {
		if pron.AudioURL == "" {
			continue
		}
		path, err := p.audio.Fetch(ctx, pron.AudioURL)
		if err != nil {
			p.logger.Warn("Audio download failed", zap.String("word", entry.Word), zap.Error(err))
			return ""
		}
		return path
	}
	return ""
}
