package anki

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// Card is one exported note in an offline deck
type Card struct {
	Word          string // Headword, plain text
	Definition    string // Rendered definition HTML
	Pronunciation string
	Context       string
	AudioFile     string // Local path to the pronunciation audio, optional
	Tags          []string
}

// CardFromEntry builds a card the same way BuildNote fills its fields
func CardFromEntry(entry *dictionary.Entry, defIndex int, context string) Card {
	return Card{
		Word:          entry.Word,
		Definition:    FormatDefinitions(SelectDefinitions(entry, defIndex)),
		Pronunciation: FormatPronunciations(entry.Pronunciations),
		Context:       context,
	}
}

// GeneratorOptions configures the export
type GeneratorOptions struct {
	OutputPath     string // Output CSV file path
	IncludeHeaders bool   // Include CSV headers
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "ankilex_import.csv",
		IncludeHeaders: true,
	}
}

// Generator collects cards and writes them as CSV or .apkg
type Generator struct {
	options *GeneratorOptions
	cards   []Card
}

// NewGenerator creates a new generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
	}
}

// AddCard adds a card to the collection
func (g *Generator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// Cards returns the collected cards
func (g *Generator) Cards() []Card {
	return g.cards
}

// GenerateCSV writes the cards as a CSV file for Anki's text importer
func (g *Generator) GenerateCSV() error {
	if dir := filepath.Dir(g.options.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if g.options.IncludeHeaders {
		headers := []string{"Word", "Definition", "Pronunciation", "Context", "Audio", "Tags"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range g.cards {
		record := []string{
			card.Word,
			card.Definition,
			card.Pronunciation,
			card.Context,
			formatAudioField(card.AudioFile),
			strings.Join(card.Tags, " "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// formatAudioField references the audio file the way Anki expects: [sound:file.mp3]
func formatAudioField(audioFile string) string {
	if audioFile == "" {
		return ""
	}
	return fmt.Sprintf("[sound:%s]", filepath.Base(audioFile))
}

// GenerateAPKG writes the cards as an .apkg package
func (g *Generator) GenerateAPKG(outputPath, deckName string) error {
	apkgGen := NewAPKGGenerator(deckName)
	for _, card := range g.cards {
		apkgGen.AddCard(card)
	}
	return apkgGen.GenerateAPKG(outputPath)
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withAudio int) {
	totalCards = len(g.cards)
	for _, card := range g.cards {
		if card.AudioFile != "" {
			withAudio++
		}
	}
	return
}
