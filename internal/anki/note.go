package anki

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"codeberg.org/snonux/ankilex/internal"
	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// Lex fields that can be mapped onto Anki note fields
const (
	FieldWord          = "word"
	FieldContext       = "context"
	FieldDefinition    = "definition"
	FieldPronunciation = "pronunciation"
	FieldAudio         = "audio"
)

// Note is an AnkiConnect note
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Audio     []Media           `json:"audio,omitempty"`
}

// Media is a file AnkiConnect downloads and attaches to note fields
type Media struct {
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// NoteSettings are the user defaults applied to every note
type NoteSettings struct {
	Deck     string
	NoteType string
	FieldMap map[string]string
	Tags     []string
}

// NoteOptions override the defaults for a single note
type NoteOptions struct {
	Deck     string
	NoteType string
	Context  string
}

// SelectDefinitions returns the definition at defIndex, or all of them
// when the index is out of range.
func SelectDefinitions(entry *dictionary.Entry, defIndex int) []dictionary.Definition {
	if defIndex >= 0 && defIndex < len(entry.Definitions) {
		return entry.Definitions[defIndex : defIndex+1]
	}
	return entry.Definitions
}

// BuildNote maps an entry onto Anki fields
func BuildNote(entry *dictionary.Entry, settings NoteSettings, opts NoteOptions, defIndex int) Note {
	note := Note{
		DeckName:  firstNonEmpty(opts.Deck, settings.Deck),
		ModelName: firstNonEmpty(opts.NoteType, settings.NoteType),
		Fields:    make(map[string]string),
		Tags:      append([]string(nil), settings.Tags...),
	}

	// Sorted so media attachments come out in a stable order
	ankiFields := make([]string, 0, len(settings.FieldMap))
	for ankiField := range settings.FieldMap {
		ankiFields = append(ankiFields, ankiField)
	}
	sort.Strings(ankiFields)

	defs := SelectDefinitions(entry, defIndex)

	for _, ankiField := range ankiFields {
		switch settings.FieldMap[ankiField] {
		case FieldWord:
			note.Fields[ankiField] = html.EscapeString(entry.Word)
		case FieldContext:
			note.Fields[ankiField] = html.EscapeString(opts.Context)
		case FieldDefinition:
			note.Fields[ankiField] = FormatDefinitions(defs)
		case FieldPronunciation:
			note.Fields[ankiField] = html.EscapeString(FormatPronunciations(entry.Pronunciations))
		case FieldAudio:
			note.Fields[ankiField] = ""
			if p, ok := firstAudio(entry); ok {
				note.Audio = append(note.Audio, Media{
					URL:      p.AudioURL,
					Filename: AudioFilename(entry.Word, p.Type),
					Fields:   []string{ankiField},
				})
			}
		}
	}

	return note
}

// FormatDefinitions renders definitions as card HTML
func FormatDefinitions(defs []dictionary.Definition) string {
	parts := make([]string, 0, len(defs))
	for _, d := range defs {
		var b strings.Builder
		if d.PartOfSpeech != "" {
			fmt.Fprintf(&b, "<b>(%s)</b> ", html.EscapeString(d.PartOfSpeech))
		}
		b.WriteString(html.EscapeString(d.Text))

		if len(d.Examples) > 0 {
			b.WriteString("<ul>")
			for _, ex := range d.Examples {
				b.WriteString("<li>")
				b.WriteString(html.EscapeString(ex.Text))
				if ex.Translation != "" {
					fmt.Fprintf(&b, ` - <span style="color:#666">%s</span>`, html.EscapeString(ex.Translation))
				}
				b.WriteString("</li>")
			}
			b.WriteString("</ul>")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "<hr>")
}

// FormatPronunciations joins the phonetic texts, e.g. "uk /riːd/ us /rɛd/"
func FormatPronunciations(prons []dictionary.Pronunciation) string {
	parts := make([]string, 0, len(prons))
	for _, p := range prons {
		if p.Text == "" {
			continue
		}
		if p.Type != "" {
			parts = append(parts, p.Type+" "+p.Text)
			continue
		}
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, " ")
}

// AudioFilename names the media file for a word's pronunciation
func AudioFilename(word, kind string) string {
	name := "ankilex_" + internal.SanitizeFilename(word)
	if kind != "" {
		name += "_" + kind
	}
	return name + ".mp3"
}

func firstAudio(entry *dictionary.Entry) (dictionary.Pronunciation, bool) {
	for _, p := range entry.Pronunciations {
		if p.AudioURL != "" {
			return p, true
		}
	}
	return dictionary.Pronunciation{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
