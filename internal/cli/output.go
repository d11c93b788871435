package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// Output formats of the lookup command
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteEntry renders entry to w in the given format
func WriteEntry(w io.Writer, entry *dictionary.Entry, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		writeEntryText(w, entry)
		return nil

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(entry)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entry); err != nil {
			return err
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeEntryText(w io.Writer, entry *dictionary.Entry) {
	fmt.Fprintf(w, "%s  [%s]\n", entry.Word, entry.Provider)

	var prons []string
	for _, p := range entry.Pronunciations {
		if p.Type != "" {
			prons = append(prons, p.Type+" "+p.Text)
		} else {
			prons = append(prons, p.Text)
		}
	}
	if len(prons) > 0 {
		fmt.Fprintln(w, strings.Join(prons, "  "))
	}

	var meta []string
	if freq, ok := entry.Frequency(); ok {
		meta = append(meta, fmt.Sprintf("frequency %d/5", freq))
	}
	if tags := entry.Tags(); len(tags) > 0 {
		meta = append(meta, strings.Join(tags, " "))
	}
	if len(meta) > 0 {
		fmt.Fprintln(w, strings.Join(meta, ", "))
	}

	if len(entry.Definitions) == 0 {
		fmt.Fprintln(w, "No definitions found.")
		return
	}

	for i, def := range entry.Definitions {
		fmt.Fprintln(w)
		if def.PartOfSpeech != "" {
			fmt.Fprintf(w, "%d. %s %s\n", i+1, def.PartOfSpeech, def.Text)
		} else {
			fmt.Fprintf(w, "%d. %s\n", i+1, def.Text)
		}
		for _, ex := range def.Examples {
			if ex.Translation != "" {
				fmt.Fprintf(w, "   - %s (%s)\n", ex.Text, ex.Translation)
			} else {
				fmt.Fprintf(w, "   - %s\n", ex.Text)
			}
		}
	}
}
