package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// DefaultLanguages are the source languages the chat providers advertise
var DefaultLanguages = []string{"bg", "de", "es", "fr", "it", "ru"}

const promptTemplate = `You are a bilingual dictionary. Give the dictionary entry for the word %q.
Answer with a single JSON object and nothing else, using this shape:
{
  "definitions": [
    {"partOfSpeech": "n.", "text": "English definition", "examples": [{"text": "example sentence in the source language", "translation": "English translation"}]}
  ],
  "pronunciations": [{"text": "IPA transcription"}]
}
Use the usual abbreviations for parts of speech (n., v., adj., adv., prep., conj., pron.).
Order definitions from most to least common and give at most five, each with at most two examples.
If the word does not exist, return {"definitions": [], "pronunciations": []}.`

// BuildPrompt returns the lookup prompt for word
func BuildPrompt(word string) string {
	return fmt.Sprintf(promptTemplate, word)
}

// DecodeExtraction parses a model answer into an extraction
func DecodeExtraction(provider, answer string) (dictionary.Extraction, error) {
	answer = stripCodeFence(answer)
	if answer == "" {
		return dictionary.Extraction{}, fmt.Errorf("%s returned an empty answer", provider)
	}

	result := dictionary.EmptyExtraction()
	if err := json.Unmarshal([]byte(answer), &result); err != nil {
		return dictionary.Extraction{}, fmt.Errorf("%s returned malformed JSON: %w", provider, err)
	}

	// Keep only usable senses
	defs := make([]dictionary.Definition, 0, len(result.Definitions))
	for _, d := range result.Definitions {
		d.Text = strings.TrimSpace(d.Text)
		d.PartOfSpeech = strings.TrimSpace(d.PartOfSpeech)
		if d.Text == "" {
			continue
		}
		defs = append(defs, d)
	}
	result.Definitions = defs

	if result.Pronunciations == nil {
		result.Pronunciations = []dictionary.Pronunciation{}
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	return result, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func languagesOrDefault(langs []string) []string {
	if len(langs) == 0 {
		return DefaultLanguages
	}
	return langs
}
