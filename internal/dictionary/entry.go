package dictionary

// Pronunciation types reported for the two regional variants.
const (
	PronunciationUK = "uk"
	PronunciationUS = "us"
)

// Metadata keys set by scraping providers.
const (
	MetaFrequency = "frequency"
	MetaTags      = "tags"
)

// Entry is the normalized result of a single lookup
type Entry struct {
	Word           string          `json:"word" yaml:"word"`
	Provider       string          `json:"provider" yaml:"provider"`
	Definitions    []Definition    `json:"definitions" yaml:"definitions"`
	Pronunciations []Pronunciation `json:"pronunciations" yaml:"pronunciations"`
	Metadata       map[string]any  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Definition is one sense of the word. Order within Entry.Definitions is significant.
type Definition struct {
	PartOfSpeech string    `json:"partOfSpeech,omitempty" yaml:"partOfSpeech,omitempty"`
	Text         string    `json:"text" yaml:"text"`
	Examples     []Example `json:"examples" yaml:"examples,omitempty"`
}

// Example is a usage sentence with an optional translation
type Example struct {
	Text        string `json:"text" yaml:"text"`
	Translation string `json:"translation,omitempty" yaml:"translation,omitempty"`
}

// Pronunciation is a phonetic rendering with an optional audio URL
type Pronunciation struct {
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	AudioURL string `json:"audioUrl,omitempty" yaml:"audioUrl,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Extraction is the document-derived part of an entry. It is also the
// payload exchanged with a delegated parse surface.
type Extraction struct {
	Definitions    []Definition    `json:"definitions" yaml:"definitions"`
	Pronunciations []Pronunciation `json:"pronunciations" yaml:"pronunciations"`
	Metadata       map[string]any  `json:"metadata" yaml:"metadata"`
}

// EmptyExtraction returns an extraction with non-nil empty collections
func EmptyExtraction() Extraction {
	return Extraction{
		Definitions:    []Definition{},
		Pronunciations: []Pronunciation{},
		Metadata:       map[string]any{},
	}
}

// NewEntry assembles an entry from an extraction. Word and provider are
// always reported, even when nothing was extracted.
func NewEntry(word, provider string, ex Extraction) *Entry {
	entry := &Entry{
		Word:           word,
		Provider:       provider,
		Definitions:    ex.Definitions,
		Pronunciations: ex.Pronunciations,
		Metadata:       ex.Metadata,
	}
	if entry.Definitions == nil {
		entry.Definitions = []Definition{}
	}
	if entry.Pronunciations == nil {
		entry.Pronunciations = []Pronunciation{}
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	return entry
}

// Frequency returns the frequency metadata as an int.
// JSON round trips turn numbers into float64, so both are accepted.
func (e *Entry) Frequency() (int, bool) {
	switch v := e.Metadata[MetaFrequency].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Tags returns the usage-rank tags, if any
func (e *Entry) Tags() []string {
	switch v := e.Metadata[MetaTags].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

// NormalizeMetadata restores the native types of the well-known metadata
// keys after a JSON round trip: numbers decode as float64 and string
// lists as []any.
func NormalizeMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}

	if f, ok := meta[MetaFrequency].(float64); ok && f == float64(int(f)) {
		meta[MetaFrequency] = int(f)
	}

	if raw, ok := meta[MetaTags].([]any); ok {
		tags := make([]string, 0, len(raw))
		for _, v := range raw {
			s, ok := v.(string)
			if !ok {
				return meta
			}
			tags = append(tags, s)
		}
		meta[MetaTags] = tags
	}

	return meta
}
