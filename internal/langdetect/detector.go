// Package langdetect guesses the language of a looked up word so the
// processor can route it to a provider that covers that language.
package langdetect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages are the codes detected when none are configured
var DefaultLanguages = []string{"en", "de", "fr", "es", "it", "ru", "bg"}

var supported = map[string]lingua.Language{
	"bg": lingua.Bulgarian,
	"de": lingua.German,
	"en": lingua.English,
	"es": lingua.Spanish,
	"fr": lingua.French,
	"it": lingua.Italian,
	"ja": lingua.Japanese,
	"nl": lingua.Dutch,
	"pl": lingua.Polish,
	"pt": lingua.Portuguese,
	"ru": lingua.Russian,
	"uk": lingua.Ukrainian,
	"zh": lingua.Chinese,
}

// Detector maps text to an ISO 639-1 code
type Detector struct {
	detector lingua.LanguageDetector
	codes    map[lingua.Language]string
}

// NewDetector builds a detector restricted to the given ISO 639-1 codes
func NewDetector(codes ...string) (*Detector, error) {
	if len(codes) == 0 {
		codes = DefaultLanguages
	}

	byLang := make(map[lingua.Language]string, len(codes))
	var languages []lingua.Language
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		lang, ok := supported[code]
		if !ok {
			return nil, fmt.Errorf("unsupported detection language: %s", code)
		}
		if _, dup := byLang[lang]; dup {
			continue
		}
		byLang[lang] = code
		languages = append(languages, lang)
	}

	if len(languages) < 2 {
		return nil, fmt.Errorf("language detection needs at least two languages, got %d", len(languages))
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()

	return &Detector{detector: detector, codes: byLang}, nil
}

// Detect returns the language code of text, or false when unsure
func (d *Detector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	code, ok := d.codes[lang]
	return code, ok
}

// Languages returns the configured codes, sorted
func (d *Detector) Languages() []string {
	codes := make([]string, 0, len(d.codes))
	for _, code := range d.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Supported reports whether code can be passed to NewDetector
func Supported(code string) bool {
	_, ok := supported[strings.ToLower(code)]
	return ok
}
