package youdao

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

const (
	// ProviderID identifies this provider in configuration and the registry
	ProviderID = "youdao"
	// ProviderName is reported in every entry
	ProviderName = "Collins (via Youdao)"

	audioBaseURL = "https://dict.youdao.com/dictvoice"
)

// CSS selectors for the two Youdao layouts
const (
	selCollins      = "#collinsResult"
	selDefinitions  = ".ol li"
	selTranslation  = ".collinsMajorTrans p"
	selPartOfSpeech = ".additional"
	selExampleLists = ".exampleLists"
	selPhraseList   = "#phrsListTab .trans-container"
	selKeyword      = "#phrsListTab .wordbook-js .keyword"
	selPronounce    = ".baav .pronounce, .wordbook-js .pronounce"
	selPhonetic     = ".phonetic"
	selStar         = "h4 .star"
	selRank         = "h4 .rank"
)

var (
	// The heuristic also matches prose that happens to start with "word."
	phrasePattern = regexp.MustCompile(`(?i)^([a-z]+\.)\s*(.*)$`)
	starPattern   = regexp.MustCompile(`star(\d+)`)
)

// Extractor turns a Youdao result page into an extraction. It holds no
// state, so the same value can serve any number of documents.
type Extractor struct{}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ID implements dictionary.DocumentParser
func (e *Extractor) ID() string {
	return ProviderID
}

// ParseDocument implements dictionary.DocumentParser
func (e *Extractor) ParseDocument(doc *goquery.Document) dictionary.Extraction {
	result := dictionary.EmptyExtraction()

	collins := doc.Find(selCollins).First()
	if collins.Length() > 0 {
		result.Definitions = collinsDefinitions(collins)
		result.Metadata = collinsMetadata(collins)
	}

	if len(result.Definitions) == 0 {
		result.Definitions = phraseDefinitions(doc)
	}

	result.Pronunciations = pronunciations(doc)
	return result
}

func collinsDefinitions(collins *goquery.Selection) []dictionary.Definition {
	defs := []dictionary.Definition{}

	collins.Find(selDefinitions).Each(func(_ int, item *goquery.Selection) {
		trans := item.Find(selTranslation).First()
		if trans.Length() == 0 {
			return
		}

		pos := strings.TrimSpace(trans.Find(selPartOfSpeech).First().Text())
		text := strings.TrimSpace(trans.Text())
		if pos != "" && strings.HasPrefix(text, pos) {
			text = strings.TrimSpace(strings.TrimPrefix(text, pos))
		}

		defs = append(defs, dictionary.Definition{
			PartOfSpeech: pos,
			Text:         text,
			Examples:     examples(item),
		})
	})

	return defs
}

func examples(item *goquery.Selection) []dictionary.Example {
	out := []dictionary.Example{}

	item.Find(selExampleLists).Each(func(_ int, list *goquery.Selection) {
		paragraphs := list.Find("p")
		if paragraphs.Length() < 2 {
			return
		}

		text := strings.TrimSpace(paragraphs.Eq(0).Text())
		if text == "" {
			return
		}
		out = append(out, dictionary.Example{
			Text:        text,
			Translation: strings.TrimSpace(paragraphs.Eq(1).Text()),
		})
	})

	return out
}

func phraseDefinitions(doc *goquery.Document) []dictionary.Definition {
	defs := []dictionary.Definition{}

	doc.Find(selPhraseList).First().Find("ul li").Each(func(_ int, item *goquery.Selection) {
		text := strings.TrimSpace(item.Text())
		if m := phrasePattern.FindStringSubmatch(text); m != nil {
			defs = append(defs, dictionary.Definition{
				PartOfSpeech: m[1],
				Text:         strings.TrimSpace(m[2]),
			})
			return
		}
		defs = append(defs, dictionary.Definition{Text: text})
	})

	return defs
}

func pronunciations(doc *goquery.Document) []dictionary.Pronunciation {
	out := []dictionary.Pronunciation{}

	containers := doc.Find(selPronounce)
	if containers.Length() == 0 {
		return out
	}
	keyword := strings.TrimSpace(doc.Find(selKeyword).First().Text())

	regions := []struct {
		kind string
		code int
	}{
		{dictionary.PronunciationUK, 1},
		{dictionary.PronunciationUS, 2},
	}

	for i, region := range regions {
		if i >= containers.Length() {
			break
		}
		phonetic := containers.Eq(i).Find(selPhonetic).First()
		if phonetic.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(phonetic.Text())
		if text == "" {
			continue
		}
		out = append(out, dictionary.Pronunciation{
			Text:     text,
			Type:     region.kind,
			AudioURL: AudioURL(keyword, region.code),
		})
	}

	return out
}

func collinsMetadata(collins *goquery.Selection) map[string]any {
	meta := map[string]any{}

	if class, ok := collins.Find(selStar).First().Attr("class"); ok {
		if m := starPattern.FindStringSubmatch(class); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				meta[dictionary.MetaFrequency] = n
			}
		}
	}

	if tags := strings.Fields(collins.Find(selRank).First().Text()); len(tags) > 0 {
		meta[dictionary.MetaTags] = tags
	}

	return meta
}

// AudioURL builds the dictvoice URL for keyword. Type 1 is British, 2 American.
func AudioURL(keyword string, audioType int) string {
	return fmt.Sprintf("%s?audio=%s&type=%d", audioBaseURL, EncodeURIComponent(keyword), audioType)
}
