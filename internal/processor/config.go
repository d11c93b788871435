package processor

import (
	"time"

	"codeberg.org/snonux/ankilex/internal/anki"
	"codeberg.org/snonux/ankilex/internal/dictionary/llm"
	"codeberg.org/snonux/ankilex/internal/dictionary/youdao"
	"codeberg.org/snonux/ankilex/internal/domparse"
	"codeberg.org/snonux/ankilex/internal/fetch"
)

// LanguageAuto asks the processor to detect the language of the word
const LanguageAuto = "auto"

// Config holds everything the processor needs to build its components
type Config struct {
	// Providers maps an ISO 639-1 language code to a provider id
	Providers       map[string]string
	DefaultLanguage string

	ParserMode    string
	SurfaceURL    string
	ParserTimeout time.Duration

	HTTP      fetch.Config
	YoudaoURL string

	Anki   anki.ConnectConfig
	OpenAI llm.OpenAIConfig
	Gemini llm.GeminiConfig

	// AudioCacheDir enables audio download for exports when set
	AudioCacheDir string
}

// DefaultConfig returns a config that looks English words up on Youdao
func DefaultConfig() Config {
	return Config{
		Providers:       map[string]string{"en": youdao.ProviderID},
		DefaultLanguage: "en",
		ParserMode:      domparse.ModeAuto,
		ParserTimeout:   domparse.DefaultTimeout,
		HTTP:            fetch.DefaultConfig(),
		YoudaoURL:       youdao.DefaultBaseURL,
		Anki:            anki.DefaultConnectConfig(),
	}
}
