package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"codeberg.org/snonux/ankilex/internal/anki"
	"codeberg.org/snonux/ankilex/internal/dictionary/llm"
	"codeberg.org/snonux/ankilex/internal/dictionary/youdao"
	"codeberg.org/snonux/ankilex/internal/domparse"
	"codeberg.org/snonux/ankilex/internal/fetch"
	"codeberg.org/snonux/ankilex/internal/processor"
)

// SetDefaults registers the default value of every config key
func SetDefaults() {
	home, _ := os.UserHomeDir()
	httpDefaults := fetch.DefaultConfig()

	viper.SetDefault("dictionary.providers", map[string]string{"en": youdao.ProviderID})
	viper.SetDefault("dictionary.language", "en")
	viper.SetDefault("dictionary.youdao_url", youdao.DefaultBaseURL)

	viper.SetDefault("anki.connect_url", anki.DefaultConnectURL)
	viper.SetDefault("anki.deck", "Default")
	viper.SetDefault("anki.note_type", "Basic")
	// A list rather than a map: viper lowercases map keys, Anki field names are case sensitive
	viper.SetDefault("anki.fields", []string{"Front=" + anki.FieldWord, "Back=" + anki.FieldDefinition})
	viper.SetDefault("anki.tags", []string{"ankilex"})

	viper.SetDefault("parser.mode", domparse.ModeAuto)
	viper.SetDefault("parser.surface_url", "")
	viper.SetDefault("parser.timeout", domparse.DefaultTimeout)

	viper.SetDefault("http.timeout", httpDefaults.Timeout)
	viper.SetDefault("http.user_agent", httpDefaults.UserAgent)

	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.file", "")

	viper.SetDefault("openai.model", llm.DefaultOpenAIModel)
	viper.SetDefault("gemini.model", llm.DefaultGeminiModel)

	viper.SetDefault("export.output_dir", filepath.Join(home, ".local", "state", "ankilex", "exports"))
	viper.SetDefault("export.audio_cache", filepath.Join(home, ".cache", "ankilex", "audio"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".ankilex" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ankilex")
	}

	// Environment variables, ANKILEX_ANKI_DECK sets anki.deck
	viper.SetEnvPrefix("ANKILEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.api_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("gemini.api_key")
}

// ParseFieldMap turns "AnkiField=lexfield" entries into a field map
func ParseFieldMap(entries []string) (map[string]string, error) {
	fields := make(map[string]string, len(entries))
	for _, entry := range entries {
		ankiField, lexField, ok := strings.Cut(entry, "=")
		ankiField, lexField = strings.TrimSpace(ankiField), strings.TrimSpace(lexField)
		if !ok || ankiField == "" || lexField == "" {
			return nil, fmt.Errorf("invalid anki field mapping %q, want AnkiField=lexfield", entry)
		}
		fields[ankiField] = lexField
	}
	return fields, nil
}

// ProcessorConfig builds the processor configuration from viper
func ProcessorConfig() (processor.Config, error) {
	cfg := processor.DefaultConfig()

	if providers := viper.GetStringMapString("dictionary.providers"); len(providers) > 0 {
		cfg.Providers = providers
	}
	cfg.DefaultLanguage = viper.GetString("dictionary.language")
	cfg.YoudaoURL = viper.GetString("dictionary.youdao_url")

	cfg.ParserMode = viper.GetString("parser.mode")
	cfg.SurfaceURL = viper.GetString("parser.surface_url")
	cfg.ParserTimeout = viper.GetDuration("parser.timeout")

	cfg.HTTP.Timeout = viper.GetDuration("http.timeout")
	cfg.HTTP.UserAgent = viper.GetString("http.user_agent")

	fields, err := ParseFieldMap(viper.GetStringSlice("anki.fields"))
	if err != nil {
		return cfg, err
	}
	cfg.Anki = anki.ConnectConfig{
		URL:      viper.GetString("anki.connect_url"),
		Deck:     viper.GetString("anki.deck"),
		NoteType: viper.GetString("anki.note_type"),
		FieldMap: fields,
		Tags:     viper.GetStringSlice("anki.tags"),
	}

	cfg.OpenAI = llm.OpenAIConfig{
		APIKey:    GetOpenAIKey(),
		Model:     viper.GetString("openai.model"),
		BaseURL:   viper.GetString("openai.base_url"),
		Languages: viper.GetStringSlice("openai.languages"),
	}
	cfg.Gemini = llm.GeminiConfig{
		APIKey:    GetGeminiKey(),
		Model:     viper.GetString("gemini.model"),
		BaseURL:   viper.GetString("gemini.base_url"),
		Languages: viper.GetStringSlice("gemini.languages"),
	}

	cfg.AudioCacheDir = viper.GetString("export.audio_cache")
	return cfg, nil
}
