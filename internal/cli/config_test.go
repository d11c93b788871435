package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		wantDeck  string
	}{
		{
			name: "with config file",
			setupFunc: func(t *testing.T) string {
				cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
				content := `anki:
  deck: English
  fields:
    - Front=word
    - Back=definition
    - Example=context
dictionary:
  providers:
    en: youdao
    bg: openai
`
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
			wantDeck: "English",
		},
		{
			name: "without config file",
			setupFunc: func(t *testing.T) string {
				// Keep the user's real ~/.ankilex.yaml out of the test
				t.Setenv("HOME", t.TempDir())
				return ""
			},
			wantDeck: "Default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper for each test
			viper.Reset()
			defer viper.Reset()

			InitConfig(tt.setupFunc(t))

			if got := viper.GetString("anki.deck"); got != tt.wantDeck {
				t.Errorf("anki.deck = %q, want %q", got, tt.wantDeck)
			}

			// Test environment variable prefix and key replacer
			t.Setenv("ANKILEX_ANKI_NOTE_TYPE", "Cloze")
			if viper.GetString("anki.note_type") != "Cloze" {
				t.Error("Environment variable not properly loaded")
			}
		})
	}
}

func TestGetOpenAIKey(t *testing.T) {
	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{
			name:      "from environment",
			envKey:    "env-test-key",
			configKey: "config-test-key",
			expected:  "env-test-key",
		},
		{
			name:      "from config when no env",
			envKey:    "",
			configKey: "config-test-key",
			expected:  "config-test-key",
		},
		{
			name:      "empty when neither set",
			envKey:    "",
			configKey: "",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper
			viper.Reset()
			defer viper.Reset()

			// Set up environment
			t.Setenv("OPENAI_API_KEY", tt.envKey)

			// Set up config
			if tt.configKey != "" {
				viper.Set("openai.api_key", tt.configKey)
			}

			got := GetOpenAIKey()
			if got != tt.expected {
				t.Errorf("GetOpenAIKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetGeminiKey(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	if got := GetGeminiKey(); got != "google-key" {
		t.Errorf("GetGeminiKey() = %q, want google-key", got)
	}

	t.Setenv("GOOGLE_API_KEY", "")
	viper.Set("gemini.api_key", "config-key")
	if got := GetGeminiKey(); got != "config-key" {
		t.Errorf("GetGeminiKey() = %q, want config-key", got)
	}
}

func TestParseFieldMap(t *testing.T) {
	got, err := ParseFieldMap([]string{"Front=word", " Back = definition "})
	if err != nil {
		t.Fatalf("ParseFieldMap() error = %v", err)
	}
	want := map[string]string{"Front": "word", "Back": "definition"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFieldMap() = %v, want %v", got, want)
	}

	for _, bad := range []string{"Front", "=word", "Front="} {
		if _, err := ParseFieldMap([]string{bad}); err == nil {
			t.Errorf("ParseFieldMap(%q) expected error", bad)
		}
	}
}

func TestProcessorConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	SetDefaults()
	viper.Set("dictionary.providers", map[string]string{"en": "youdao", "bg": "openai"})
	viper.Set("parser.timeout", "3s")
	viper.Set("anki.fields", []string{"Word=word", "Meaning=definition"})

	cfg, err := ProcessorConfig()
	if err != nil {
		t.Fatalf("ProcessorConfig() error = %v", err)
	}

	if cfg.Providers["bg"] != "openai" || cfg.Providers["en"] != "youdao" {
		t.Errorf("unexpected providers %v", cfg.Providers)
	}
	if cfg.ParserTimeout != 3*time.Second {
		t.Errorf("ParserTimeout = %v", cfg.ParserTimeout)
	}
	if cfg.Anki.FieldMap["Meaning"] != "definition" || cfg.Anki.Deck != "Default" {
		t.Errorf("unexpected anki config %+v", cfg.Anki)
	}
	if !reflect.DeepEqual(cfg.Anki.Tags, []string{"ankilex"}) {
		t.Errorf("Tags = %v", cfg.Anki.Tags)
	}
	if cfg.OpenAI.APIKey != "" || cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("unexpected OpenAI config %+v", cfg.OpenAI)
	}
	if cfg.AudioCacheDir == "" {
		t.Error("audio cache dir not set")
	}

	viper.Set("anki.fields", []string{"broken"})
	if _, err := ProcessorConfig(); err == nil {
		t.Error("expected error for malformed field mapping")
	}
}
