package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// ReadFixture reads testdata/<name> relative to the calling package
func ReadFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}

// SampleEntry returns a fully populated entry for "read"
func SampleEntry() *dictionary.Entry {
	return &dictionary.Entry{
		Word:     "read",
		Provider: "Collins (via Youdao)",
		Definitions: []dictionary.Definition{
			{
				PartOfSpeech: "v.",
				Text:         "to look at and comprehend written words",
				Examples: []dictionary.Example{
					{Text: "I read the letter twice.", Translation: "这封信我读了两遍。"},
				},
			},
			{
				PartOfSpeech: "n.",
				Text:         "a period of reading",
				Examples:     []dictionary.Example{},
			},
		},
		Pronunciations: []dictionary.Pronunciation{
			{Text: "/riːd/", Type: "uk", AudioURL: "https://dict.youdao.com/dictvoice?audio=read&type=1"},
			{Text: "/rɛd/", Type: "us", AudioURL: "https://dict.youdao.com/dictvoice?audio=read&type=2"},
		},
		Metadata: map[string]any{
			dictionary.MetaFrequency: 5,
			dictionary.MetaTags:      []string{"CET4"},
		},
	}
}
