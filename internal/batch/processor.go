package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// WordEntry is a word to look up with the sentence it was seen in
type WordEntry struct {
	Word    string
	Context string
}

// ReadBatchFile reads words from a file and returns WordEntry slice
// Supports formats:
// - Word only: "read"
// - With context: "read = I like to read before bed"
// Blank lines and lines starting with '#' are ignored.
func ReadBatchFile(filename string) ([]WordEntry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer file.Close()

	entries, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return entries, nil
}

// Parse reads batch entries from r
func Parse(r io.Reader) ([]WordEntry, error) {
	var entries []WordEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, context, _ := strings.Cut(line, "=")
		word = strings.TrimSpace(word)
		if word == "" {
			// "= context" has nothing to look up
			continue
		}

		entries = append(entries, WordEntry{
			Word:    word,
			Context: strings.TrimSpace(context),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
