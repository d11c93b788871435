package audio

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxWordLength bounds lookup input, in runes
const MaxWordLength = 100

// ValidateWord checks that text is usable as a lookup word
func ValidateWord(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return errors.New("word cannot be empty")
	}

	if n := utf8.RuneCountInString(trimmed); n > MaxWordLength {
		return fmt.Errorf("word is too long (%d characters, max %d)", n, MaxWordLength)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return errors.New("word must not contain control characters")
		}
	}

	return nil
}
