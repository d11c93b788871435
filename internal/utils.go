package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// GenerateCardID creates a unique ID for a card based on timestamp and headword
// Format: epochMillis_md5(word)[:8]
func GenerateCardID(word string) string {
	hash := md5.Sum([]byte(word))
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), hex.EncodeToString(hash[:])[:8])
}

// SanitizeFilename creates a safe filename from a string. Letters and
// digits of any script are kept, everything else becomes '_'.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
