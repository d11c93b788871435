package youdao

import (
	"net/url"
	"strings"
)

// url.QueryEscape leaves these for encodeURIComponent compatibility
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s the way browsers encode a URI component.
// Unreserved marks stay literal and spaces become %20.
func EncodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
