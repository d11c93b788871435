// Package youdao scrapes Collins dictionary entries from the Youdao
// dictionary website. The extractor reads the rich Collins layout first
// and falls back to the plain phrase list when that layout is missing.
package youdao
