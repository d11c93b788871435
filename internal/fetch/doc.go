// Package fetch is the HTTP document acquirer shared by the scraping
// providers and the audio downloader. Requests go through a circuit breaker
// so a failing upstream fails fast; nothing is retried.
package fetch
