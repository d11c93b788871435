// Package domparse turns raw HTML into goquery documents for the dictionary
// extractors. Parsing either happens inline or is delegated to a parse
// surface, which is a worker goroutine in the same process or a separate
// process reached over HTTP. The mode is chosen once at startup and is
// invisible to the extractors.
package domparse
