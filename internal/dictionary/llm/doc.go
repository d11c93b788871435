// Package llm provides dictionary providers backed by chat models. They
// cover source languages the scraped dictionaries do not, and answer with
// the same entry shape.
package llm
