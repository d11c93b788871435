// Package processor wires the dictionary providers, the DOM parse adapter,
// the AnkiConnect client and the offline exporters together. Lookups are
// routed to a provider by language, either given or detected, and the
// resulting entries are sent to Anki or written into an import package.
package processor
