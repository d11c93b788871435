// Package audio downloads pronunciation audio for export and keeps a
// content-addressed cache of it. It also validates user supplied words
// before they are looked up.
package audio
