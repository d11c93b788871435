// Package dictionary defines the normalized dictionary entry model, the
// provider capability interfaces and the registry that maps provider ids
// to provider instances.
package dictionary
