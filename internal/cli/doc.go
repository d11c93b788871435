// Package cli provides command-line interface setup and configuration
// for the ankilex application. It handles flag parsing, command
// creation, logging setup and configuration management using cobra,
// viper and zap.
package cli
