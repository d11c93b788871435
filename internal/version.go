package internal

// Version is the ankilex release, overridden at build time with -ldflags
var Version = "0.3.0"
