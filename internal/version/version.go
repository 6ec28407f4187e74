package version

// AppVersion is overridden at build time via -ldflags.
var AppVersion = "0.3.0-dev"
