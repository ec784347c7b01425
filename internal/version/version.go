// Package version holds the build version.
package version

// Version is overridable at link time via -ldflags.
var Version = "dev"
