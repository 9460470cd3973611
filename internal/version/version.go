// Package version holds the build version, set with -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/alexcabrera/composer/internal/version.Version=v1.0.0"
var Version = "dev"
