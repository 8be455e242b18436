// Package version reports the build version of tweetkit binaries.
//
// Version and BuildTime are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/tweetkit/version.Version=1.2.0" ./cmd/tweetstream
//
// The commit and dirty flag come from the module's VCS build settings.
package version
