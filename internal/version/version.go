// Package version provides version information for the binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the current version of the application.
// This is set at build time using -ldflags.
var Version = "dev"

// BuildTime is when the binary was built.
// This is set at build time using -ldflags.
var BuildTime = "unknown"

// Commit returns the VCS revision stamped by the Go toolchain, shortened to
// 12 characters, or "" when the binary was built outside a checkout.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

// String returns the formatted version information.
func String() string {
	if c := Commit(); c != "" {
		return fmt.Sprintf("ideaforge version %s (%s, built %s)", Version, c, BuildTime)
	}
	return fmt.Sprintf("ideaforge version %s (built %s)", Version, BuildTime)
}
