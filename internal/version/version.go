package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/finch-mcp/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/finch-mcp/internal/version.Commit=abc123
//	  -X github.com/soyeahso/finch-mcp/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("finch-mcp %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// ServerVersion is the version reported in the MCP initialize handshake.
func ServerVersion() string {
	if Version == "dev" {
		return "0.0.0-dev"
	}
	return Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
