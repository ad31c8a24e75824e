package config

// Version is injected at build time via ldflags.
var Version = "dev"

// Embedded API keys injected at build time via ldflags.
// They serve as defaults and can be overridden by environment
// variables or config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/toplist/toplist/internal/config.EmbeddedTMDBKey=xxx'"
var (
	EmbeddedTMDBKey string
)
