package featureflags

import (
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Known flags
const (
	// StrictDelete makes DELETE of a missing project or task answer 404
	// instead of succeeding idempotently.
	StrictDelete = "strict_delete"
)

var known = []string{StrictDelete}

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes/on (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv(envKey(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Snapshot reads every known flag once
func Snapshot() map[string]bool {
	out := make(map[string]bool, len(known))
	for _, name := range known {
		out[name] = Enabled(name)
	}
	return out
}

// LogAttrs renders the snapshot for the startup log line
func LogAttrs(flags map[string]bool) []any {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]any, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, slog.Bool(name, flags[name]))
	}
	return attrs
}

func envKey(name string) string {
	return "FLAG_" + strings.ToUpper(name)
}
