package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Var looks up an environment variable with surrounding whitespace and
// quotes trimmed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Models returns the repository root override set via OLLAMA_MODELS, or
// empty when unset.
func Models() string {
	return Var("OLLAMA_MODELS")
}

// TmpDir returns the staging area for in-flight exports and imports set via
// OLLAMA_TMPDIR. Empty means the system default temp directory.
func TmpDir() string {
	return Var("OLLAMA_TMPDIR")
}

// Debug reports whether OLLAMA_DEBUG is set to a truthy value.
func Debug() bool {
	v := Var("OLLAMA_DEBUG")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		// any non-boolean value (e.g. OLLAMA_DEBUG=2) enables debug
		return true
	}
	return b
}

// LogLevel returns the slog level implied by the environment.
func LogLevel() slog.Level {
	if Debug() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"OLLAMA_DEBUG":  {"OLLAMA_DEBUG", Debug(), "Show additional debug information (e.g. OLLAMA_DEBUG=1)"},
		"OLLAMA_MODELS": {"OLLAMA_MODELS", Models(), "The path to the model repository (default ~/.ollama)"},
		"OLLAMA_TMPDIR": {"OLLAMA_TMPDIR", TmpDir(), "Location for temporary files"},
	}
}
