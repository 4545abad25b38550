// Package logging configures structured logging for the helm simulator.
// It wraps zerolog with run IDs carried on context and the error wrapping
// helper used along CLI paths.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LevelEnv overrides the configured level when set
const LevelEnv = "HELM_LOG_LEVEL"

// Setup builds a logger writing to w. Format "console" produces human-readable
// output; anything else emits JSON. A nil writer logs to stderr.
func Setup(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if env := os.Getenv(LevelEnv); env != "" {
		level = env
	}

	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(level))
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type runIDKey struct{}

// WithRunID tags ctx with a run ID and attaches a logger carrying it.
// An empty id generates a new one.
func WithRunID(ctx context.Context, logger zerolog.Logger, id string) context.Context {
	if id == "" {
		id = NewRunID()
	}
	ctx = context.WithValue(ctx, runIDKey{}, id)
	tagged := logger.With().Str("run_id", id).Logger()
	return tagged.WithContext(ctx)
}

// RunID returns the run ID stored in ctx, or "" when absent
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewRunID creates a random run ID
func NewRunID() string {
	return uuid.NewString()
}

// FromContext returns the logger attached to ctx. A context without one
// yields a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WrapError wraps an error with additional context information.
// This preserves the original error while adding descriptive context.
func WrapError(err error, context string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		context = fmt.Sprintf(context, args...)
	}
	return fmt.Errorf("%s: %w", context, err)
}
