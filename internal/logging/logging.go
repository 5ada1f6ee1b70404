// Package logging provides zerolog-backed structured logging for trialstat.
// Loggers travel on the context; packages retrieve them with FromContext and
// tag their entries with a component name via ComponentLogger.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Output destinations accepted by Config.Output.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"
)

// Log formats accepted by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error.
	Level string
	// Format selects console (human-readable) or json output.
	Format string
	// Output selects the destination: stderr, stdout, or file.
	Output string
	// File is the log file path when Output is "file".
	File string
	// Caller annotates entries with file:line of the call site.
	Caller bool
}

// parseLevel converts a level string to a zerolog level, defaulting to info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// build constructs a logger writing to w with the configured level and format.
func build(cfg Config, w io.Writer) zerolog.Logger {
	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lctx := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		lctx = lctx.Caller()
	}
	return lctx.Logger()
}

// NewLogger builds a logger for stderr or stdout output. File output is the
// job of NewLoggerWithPath; a Config asking for a file falls back to stderr.
func NewLogger(cfg Config) zerolog.Logger {
	switch cfg.Output {
	case OutputStdout:
		return build(cfg, os.Stdout)
	default:
		return build(cfg, os.Stderr)
	}
}

// LogPathResult describes the logger produced by NewLoggerWithPath and owns
// the log file handle when one was opened.
type LogPathResult struct {
	Logger zerolog.Logger
	// UsingFile reports whether entries are going to FilePath.
	UsingFile bool
	// FilePath is the resolved log file path when UsingFile is true.
	FilePath string
	// FallbackUsed reports that file output was requested but unavailable.
	FallbackUsed bool
	// FallbackReason explains the fallback when FallbackUsed is true.
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any. Safe to call on a
// console-only result.
func (r *LogPathResult) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLoggerWithPath builds a logger honoring Config.Output. When file output
// is requested but the file cannot be opened, it falls back to stderr and
// records the reason instead of failing the command.
func NewLoggerWithPath(cfg Config) LogPathResult {
	if cfg.Output != OutputFile || cfg.File == "" {
		return LogPathResult{Logger: NewLogger(cfg)}
	}

	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return LogPathResult{
			Logger:         NewLogger(Config{Level: cfg.Level, Format: FormatConsole, Caller: cfg.Caller}),
			FallbackUsed:   true,
			FallbackReason: err.Error(),
		}
	}

	// File logs are always JSON; console formatting is for terminals.
	fileCfg := cfg
	fileCfg.Format = FormatJSON
	return LogPathResult{
		Logger:    build(fileCfg, f),
		UsingFile: true,
		FilePath:  cfg.File,
		file:      f,
	}
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithContext returns a copy of ctx carrying the logger.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger stored in ctx. When ctx carries no logger a
// disabled logger is returned, so callers may log unconditionally.
func FromContext(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}

// runIDKey is the context key for the per-invocation run ID.
type runIDKey struct{}

// NewRunID returns a fresh ULID identifying one CLI invocation.
func NewRunID() string {
	return ulid.Make().String()
}

// ContextWithRunID returns a copy of ctx carrying the run ID.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored in ctx, or "" if absent.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetOrGenerateRunID returns the run ID from ctx, generating one if missing.
func GetOrGenerateRunID(ctx context.Context) string {
	if id := RunIDFromContext(ctx); id != "" {
		return id
	}
	return NewRunID()
}

// PrintLogPathMessage tells the user where log output is being written.
func PrintLogPathMessage(w io.Writer, path string) {
	fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user that file logging was unavailable.
func PrintFallbackWarning(w io.Writer, reason string) {
	fmt.Fprintf(w, "Warning: could not open log file (%s), logging to stderr\n", reason)
}
