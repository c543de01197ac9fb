// Package logging configures the process-wide structured logger.
//
// Forge logs with log/slog throughout; this package only decides where
// the bytes go and how they're formatted, mirroring the level/format/file
// resolution order this codebase uses (CLI flag > env var > config
// file > default).
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Environment variables consulted when CLI flags are left unset.
const (
	EnvLogLevel  = "FORGE_LOG_LEVEL"
	EnvLogFile   = "FORGE_LOG_FILE"
	EnvLogFormat = "FORGE_LOG_FORMAT" // "simple" (default) or "json"
)

// DefaultLogFormat is used when no format is supplied anywhere.
const DefaultLogFormat = "simple"

// forgePackagePrefix identifies first-party frames so non-debug levels can
// suppress the noisy logs emitted by vendored libraries (mcp-go, otel, etc).
const forgePackagePrefix = "github.com/forgecode/forge"

// ParseLevel converts a string log level to slog.Level. An empty string
// means "info"; anything else unrecognized is an error so a typo in
// FORGE_LOG_LEVEL surfaces at startup instead of silently picking a level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// OpenLogFile opens path for appending, creating it if necessary, and
// returns a cleanup function that closes the file.
func OpenLogFile(path string) (*os.File, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// Init builds and installs the process-wide slog.Logger returned by
// slog.Default(). format is "simple" (colorized text on a TTY, plain text
// otherwise) or "json".
func Init(level slog.Level, output *os.File, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(output, handlerOpts)
	default:
		base := slog.Handler(slog.NewTextHandler(output, handlerOpts))
		if isTerminal(output) {
			base = &colorHandler{inner: base, out: output}
		}
		handler = &filteringHandler{inner: base, minLevel: level}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// filteringHandler drops records originating outside the forge module's own
// packages unless the configured level is Debug or lower, so third-party
// dependencies (mcp-go, otel-go, etc) don't spam normal operation logs.
type filteringHandler struct {
	inner    slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel > slog.LevelDebug && !isForgeCaller(record.PC) {
		return nil
	}
	return h.inner.Handle(ctx, record)
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{inner: h.inner.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{inner: h.inner.WithGroup(name), minLevel: h.minLevel}
}

func isForgeCaller(pc uintptr) bool {
	if pc == 0 {
		return true
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return true
	}
	return strings.HasPrefix(fn.Name(), forgePackagePrefix)
}

// colorHandler colorizes the level token of each record when writing to an
// interactive terminal; all other formatting is delegated to the wrapped
// handler so attribute ordering and grouping stay standard.
type colorHandler struct {
	inner slog.Handler
	out   *os.File
}

func (h *colorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *colorHandler) Handle(ctx context.Context, record slog.Record) error {
	c := levelColor(record.Level)
	fmt.Fprint(h.out, c.Sprint(record.Level.String()), " ")
	return h.inner.Handle(ctx, record)
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorHandler{inner: h.inner.WithAttrs(attrs), out: h.out}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return &colorHandler{inner: h.inner.WithGroup(name), out: h.out}
}

func levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		return color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}
