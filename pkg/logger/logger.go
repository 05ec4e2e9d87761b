// Package logger provides the application's slog-based logger with a
// human-friendly colored text handler for terminals and a JSON handler for
// structured collection.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Options configures logger construction.
type Options struct {
	// Level is the minimum level to emit.
	Level slog.Level

	// Format selects "text" (colored, default) or "json".
	Format string

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// NoColor disables ANSI colors in text format.
	NoColor bool
}

// NewDefaultLogger creates a colored text logger at the given level writing
// to stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Options{Level: level})
}

// NewLogger creates a logger from options.
func NewLogger(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level}))
	}

	return slog.New(&textHandler{
		w:       w,
		level:   opts.Level,
		noColor: opts.NoColor,
	})
}

// ParseLevel converts a config string into a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// textHandler writes one colored line per record: time, level, message and
// key=value attributes.
type textHandler struct {
	w       io.Writer
	level   slog.Level
	noColor bool
	attrs   []slog.Attr
	groups  []string
	mu      sync.Mutex
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(h.colorize(colorGray, r.Time.Format("2006-01-02 15:04:05")))
	b.WriteByte(' ')
	b.WriteString(h.levelLabel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	writeAttr := func(a slog.Attr) {
		b.WriteByte(' ')
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		b.WriteString(h.colorize(colorGray, key+"="))
		b.WriteString(fmt.Sprintf("%v", a.Value.Any()))
	}

	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *textHandler) clone() *textHandler {
	return &textHandler{
		w:       h.w,
		level:   h.level,
		noColor: h.noColor,
		attrs:   append([]slog.Attr{}, h.attrs...),
		groups:  append([]string{}, h.groups...),
	}
}

func (h *textHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.colorize(colorRed, "ERROR")
	case level >= slog.LevelWarn:
		return h.colorize(colorYellow, "WARN ")
	case level >= slog.LevelInfo:
		return h.colorize(colorGreen, "INFO ")
	default:
		return h.colorize(colorGray, "DEBUG")
	}
}

func (h *textHandler) colorize(color, s string) string {
	if h.noColor {
		return s
	}
	return color + s + colorReset
}
