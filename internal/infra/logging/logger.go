// Package logging provides file-based logging for ghostwriter.
// Records go to the workspace log file (.ghostwriter/logs/ghostwriter.log) through a slog handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// categoryKey is the attribute lifted into the bracketed category column.
const categoryKey = "category"

// Logger owns the log file and hands out slog loggers that write to it.
// Fields are ordered to minimize memory padding.
type Logger struct {
	file  *os.File
	now   func() time.Time
	root  string
	mu    sync.Mutex
	level slog.Level
}

// New creates a Logger for the workspace at root.
// If root is empty, logging is disabled (records are dropped).
func New(root string, level slog.Level) *Logger {
	return &Logger{root: root, level: level, now: time.Now}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog returns a structured logger backed by the log file.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(&handler{sink: l})
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ensureFile opens or returns the log file. Callers hold l.mu.
func (l *Logger) ensureFile() (*os.File, error) {
	if l.file != nil {
		return l.file, nil
	}

	path := domain.LogPath(l.root)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	// G302: Log files are append-only and need read access by repository users
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l.file = f
	return f, nil
}

func (l *Logger) write(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, err := l.ensureFile(); err == nil {
		_, _ = io.WriteString(f, entry)
	}
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [category] message key=value ...
func formatLog(t time.Time, level slog.Level, category, msg string, attrs []slog.Attr) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s] %s",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		category,
		msg,
	)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatValue(v slog.Value) string {
	s := v.Resolve().String()
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// handler is the slog.Handler writing to a Logger.
type handler struct {
	sink     *Logger
	category string
	group    string
	attrs    []slog.Attr
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.sink.root != "" && level >= h.sink.level
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	category := h.category
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == categoryKey && h.group == "" {
			category = a.Value.String()
			return true
		}
		attrs = append(attrs, h.qualify(a))
		return true
	})
	if category == "" {
		category = "app"
	}

	t := r.Time
	if t.IsZero() {
		t = h.sink.now()
	}
	h.sink.write(formatLog(t, r.Level, category, r.Message, attrs))
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if a.Key == categoryKey && h.group == "" {
			next.category = a.Value.String()
			continue
		}
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return &next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

func (h *handler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}
