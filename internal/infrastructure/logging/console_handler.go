package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// ConsoleHandler is a slog.Handler producing one readable line per record.
// Colors are used only when writing to a terminal.
type ConsoleHandler struct {
	w         io.Writer
	level     slog.Leveler
	mu        *sync.Mutex
	component string
	prefix    string // dotted group path for attribute keys
	attrs     string // preformatted attributes from WithAttrs
	color     bool
}

// NewConsoleHandler creates a console handler
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	h := &ConsoleHandler{
		w:     w,
		level: slog.LevelInfo,
		mu:    &sync.Mutex{},
		color: isTerminal(w),
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	h.paint(&b, levelColor(r.Level), "["+levelTag(r.Level)+"]")
	if h.component != "" {
		b.WriteString(" [" + h.component + "]")
	}
	if !r.Time.IsZero() {
		b.WriteString(" ")
		h.paint(&b, ansiGray, "["+r.Time.Format("15:04:05")+"]")
	}
	b.WriteString(" ")
	b.WriteString(r.Message)
	b.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
// A top-level component attribute becomes the bracketed tag instead.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		if a.Key == ComponentKey && h.prefix == "" {
			clone.component = a.Value.String()
			continue
		}
		writeAttr(&b, h.prefix, a)
	}
	clone.attrs = b.String()
	return &clone
}

// WithGroup qualifies later attribute keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *ConsoleHandler) paint(b *strings.Builder, color, s string) {
	if h.color {
		b.WriteString(color)
		b.WriteString(s)
		b.WriteString(ansiReset)
		return
	}
	b.WriteString(s)
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, inner, ga)
		}
		return
	}

	b.WriteString(" ")
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteString("=")
	s := fmt.Sprint(a.Value.Any())
	if strings.ContainsAny(s, " =\"") {
		s = fmt.Sprintf("%q", s)
	}
	b.WriteString(s)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiGray
	}
}

func levelTag(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return level.String()
	}
}
