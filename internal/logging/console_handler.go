package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiDim    = "\033[2m"
)

// consoleHandler writes one human-readable line per record:
//
//	15:04:05 WARN migrate[IMG_0001]: pair skipped error=boom
//
// The component and base attributes are lifted into the prefix instead of
// being printed as key=value pairs.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	source bool
	color  bool

	component string
	base      string
	group     string // dotted prefix for keys added after WithGroup
	attrs     []byte // preformatted " key=value" pairs from WithAttrs
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source, color bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, source: source, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	component, base := h.component, h.base
	var tail []byte
	r.Attrs(func(a slog.Attr) bool {
		if h.group == "" {
			switch a.Key {
			case FieldComponent:
				component = a.Value.Resolve().String()
				return true
			case FieldBase:
				base = a.Value.Resolve().String()
				return true
			}
		}
		tail = appendAttr(tail, h.group, a)
		return true
	})

	buf := make([]byte, 0, 128+len(h.attrs)+len(tail))
	if !r.Time.IsZero() {
		buf = h.paint(buf, ansiDim, r.Time.Format(time24))
		buf = append(buf, ' ')
	}
	buf = h.paint(buf, levelColor(r.Level), r.Level.String())
	buf = append(buf, ' ')
	switch {
	case component != "" && base != "":
		buf = append(buf, component...)
		buf = append(buf, '[')
		buf = append(buf, base...)
		buf = append(buf, "]: "...)
	case component != "":
		buf = append(buf, component...)
		buf = append(buf, ": "...)
	case base != "":
		buf = append(buf, base...)
		buf = append(buf, ": "...)
	}
	buf = append(buf, r.Message...)
	if h.source {
		if src := r.Source(); src != nil && src.File != "" {
			buf = append(buf, " ["...)
			buf = append(buf, filepath.Base(src.File)...)
			buf = append(buf, ':')
			buf = strconv.AppendInt(buf, int64(src.Line), 10)
			buf = append(buf, ']')
		}
	}
	buf = append(buf, h.attrs...)
	buf = append(buf, tail...)
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		if h.group == "" && a.Key == FieldComponent {
			clone.component = a.Value.Resolve().String()
			continue
		}
		if h.group == "" && a.Key == FieldBase {
			clone.base = a.Value.Resolve().String()
			continue
		}
		clone.attrs = appendAttr(clone.attrs, h.group, a)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *consoleHandler) paint(dst []byte, color, text string) []byte {
	if !h.color || color == "" {
		return append(dst, text...)
	}
	dst = append(dst, color...)
	dst = append(dst, text...)
	return append(dst, ansiReset...)
}

// appendAttr writes " key=value", flattening groups into dotted keys.
func appendAttr(dst []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, prefix, ga)
		}
		return dst
	}
	dst = append(dst, ' ')
	dst = append(dst, prefix...)
	dst = append(dst, a.Key...)
	dst = append(dst, '=')
	return appendValue(dst, a.Value)
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
		return ""
	}
}
