package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// DiscardHandler returns a handler that drops every record. It is the
// default until InitLogger or SetDefault is called.
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

type discardHandler struct{}

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler          { return h }
func (h *discardHandler) WithGroup(_ string) slog.Handler               { return h }

// terminalHandler prints human-readable lines of the form
//
//	LEVEL[15:04:05.000] message key=value ...
type terminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      slog.Level
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandlerWithLevel returns a handler for terminal output that only
// emits records at lvl or above.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return &terminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		switch {
		case r.Level >= LevelCrit:
			lvl = "\033[35m" + lvl + "\033[0m"
		case r.Level >= slog.LevelError:
			lvl = "\033[31m" + lvl + "\033[0m"
		case r.Level >= slog.LevelWarn:
			lvl = "\033[33m" + lvl + "\033[0m"
		case r.Level >= slog.LevelInfo:
			lvl = "\033[32m" + lvl + "\033[0m"
		default:
			lvl = "\033[36m" + lvl + "\033[0m"
		}
	}

	fmt.Fprintf(h.wr, "%s[%s] %s", lvl, r.Time.Format("15:04:05.000"), r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(h.wr, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.wr, " %s=%v", a.Key, a.Value)
		return true
	})
	fmt.Fprintln(h.wr)
	return nil
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &terminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler {
	return h
}
