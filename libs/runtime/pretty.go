package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandler writes one colored line per record for local development.
type PrettyHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
}

func NewPrettyHandler(w io.Writer, level slog.Leveler) *PrettyHandler {
	return &PrettyHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch {
	case r.Level >= slog.LevelError:
		level = color.RedString(level)
	case r.Level >= slog.LevelWarn:
		level = color.YellowString(level)
	case r.Level >= slog.LevelInfo:
		level = color.BlueString(level)
	default:
		level = color.MagentaString(level)
	}

	fields := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		if err, ok := a.Value.Any().(error); ok {
			fields[key] = err.Error()
			return true
		}
		fields[key] = a.Value.Any()
		return true
	})

	var extra string
	if len(fields) > 0 {
		b, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
		extra = color.WhiteString(string(b))
	}

	line := strings.TrimSpace(fmt.Sprintf("[%s] %s %s %s",
		r.Time.Format("15:04:05.000"), level, color.CyanString(r.Message), extra))

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}
