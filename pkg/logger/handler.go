package logger

import (
	"context"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// newFanoutHandler hands each record at or above root to every sink whose
// own threshold accepts it. With no sinks nothing is enabled.
func newFanoutHandler(root Severity, sinks []*Sink) slog.Handler {
	handlers := make([]slog.Handler, 0, len(sinks))
	for _, s := range sinks {
		handlers = append(handlers, s.Handler())
	}
	return slogmulti.
		Pipe(rootThreshold(root.Level())).
		Handler(slogmulti.Fanout(handlers...))
}

// rootThreshold drops records below level before any sink sees them.
func rootThreshold(level slog.Level) slogmulti.Middleware {
	return func(next slog.Handler) slog.Handler {
		return &thresholdHandler{level: level, next: next}
	}
}

type thresholdHandler struct {
	level slog.Level
	next  slog.Handler
}

func (h *thresholdHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.next.Enabled(ctx, level)
}

func (h *thresholdHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *thresholdHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &thresholdHandler{level: h.level, next: h.next.WithAttrs(attrs)}
}

func (h *thresholdHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &thresholdHandler{level: h.level, next: h.next.WithGroup(name)}
}
