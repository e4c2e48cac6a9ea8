package logger

import (
	"context"
	"log/slog"
	"sync"
)

var (
	rollingFiles []*rollingFile
	mutex        sync.Mutex
)

func track(rf *rollingFile) {
	mutex.Lock()
	defer mutex.Unlock()
	rollingFiles = append(rollingFiles, rf)
}

func untrack(rf *rollingFile) {
	mutex.Lock()
	defer mutex.Unlock()
	for i, f := range rollingFiles {
		if f == rf {
			rollingFiles = append(rollingFiles[:i], rollingFiles[i+1:]...)
			return
		}
	}
}

// ForModule returns a logger tagged with module=moduleName. It writes through
// whatever the slog default is at the time of each call, so package level
// module loggers keep working once Install replaces the default.
func ForModule(moduleName string) *slog.Logger {
	return slog.New(&moduleHandler{}).With("module", moduleName)
}

type moduleHandler struct {
	ops []func(slog.Handler) slog.Handler
}

func (m *moduleHandler) current() slog.Handler {
	h := slog.Default().Handler()
	for _, op := range m.ops {
		h = op(h)
	}
	return h
}

func (m *moduleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slog.Default().Handler().Enabled(ctx, level)
}

func (m *moduleHandler) Handle(ctx context.Context, r slog.Record) error {
	return m.current().Handle(ctx, r)
}

func (m *moduleHandler) with(op func(slog.Handler) slog.Handler) *moduleHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(m.ops), len(m.ops)+1)
	copy(ops, m.ops)
	return &moduleHandler{ops: append(ops, op)}
}

func (m *moduleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *moduleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// Sync flushes all log data to disk
func Sync() error {
	mutex.Lock()
	defer mutex.Unlock()

	for _, rf := range rollingFiles {
		if err := rf.Sync(); err != nil {
			return err
		}
	}
	return nil
}
