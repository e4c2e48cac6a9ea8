package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textSink(buf *bytes.Buffer, threshold Severity) *Sink {
	return &Sink{
		Kind:      KindConsole,
		Threshold: threshold,
		handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: threshold.Level()}),
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink unavailable")
}

func TestFanoutPerSinkThresholds(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	l := slog.New(newFanoutHandler(SeverityDebug, []*Sink{
		textSink(&debugBuf, SeverityDebug),
		textSink(&warnBuf, SeverityWarn),
	}))

	l.Info("routine", "module", "status")
	l.Error("broken")

	assert.Contains(t, debugBuf.String(), "routine")
	assert.Contains(t, debugBuf.String(), "broken")
	assert.NotContains(t, warnBuf.String(), "routine")
	assert.Contains(t, warnBuf.String(), "broken")
}

func TestFanoutRootThreshold(t *testing.T) {
	var buf bytes.Buffer
	h := newFanoutHandler(SeverityWarn, []*Sink{textSink(&buf, SeverityTrace)})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))

	// records below root are dropped even when handed over directly
	require.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "quiet", 0)))
	assert.Empty(t, buf.String())
}

func TestFanoutKeepsAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	l := slog.New(newFanoutHandler(SeverityInfo, []*Sink{
		textSink(&a, SeverityInfo),
		textSink(&b, SeverityInfo),
	})).With("module", "bootstrap").WithGroup("req")

	l.Info("accepted", "id", 7)
	for _, buf := range []*bytes.Buffer{&a, &b} {
		assert.Contains(t, buf.String(), "module=bootstrap")
		assert.Contains(t, buf.String(), "req.id=7")
	}
}

func TestFanoutReportsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := textSink(&buf, SeverityInfo)
	broken := &Sink{Threshold: SeverityInfo, handler: failingHandler{ok.handler}}

	h := newFanoutHandler(SeverityInfo, []*Sink{broken, ok})
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "still written", 0))
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "still written")
}

func TestFanoutWithoutSinks(t *testing.T) {
	h := newFanoutHandler(SeverityTrace, nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
}
