package logger

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"svcboot/pkg/errors"
)

// Severity is the ordered set of record levels a sink can be thresholded at.
type Severity int

const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarn
	SeverityError
)

// LevelTrace sits one step below slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// ErrUnsupportedLevel is matched by every error ParseSeverity returns.
var ErrUnsupportedLevel = stderrors.New("unsupported level")

var severityNames = map[Severity]string{
	SeverityTrace: "trace",
	SeverityDebug: "debug",
	SeverityInfo:  "info",
	SeverityWarn:  "warn",
	SeverityError: "error",
}

// ParseSeverity accepts exactly the case-sensitive tokens
// trace, debug, info, warn and error.
func ParseSeverity(token string) (Severity, error) {
	switch token {
	case "trace":
		return SeverityTrace, nil
	case "debug":
		return SeverityDebug, nil
	case "info":
		return SeverityInfo, nil
	case "warn":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	}
	return 0, errors.Wrap(errors.ErrCodeUnsupportedLevel,
		fmt.Sprintf("unsupported level filter: %q", token), ErrUnsupportedLevel)
}

// parseSeverityOr returns def when token does not parse.
func parseSeverityOr(token string, def Severity) Severity {
	s, err := ParseSeverity(token)
	if err != nil {
		return def
	}
	return s
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Level maps s onto the slog level scale.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityTrace:
		return LevelTrace
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Accepts reports whether a record at severity record passes a sink
// thresholded at s.
func (s Severity) Accepts(record Severity) bool {
	return record >= s
}

// replaceLevel labels LevelTrace records as TRACE instead of DEBUG-4.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// Trace logs at LevelTrace through the default logger.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}
