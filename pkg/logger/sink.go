package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"svcboot/pkg/config"
	"svcboot/pkg/errors"
	"svcboot/pkg/models"
	"svcboot/pkg/storage"
)

// SinkKind tags the variant held by a Sink.
type SinkKind int

const (
	KindConsole SinkKind = iota
	KindRotatingText
	KindRotatingJSON
	KindRedisList
)

func (k SinkKind) String() string {
	switch k {
	case KindConsole:
		return models.SinkKindConsole
	case KindRotatingText:
		return models.SinkKindFile
	case KindRotatingJSON:
		return models.SinkKindJSON
	case KindRedisList:
		return models.SinkKindRedis
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Role names a sink the default configuration can synthesize.
type Role string

const (
	RoleStderr Role = "stderr"
	RoleFile   Role = "file"
	RoleJSON   Role = "json"
	RoleRedis  Role = "redis"
)

// Roles is the order the default configuration builds sinks in.
var Roles = []Role{RoleStderr, RoleJSON, RoleFile, RoleRedis}

// JSONLogSuffix is the mandatory suffix of a rotating JSON log path.
const JSONLogSuffix = ".0.jsonlog"

// Sink is an independently thresholded log output.
type Sink struct {
	Kind      SinkKind
	Name      string
	Threshold Severity

	Target      string // console
	Path        string // rotating text and json
	PathPattern string // rotating json, "{}" is the generation index
	MaxBytes    int64
	MaxFiles    int
	RedisKey    string

	handler slog.Handler
	closer  io.Closer
}

// Accepts reports whether a record at severity s reaches this sink.
func (s *Sink) Accepts(sev Severity) bool {
	return s.Threshold.Accepts(sev)
}

// Handler returns the encoder writing to the sink's destination.
func (s *Sink) Handler() slog.Handler {
	return s.handler
}

// Close releases the file or connection behind the sink, if any.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	if rf, ok := s.closer.(*rollingFile); ok {
		untrack(rf)
	}
	return s.closer.Close()
}

// Builder constructs sinks. The zero value writes consoles to the process
// standard streams.
type Builder struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (b *Builder) stdout() io.Writer {
	if b.Stdout != nil {
		return b.Stdout
	}
	return os.Stdout
}

func (b *Builder) stderr() io.Writer {
	if b.Stderr != nil {
		return b.Stderr
	}
	return os.Stderr
}

// Build constructs the sink for role from cfg. A nil sink with a nil error
// means the role is not configured.
func (b *Builder) Build(ctx context.Context, cfg config.Configuration, role Role) (*Sink, error) {
	sc, err := RoleConfig(cfg, role)
	if err != nil || sc == nil {
		return nil, err
	}
	return b.FromConfig(ctx, *sc)
}

// RoleConfig derives the declarative form of the sink for role. A nil result
// with a nil error means the role is not configured.
func RoleConfig(cfg config.Configuration, role Role) (*models.SinkConfig, error) {
	size := int64(cfg.Uint(config.KeyLogFileSize, config.DefaultLogFileSize))

	switch role {
	case RoleStderr:
		if cfg.Flag(config.KeyNoStderr) {
			return nil, nil
		}
		return &models.SinkConfig{
			Name:   string(RoleStderr),
			Kind:   models.SinkKindConsole,
			Level:  levelToken(cfg, config.KeyLogLevelStderr, config.DefaultLogLevelStderr),
			Target: models.TargetStderr,
		}, nil

	case RoleFile:
		path, ok := cfg.Value(config.KeyLogFile)
		if !ok {
			return nil, nil
		}
		return &models.SinkConfig{
			Name:    string(RoleFile),
			Kind:    models.SinkKindFile,
			Level:   levelToken(cfg, config.KeyLogLevelFile, config.DefaultLogLevelFile),
			Path:    path,
			MaxSize: size,
		}, nil

	case RoleJSON:
		path, ok := cfg.Value(config.KeyLogJSON)
		if !ok {
			return nil, nil
		}
		if _, err := jsonPattern(path); err != nil {
			return nil, err
		}
		return &models.SinkConfig{
			Name:     string(RoleJSON),
			Kind:     models.SinkKindJSON,
			Level:    levelToken(cfg, config.KeyLogLevelJSON, config.DefaultLogLevelJSON),
			Path:     path,
			MaxSize:  size,
			MaxFiles: cfg.Int(config.KeyLogJSONCount, config.DefaultLogJSONCount),
		}, nil

	case RoleRedis:
		addr, ok := cfg.Value(config.KeyLogRedis)
		if !ok {
			return nil, nil
		}
		return &models.SinkConfig{
			Name:  string(RoleRedis),
			Kind:  models.SinkKindRedis,
			Level: levelToken(cfg, config.KeyLogLevelRedis, config.DefaultLogLevelRedis),
			Addr:  addr,
			Key:   cfg.String(config.KeyLogRedisKey, config.DefaultLogRedisKey),
		}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown sink role %q", role))
}

// levelToken returns the configured level for key, or def when the value
// does not parse.
func levelToken(cfg config.Configuration, key, def string) string {
	fallback, _ := ParseSeverity(def)
	return parseSeverityOr(cfg.String(key, def), fallback).String()
}

// jsonPattern turns "<stem>.0.jsonlog" into "<stem>.{}.jsonlog".
func jsonPattern(path string) (string, error) {
	if !strings.HasSuffix(path, JSONLogSuffix) {
		return "", errors.New(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("json log path %q must end with %s", path, JSONLogSuffix))
	}
	stem := strings.TrimSuffix(path, JSONLogSuffix)
	return stem + "." + generationPlaceholder + ".jsonlog", nil
}

// FromConfig constructs a sink from its declarative form. Files are opened
// and remote stores contacted before it returns.
func (b *Builder) FromConfig(ctx context.Context, sc models.SinkConfig) (*Sink, error) {
	threshold, err := ParseSeverity(sc.Level)
	if err != nil {
		return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
	}

	maxBytes := sc.MaxSize
	if maxBytes <= 0 {
		maxBytes = config.DefaultLogFileSize
	}
	opts := &slog.HandlerOptions{Level: threshold.Level(), ReplaceAttr: replaceLevel}

	switch sc.Kind {
	case models.SinkKindConsole:
		var w io.Writer
		switch sc.Target {
		case models.TargetStdout:
			w = b.stdout()
		case models.TargetStderr, "":
			sc.Target = models.TargetStderr
			w = b.stderr()
		default:
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("sink %s: unknown console target %q", sc.Name, sc.Target))
		}
		return &Sink{
			Kind:      KindConsole,
			Name:      sc.Name,
			Threshold: threshold,
			Target:    sc.Target,
			handler:   slog.NewTextHandler(w, opts),
		}, nil

	case models.SinkKindFile:
		if sc.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, fmt.Sprintf("sink %s: path is required", sc.Name))
		}
		rf, err := newRollingFile(sc.Path, maxBytes, deleteRoller{})
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		track(rf)
		return &Sink{
			Kind:      KindRotatingText,
			Name:      sc.Name,
			Threshold: threshold,
			Path:      sc.Path,
			MaxBytes:  maxBytes,
			handler:   slog.NewTextHandler(rf, opts),
			closer:    rf,
		}, nil

	case models.SinkKindJSON:
		pattern, err := jsonPattern(sc.Path)
		if err != nil {
			return nil, err
		}
		maxFiles := sc.MaxFiles
		if maxFiles <= 0 {
			maxFiles = config.DefaultLogJSONCount
		}
		fw, err := newFixedWindowRoller(pattern, maxFiles)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		rf, err := newRollingFile(sc.Path, maxBytes, fw)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		track(rf)
		return &Sink{
			Kind:        KindRotatingJSON,
			Name:        sc.Name,
			Threshold:   threshold,
			Path:        sc.Path,
			PathPattern: pattern,
			MaxBytes:    maxBytes,
			MaxFiles:    maxFiles,
			handler:     slog.NewJSONHandler(rf, opts),
			closer:      rf,
		}, nil

	case models.SinkKindRedis:
		rc, err := config.NewRedisConfig(sc.Addr, sc.Key)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		shipper, err := storage.NewRedisLogShipper(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		return &Sink{
			Kind:      KindRedisList,
			Name:      sc.Name,
			Threshold: threshold,
			RedisKey:  shipper.Key(),
			handler:   slog.NewJSONHandler(shipper, opts),
			closer:    shipper,
		}, nil
	}

	return nil, errors.New(errors.ErrCodeInvalidConfig, fmt.Sprintf("sink %s: unknown kind %q", sc.Name, sc.Kind))
}
