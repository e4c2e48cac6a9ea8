package logger

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"svcboot/pkg/errors"
	"svcboot/pkg/models"
)

// loadExternalConfig reads a logging configuration file. The format follows
// the file extension (yaml, yml, json, toml).
func loadExternalConfig(path string) (*models.LogConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var lc models.LogConfig
	if err := v.Unmarshal(&lc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &lc, nil
}

// buildExternal turns a loaded file into a Config. Every declared sink must
// build; on failure the sinks already opened are closed again.
func (r *Resolver) buildExternal(ctx context.Context, lc *models.LogConfig) (*Config, error) {
	root, err := ParseSeverity(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("root level: %w", err)
	}

	seen := make(map[string]bool, len(lc.Sinks))
	sinks := make([]*Sink, 0, len(lc.Sinks))
	for i, sc := range lc.Sinks {
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("%s-%d", sc.Kind, i)
		}
		if seen[sc.Name] {
			closeSinks(sinks)
			return nil, errors.New(errors.ErrCodeInvalidConfig, fmt.Sprintf("duplicate sink name %q", sc.Name))
		}
		seen[sc.Name] = true

		s, err := r.builder.FromConfig(ctx, sc)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return &Config{Root: root, Sinks: sinks, Source: SourceExternal}, nil
}

func closeSinks(sinks []*Sink) {
	for _, s := range sinks {
		s.Close()
	}
}
