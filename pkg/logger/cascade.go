package logger

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"svcboot/pkg/config"
	"svcboot/pkg/models"
)

// Config sources.
const (
	SourceExternal = "external"
	SourceDefault  = "default"
)

// Config is a resolved logging configuration ready to install.
type Config struct {
	Root   Severity
	Sinks  []*Sink
	Source string
}

// Sink returns the sink named name, or nil.
func (c *Config) Sink(name string) *Sink {
	for _, s := range c.Sinks {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Close releases every sink. Only meant for configurations that were never
// installed.
func (c *Config) Close() {
	closeSinks(c.Sinks)
}

// Diagnostic is a message produced while resolving, before any logger exists.
type Diagnostic struct {
	Message  string
	Degraded bool
}

// Diagnostics is kept in the order the messages were produced.
type Diagnostics []Diagnostic

func (d *Diagnostics) info(format string, args ...any) {
	*d = append(*d, Diagnostic{Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) degraded(format string, args ...any) {
	*d = append(*d, Diagnostic{Message: fmt.Sprintf(format, args...), Degraded: true})
}

// Messages returns the diagnostic texts in order.
func (d Diagnostics) Messages() []string {
	out := make([]string, len(d))
	for i, m := range d {
		out[i] = m.Message
	}
	return out
}

// Resolver picks the logging configuration: an external file when one is
// given and loads, otherwise a default synthesized from options.
type Resolver struct {
	builder *Builder
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConsole redirects console sinks, mostly for tests.
func WithConsole(stdout, stderr io.Writer) ResolverOption {
	return func(r *Resolver) {
		r.builder.Stdout = stdout
		r.builder.Stderr = stderr
	}
}

// NewResolver returns a Resolver writing consoles to the process streams
// unless overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{builder: &Builder{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails. Every problem met on the way is reported as a
// diagnostic and the default configuration is used instead.
func (r *Resolver) Resolve(ctx context.Context, cfg config.Configuration) (*Config, Diagnostics) {
	var diags Diagnostics

	if path, ok := cfg.Value(config.KeyLogConfig); ok {
		lc, err := loadExternalConfig(path)
		if err == nil {
			var c *Config
			c, err = r.buildExternal(ctx, lc)
			if err == nil {
				diags.info("loaded external config at %s", path)
				return c, diags
			}
		}
		diags.degraded("failed to load external config at %s: %v", path, err)
	} else {
		diags.info("external log config not provided")
	}

	return r.synthesize(ctx, cfg, &diags), diags
}

func (r *Resolver) synthesize(ctx context.Context, cfg config.Configuration, diags *Diagnostics) *Config {
	token := cfg.String(config.KeyLogLevel, config.DefaultLogLevel)
	root, err := ParseSeverity(token)
	if err != nil {
		diags.degraded("invalid %s %q, using %s", config.KeyLogLevel, token, SeverityDebug)
		root = SeverityDebug
	}

	c := &Config{Root: root, Source: SourceDefault}
	for _, role := range Roles {
		s, err := r.builder.Build(ctx, cfg, role)
		switch {
		case err != nil:
			diags.degraded("failed to build %s sink: %v", role, err)
		case s == nil:
			diags.info("%s sink not configured", role)
		default:
			c.Sinks = append(c.Sinks, s)
		}
	}

	if len(c.Sinks) == 0 {
		diags.degraded("no log sinks configured, records will be discarded")
	}
	return c
}

// Template renders the configuration the default cascade would build from
// cfg as a YAML file usable with --log4rs-config. Roles whose options are
// invalid are left out.
func Template(cfg config.Configuration) ([]byte, error) {
	lc := models.LogConfig{
		Level: levelToken(cfg, config.KeyLogLevel, config.DefaultLogLevel),
	}
	for _, role := range Roles {
		sc, err := RoleConfig(cfg, role)
		if err != nil || sc == nil {
			continue
		}
		lc.Sinks = append(lc.Sinks, *sc)
	}

	out, err := yaml.Marshal(&lc)
	if err != nil {
		return nil, fmt.Errorf("failed to render log config template: %w", err)
	}
	return out, nil
}
