package bootstrap

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"svcboot/internal/server/status"
	sbcli "svcboot/pkg/cli"
	"svcboot/pkg/config"
	"svcboot/pkg/logger"
)

var bootstrap_logger = logger.ForModule("bootstrap")

// App is what a bootstrapped application gets back.
type App struct {
	Config  config.Configuration
	Logging *logger.Config
	Logger  *slog.Logger
	// Status is nil when the status listener could not be started.
	Status *status.Handle
}

// Wait blocks on the status listener. It returns immediately when there is
// none, and otherwise only once the listener is closed.
func (a *App) Wait() error {
	if a.Status == nil {
		return nil
	}
	return a.Status.Wait()
}

// Bootstrapper sequences logging and the status listener.
type Bootstrapper struct {
	installer *logger.Installer
	resolver  *logger.Resolver
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithInstaller replaces the process-wide install guard.
func WithInstaller(i *logger.Installer) Option {
	return func(b *Bootstrapper) {
		b.installer = i
	}
}

// WithResolver replaces the default logging resolver.
func WithResolver(r *logger.Resolver) Option {
	return func(b *Bootstrapper) {
		b.resolver = r
	}
}

// New returns a Bootstrapper using the process-wide install guard unless
// told otherwise.
func New(opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		installer: logger.DefaultInstaller(),
		resolver:  logger.NewResolver(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init resolves and installs logging, then starts the status listener. Only
// a failed install is returned as an error; a listener that cannot bind is
// logged and the App carries a nil Status.
func (b *Bootstrapper) Init(ctx context.Context, cfg config.Configuration) (*App, error) {
	lc, diags := b.resolver.Resolve(ctx, cfg)
	l, err := b.installer.Install(lc, diags)
	if err != nil {
		lc.Close()
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logging: lc,
		Logger:  l,
	}

	bootstrap_logger.Debug("initializing app", "log_source", lc.Source, "sinks", len(lc.Sinks))

	handle, err := status.Start(cfg)
	if err != nil {
		bootstrap_logger.Error("failed to create status listener", "error", err)
		return app, nil
	}
	app.Status = handle
	return app, nil
}

// Init bootstraps with the process-wide guard. Installing logging twice is a
// programming error and panics.
func Init(ctx context.Context, cfg config.Configuration) *App {
	app, err := New().Init(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return app
}

// Command builds the application command: flags are parsed, the process is
// bootstrapped and run is called with the result.
func Command(info sbcli.AppInfo, run func(ctx context.Context, app *App) error, opts ...Option) *cli.Command {
	return sbcli.NewCommand(info, func(ctx context.Context, cmd *cli.Command) error {
		app, err := New(opts...).Init(ctx, sbcli.ConfigurationFrom(cmd))
		if err != nil {
			return err
		}
		if run == nil {
			return app.Wait()
		}
		return run(ctx, app)
	})
}
