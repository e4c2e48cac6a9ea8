package logger

import (
	"log/slog"
	"sync"

	"svcboot/pkg/errors"
)

// ErrAlreadyInstalled is returned by every Install after the first.
var ErrAlreadyInstalled = errors.New(errors.ErrCodeAlreadyInstalled, "process logger already installed")

// Installer guards the one-time installation of the process logger.
type Installer struct {
	mu        sync.Mutex
	installed bool
	logger    *slog.Logger
}

var processInstaller = &Installer{}

// Install installs cfg as the process logger using the process-wide guard.
func Install(cfg *Config, diags Diagnostics) (*slog.Logger, error) {
	return processInstaller.Install(cfg, diags)
}

// DefaultInstaller returns the process-wide guard used by Install.
func DefaultInstaller() *Installer {
	return processInstaller
}

// Installed reports whether the process logger has been installed.
func Installed() bool {
	return processInstaller.Installed()
}

// Install makes cfg the slog default and then replays diags through it,
// informational messages at debug and degradations at warn.
func (i *Installer) Install(cfg *Config, diags Diagnostics) (*slog.Logger, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.installed {
		return nil, ErrAlreadyInstalled
	}
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "nil logging config")
	}

	l := slog.New(newFanoutHandler(cfg.Root, cfg.Sinks))
	slog.SetDefault(l)
	i.installed = true
	i.logger = l

	boot := l.With("module", "logger", "source", cfg.Source)
	for _, d := range diags {
		if d.Degraded {
			boot.Warn(d.Message)
		} else {
			boot.Debug(d.Message)
		}
	}
	return l, nil
}

func (i *Installer) Installed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.installed
}

// Logger returns the installed logger, or nil before Install.
func (i *Installer) Logger() *slog.Logger {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.logger
}
