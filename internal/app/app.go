// Package app wires the application together: logger, producer registry, and
// the build run lifecycle.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"specforge/internal/registry"
	"specforge/modules/command"
)

// coreModules are the producers every invocation registers by default.
var coreModules = []registry.Module{
	commandModule{},
}

type commandModule struct{}

func (commandModule) Register(r *registry.Registry) error {
	return command.RegisterHandler(r)
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
}

// NewApp constructs a fully initialized App with its own isolated logger and
// producer registry. Extra modules extend or replace the built-in producers.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		if err := mod.Register(reg); err != nil {
			return nil, fmt.Errorf("registering producer module: %w", err)
		}
	}
	logger.Debug("Producer modules registered.", "producers", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
	}, nil
}

// Registry returns the application's producer registry, primarily for tests.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
