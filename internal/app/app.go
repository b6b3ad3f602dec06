package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/manifest"
	"github.com/specialistvlad/xpigraph/internal/parameters"
	"github.com/specialistvlad/xpigraph/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	params   parameters.Parameters
	registry *registry.Registry
	model    *config.Model
	manifest *manifest.Cache
}

// NewApp is the constructor for the main application. It loads the
// environment, the graph configuration and the kinds, registers the modules
// and validates that every kind can be generated. The task graph is written
// to outW and logs to logW.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if err := parameters.LoadEnvFile(appConfig.EnvFile); err != nil {
		return nil, err
	}
	params := parameters.FromEnvironment(appConfig.Params, os.Getenv)
	if err := parameters.Validate(params); err != nil {
		return nil, err
	}
	logger.Debug("Decision parameters resolved.", "level", params.Level, "fast", params.Fast, "signing_type", params.SigningType)

	// Load all configuration into the format-agnostic model first.
	model, err := loader.Load(ctx, appConfig.ConfigPath, appConfig.KindsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(model); err != nil {
		return nil, err
	}
	parameters.ApplyRepositorySecrets(model.Graph, os.Getenv)
	logger.Debug("Configuration loaded and translated into unified model.", "kinds", len(model.Kinds))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "transforms", reg.Names())

	// A kind naming a missing transform is a mismatch between code and
	// configuration, so it fails before any generation starts.
	if err := reg.ValidateKinds(ctx, model.Kinds); err != nil {
		return nil, err
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		params:   params,
		registry: reg,
		model:    model,
		manifest: manifest.NewCache(appConfig.Root),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Params returns the resolved decision parameters.
func (a *App) Params() parameters.Parameters {
	return a.params
}
