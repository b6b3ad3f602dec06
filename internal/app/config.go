package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/xpigraph/internal/cachekey"
	"github.com/specialistvlad/xpigraph/internal/parameters"
	"github.com/specialistvlad/xpigraph/internal/render"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Root is the checkout the graph is generated for.
	Root string `validate:"required"`
	// ConfigPath defaults to <Root>/taskcluster/config.hcl.
	ConfigPath string
	// KindsDir defaults to <Root>/taskcluster/kinds.
	KindsDir string
	// EnvFile is loaded into the environment before parameters are read.
	EnvFile string

	Params parameters.Parameters

	Format render.Format `validate:"oneof=json yaml"`
	// OutputPath is the file the graph is written to. Empty or "-" writes
	// to the app's output writer.
	OutputPath string

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
}

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		return nil, errors.New("Root is a required configuration field and cannot be empty")
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = filepath.Join(cfg.Root, cachekey.CIConfigDir, "config.hcl")
	}
	if cfg.KindsDir == "" {
		cfg.KindsDir = filepath.Join(cfg.Root, cachekey.CIConfigDir, "kinds")
	}
	if cfg.Format == "" {
		cfg.Format = render.FormatJSON
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Params.Level == "" {
		cfg.Params.Level = "1"
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s' constraint (got %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return &cfg, nil
}
