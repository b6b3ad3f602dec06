package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the graph configuration file and every kind definition
	// under kindsDir and translates them into the agnostic model.
	Load(ctx context.Context, configPath, kindsDir string) (*Model, error)
}
