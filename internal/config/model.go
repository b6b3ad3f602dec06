package config

import (
	"github.com/specialistvlad/xpigraph/internal/task"
)

const (
	// PublicArtifactPrefix is where build outputs are published by default.
	PublicArtifactPrefix = "public/build"
	// PrivateArtifactPrefix is the access-restricted artifact namespace.
	PrivateArtifactPrefix = "xpi/build"
)

// Model is the unified representation of a task-graph definition.
type Model struct {
	Graph *GraphConfig `validate:"required"`
	// Kinds are in the order their files were loaded.
	Kinds []*Kind `validate:"dive"`
}

// GraphConfig holds the graph-wide settings.
type GraphConfig struct {
	TrustDomain string `validate:"required"`
	// GithubCloneSecret names the secret used to clone private repositories.
	GithubCloneSecret string
	// PrivateArtifacts opts into PrivateArtifactPrefix when a clone secret is
	// configured.
	PrivateArtifacts bool
	// Repositories are keyed by their environment prefix.
	Repositories map[string]*Repository `validate:"dive"`
}

// Repository is one repository the graph may check out.
type Repository struct {
	Prefix        string `validate:"required"`
	Name          string `validate:"required"`
	SSHSecretName string
}

// ArtifactPrefix returns the namespace build and test tasks publish under.
func (g *GraphConfig) ArtifactPrefix() string {
	if g != nil && g.PrivateArtifacts && g.GithubCloneSecret != "" {
		return PrivateArtifactPrefix
	}
	return PublicArtifactPrefix
}

// Kind is a named group of job templates and the transforms applied to them.
type Kind struct {
	Name string `validate:"required"`
	// Path is the file the kind was loaded from.
	Path             string
	Transforms       []string `validate:"required,min=1"`
	KindDependencies []string
	// PrimaryDependencyKind, when set, generates one job per task of that
	// kind from JobTemplate instead of using Jobs.
	PrimaryDependencyKind string
	JobTemplate           *task.Task
	Jobs                  []*task.Task
}
