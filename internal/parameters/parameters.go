// Package parameters holds the decision parameters of one graph generation
// run: the deployment level, fast mode, the signing type and repository
// identity. Values come from CLI flags, the process environment and an
// optional .env file.
package parameters

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/specialistvlad/xpigraph/internal/config"
)

const (
	// SigningTypeEnv selects the signing format of signing tasks.
	SigningTypeEnv = "XPI_SIGNING_TYPE"
	// HeadRepositoryEnv overrides the remote URL of the checkout.
	HeadRepositoryEnv = "XPI_HEAD_REPOSITORY"
	// ProjectEnv names the project the graph is generated for.
	ProjectEnv = "XPI_PROJECT"
)

// Parameters are the decision parameters of a run.
type Parameters struct {
	// Level is the deployment level; keyed-by values are resolved against it.
	Level string `validate:"required,oneof=1 2 3"`
	// Fast disables cache key derivation.
	Fast bool
	// SigningType is the value of XPI_SIGNING_TYPE.
	SigningType string
	// HeadRepository is the remote URL used to scope cache keys. When empty
	// the origin remote of the checkout is used.
	HeadRepository string
	Project        string
}

// Context returns the values keyed-by attributes may be resolved against.
func (p Parameters) Context() map[string]string {
	return map[string]string{
		"level":   p.Level,
		"project": p.Project,
	}
}

// FromEnvironment fills the parameters that were not set explicitly from the
// environment.
func FromEnvironment(p Parameters, getenv func(string) string) Parameters {
	if p.SigningType == "" {
		p.SigningType = getenv(SigningTypeEnv)
	}
	if p.HeadRepository == "" {
		p.HeadRepository = getenv(HeadRepositoryEnv)
	}
	if p.Project == "" {
		p.Project = getenv(ProjectEnv)
	}
	return p
}

// Validate checks the parameters' struct constraints.
func Validate(p Parameters) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' constraint", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid parameters: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// LoadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// SecretEnvVar returns the environment variable naming the ssh secret of the
// repository with the given prefix.
func SecretEnvVar(prefix string) string {
	return strings.ToUpper(prefix) + "_SSH_SECRET_NAME"
}

// ApplyRepositorySecrets sets each repository's SSHSecretName from the
// environment unless the configuration already provides one.
func ApplyRepositorySecrets(g *config.GraphConfig, getenv func(string) string) {
	if g == nil {
		return
	}
	for prefix, repo := range g.Repositories {
		if repo.SSHSecretName != "" {
			continue
		}
		if v := getenv(SecretEnvVar(prefix)); v != "" {
			repo.SSHSecretName = v
		}
	}
}
