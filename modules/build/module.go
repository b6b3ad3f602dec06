// Package build expands build job templates into one build task per
// sub-project of the manifest.
package build

import (
	"context"

	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/manifest"
	"github.com/specialistvlad/xpigraph/internal/registry"
	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/transform"
)

const (
	// ArtifactsPath is where the worker collects build outputs.
	ArtifactsPath = "/builds/worker/artifacts"

	EnvXPIName        = "XPI_NAME"
	EnvInstallType    = "XPI_INSTALL_TYPE"
	EnvArtifactPrefix = "ARTIFACT_PREFIX"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "build" transform.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("build", TasksFromManifest)
}

// TasksFromManifest yields a copy of every template for every sub-project.
func TasksFromManifest(ctx context.Context, cfg *transform.Config, jobs []*task.Task) ([]*task.Task, error) {
	logger := ctxlog.FromContext(ctx)
	m, err := cfg.Manifest.Get(ctx)
	if err != nil {
		return nil, err
	}

	prefix := cfg.Graph.ArtifactPrefix()
	if cfg.Graph != nil && cfg.Graph.GithubCloneSecret != "" && !cfg.Graph.PrivateArtifacts {
		logger.Warn("A clone secret is configured but artifacts stay public; set private_artifacts to publish under the private prefix.", "prefix", prefix)
	}

	var out []*task.Task
	for _, job := range jobs {
		for _, p := range m.SubProjects() {
			out = append(out, buildTask(job, p, prefix))
		}
	}
	logger.Debug("Expanded build tasks.", "templates", len(jobs), "xpis", m.Len(), "tasks", len(out))
	return out, nil
}

func buildTask(job *task.Task, p manifest.SubProject, prefix string) *task.Task {
	t := job.Clone()
	t.Name = p.Name
	t.Label = "build-" + p.Name
	run := t.EnsureRun()
	if !p.IsRoot() {
		run.Cwd = transform.CheckoutPlaceholder + "/" + p.Directory
		t.Extra.Directory = p.Directory
	}
	t.Extra.XPIName = p.Name

	t.SetEnv(EnvXPIName, p.Name)
	t.SetEnv(EnvArtifactPrefix, prefix)
	if p.InstallType != "" {
		t.SetEnv(EnvInstallType, string(p.InstallType))
	}
	t.Worker.Artifacts = append(t.Worker.Artifacts, task.Artifact{
		Type: "directory",
		Name: prefix,
		Path: ArtifactsPath,
	})
	return t
}
