// Package signing turns build tasks into signing tasks. It provides two
// transforms that run in sequence on a kind whose jobs are generated from a
// primary dependency: "signing-flags" names the task and resolves its
// level-dependent fields, and "signing" wires the build artifact into the
// signing worker.
package signing

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/registry"
	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/transform"
	"github.com/specialistvlad/xpigraph/modules/build"
)

// Formats maps XPI_SIGNING_TYPE values to signing formats. Other values
// produce no signing tasks.
var Formats = map[string]string{
	"privileged":               "privileged_webextension",
	"system":                   "system_addon",
	"mozillaonline-privileged": "privileged_webextension",
}

const (
	// BuildDependency is the dependency name signing tasks use for their build.
	BuildDependency = "build"

	signedAttribute        = "signed"
	runOnTasksForAttribute = "run_on_tasks_for"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "signing-flags" and "signing" transforms.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("signing-flags", transform.Each(DefineFlags))
	r.RegisterTransform("signing", BuildSigningTasks)
}

// DefineFlags names the task after its primary dependency, inherits the
// dependency's attributes and resolves the level-dependent fields.
func DefineFlags(_ context.Context, cfg *transform.Config, t *task.Task) error {
	dep := t.PrimaryDependency
	if dep == nil {
		return fmt.Errorf("task '%s' has no primary dependency", t.Name)
	}
	t.Name = nameWithoutKind(dep)

	attrs := task.CloneAttributes(dep.Attributes)
	if attrs == nil {
		attrs = make(map[string]any)
	}
	for k, v := range t.Attributes {
		attrs[k] = v
	}
	t.Attributes = attrs
	t.SetAttribute(signedAttribute, true)

	if raw, ok := t.Attributes[runOnTasksForAttribute]; ok && t.RunOnTasksFor == nil {
		branches, ok := task.Strings(raw)
		if !ok {
			return fmt.Errorf("task '%s': attribute %s must be a list of strings", t.Name, runOnTasksForAttribute)
		}
		t.RunOnTasksFor = branches
	}

	keys := cfg.Params.Context()
	workerType, err := t.WorkerType.Resolve(t.Name, keys)
	if err != nil {
		return fmt.Errorf("worker-type: %w", err)
	}
	t.WorkerType = workerType

	signingType, err := t.Worker.SigningType.Resolve(t.Name, keys)
	if err != nil {
		return fmt.Errorf("worker.signing-type: %w", err)
	}
	t.Worker.SigningType = signingType
	return nil
}

// BuildSigningTasks points every task at its build's artifact. When the
// signing type has no known format, every task is dropped.
func BuildSigningTasks(ctx context.Context, cfg *transform.Config, tasks []*task.Task) ([]*task.Task, error) {
	logger := ctxlog.FromContext(ctx)
	format, ok := Formats[cfg.Params.SigningType]
	if !ok {
		for _, t := range tasks {
			logger.Debug("Skipping signing task.", "name", t.Name, "signing_type", cfg.Params.SigningType)
		}
		return nil, nil
	}

	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		dep := t.PrimaryDependency
		if dep == nil {
			return nil, fmt.Errorf("task '%s' has no primary dependency", t.Name)
		}
		t.Dependencies = map[string]string{BuildDependency: dep.Label}

		prefix := artifactPrefix(dep)
		if !strings.HasPrefix(prefix, "public") {
			t.Scopes = append(t.Scopes, fmt.Sprintf("queue:get-artifact:%s/*", prefix))
		}

		xpiName := dep.Extra.XPIName
		t.Worker.UpstreamArtifacts = []task.UpstreamArtifact{{
			TaskReference: "<" + BuildDependency + ">",
			TaskType:      "build",
			Paths:         []string{fmt.Sprintf("%s/%s.xpi", prefix, xpiName)},
			Formats:       []string{format},
		}}
		t.Extra.XPIName = xpiName
		t.PrimaryDependency = nil
		out = append(out, t)
	}
	return out, nil
}

// artifactPrefix returns the prefix the build published its artifacts under.
func artifactPrefix(dep *task.Task) string {
	if p := strings.TrimRight(dep.Worker.Env[build.EnvArtifactPrefix], "/"); p != "" {
		return p
	}
	return config.PublicArtifactPrefix
}

// nameWithoutKind strips the "<kind>-" prefix from the dependency's label.
// Labels that do not carry the prefix, such as the test kind's "t-<target>-<name>",
// are returned whole rather than cut at the kind's length.
func nameWithoutKind(dep *task.Task) string {
	if name, ok := strings.CutPrefix(dep.Label, dep.Kind+"-"); ok && name != "" {
		return name
	}
	return dep.Label
}
