// Package test expands test job templates into one task per sub-project and
// test target.
package test

import (
	"context"
	"strings"
	"sync"

	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/manifest"
	"github.com/specialistvlad/xpigraph/internal/registry"
	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/transform"
	"github.com/specialistvlad/xpigraph/modules/build"
)

// TargetPlaceholder is replaced by the test target in run.command.
const TargetPlaceholder = "{target}"

// Module implements the registry.Module interface for this package. It
// counts the test tasks generated per sub-project.
type Module struct {
	mu     sync.Mutex
	counts map[string]int
}

// Register registers the "test" transform.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("test", m.TasksFromManifest)
}

// Counts returns the number of test tasks generated per sub-project so far.
func (m *Module) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

func (m *Module) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[name]++
}

// TasksFromManifest yields a copy of every template for every sub-project and
// each of its test targets, in sorted target order.
func (m *Module) TasksFromManifest(ctx context.Context, cfg *transform.Config, jobs []*task.Task) ([]*task.Task, error) {
	logger := ctxlog.FromContext(ctx)
	mf, err := cfg.Manifest.Get(ctx)
	if err != nil {
		return nil, err
	}

	prefix := cfg.Graph.ArtifactPrefix()
	var out []*task.Task
	for _, job := range jobs {
		for _, p := range mf.SubProjects() {
			for _, target := range p.SortedTests() {
				out = append(out, testTask(job, p, target, prefix))
				m.count(p.Name)
			}
		}
	}

	for name, n := range m.Counts() {
		logger.Debug("Test tasks per xpi.", "xpi", name, "count", n)
	}
	return out, nil
}

func testTask(job *task.Task, p manifest.SubProject, target, prefix string) *task.Task {
	t := job.Clone()
	t.Name = target + "-" + p.Name
	t.Label = "t-" + target + "-" + p.Name
	t.Extra.XPIName = p.Name

	run := t.EnsureRun()
	if p.IsRoot() {
		run.Cwd = transform.CheckoutPlaceholder
	} else {
		run.Cwd = transform.CheckoutPlaceholder + "/" + p.Directory
		t.Extra.Directory = p.Directory
	}
	run.Command = strings.ReplaceAll(run.Command, TargetPlaceholder, target)

	t.SetEnv(build.EnvArtifactPrefix, prefix)
	return t
}
