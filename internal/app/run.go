package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/dag"
	"github.com/specialistvlad/xpigraph/internal/render"
	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/transform"
)

// Run generates the task graph and writes it to the configured output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	tasks, err := a.Generate(ctx)
	if err != nil {
		return err
	}

	graph, err := render.Build(tasks, render.SlugID)
	if err != nil {
		return fmt.Errorf("failed to render task graph: %w", err)
	}

	if err := a.write(graph); err != nil {
		return err
	}
	a.logger.Info("Task graph generated.", "tasks", len(tasks), "format", a.config.Format)
	return nil
}

// Generate runs every kind's transforms in kind dependency order and returns
// the verified tasks in dependency order.
func (a *App) Generate(ctx context.Context) ([]*task.Task, error) {
	logger := ctxlog.FromContext(ctx)

	kinds, err := orderKinds(a.model.Kinds)
	if err != nil {
		return nil, fmt.Errorf("failed to order kinds: %w", err)
	}

	byKind := make(map[string][]*task.Task, len(kinds))
	var all []*task.Task
	for _, kind := range kinds {
		tasks, err := a.generateKind(ctx, kind, byKind)
		if err != nil {
			return nil, fmt.Errorf("kind '%s': %w", kind.Name, err)
		}
		logger.Debug("Generated kind.", "kind", kind.Name, "tasks", len(tasks))
		byKind[kind.Name] = tasks
		all = append(all, tasks...)
	}

	return orderTasks(all)
}

func (a *App) generateKind(ctx context.Context, kind *config.Kind, byKind map[string][]*task.Task) ([]*task.Task, error) {
	ctx, logger := ctxlog.With(ctx, "kind", kind.Name)
	logger.Debug("Generating kind.", "transforms", kind.Transforms)

	seq, err := a.registry.Sequence(kind.Transforms)
	if err != nil {
		return nil, err
	}

	cfg := &transform.Config{
		Kind:     kind,
		Root:     a.config.Root,
		Graph:    a.model.Graph,
		Params:   a.params,
		Manifest: a.manifest,
	}

	tasks, err := seq.Run(ctx, cfg, loadJobs(kind, byKind))
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		t.Kind = kind.Name
		if t.Label == "" {
			if t.Name == "" {
				return nil, errors.New("a task has neither a label nor a name")
			}
			t.Label = kind.Name + "-" + t.Name
		}
	}
	return tasks, nil
}

// loadJobs returns fresh copies of a kind's job templates. A kind with a
// primary dependency kind gets one job per task of that kind.
func loadJobs(kind *config.Kind, byKind map[string][]*task.Task) []*task.Task {
	if kind.PrimaryDependencyKind != "" {
		deps := byKind[kind.PrimaryDependencyKind]
		jobs := make([]*task.Task, 0, len(deps))
		for _, dep := range deps {
			job := kind.JobTemplate.Clone()
			job.Kind = kind.Name
			job.PrimaryDependency = dep
			jobs = append(jobs, job)
		}
		return jobs
	}

	jobs := make([]*task.Task, 0, len(kind.Jobs))
	for _, j := range kind.Jobs {
		job := j.Clone()
		job.Kind = kind.Name
		jobs = append(jobs, job)
	}
	return jobs
}

// orderKinds sorts kinds so that each comes after its kind dependencies.
func orderKinds(kinds []*config.Kind) ([]*config.Kind, error) {
	g := dag.New()
	byName := make(map[string]*config.Kind, len(kinds))
	for _, k := range kinds {
		g.AddNode(k.Name)
		byName[k.Name] = k
	}
	for _, k := range kinds {
		for _, dep := range k.KindDependencies {
			if err := g.AddEdge(dep, k.Name); err != nil {
				return nil, err
			}
		}
	}

	names, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	out := make([]*config.Kind, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, nil
}

// orderTasks verifies that labels are unique, that every dependency exists
// and that there are no cycles. It returns the tasks in dependency order.
func orderTasks(tasks []*task.Task) ([]*task.Task, error) {
	g := dag.New()
	byLabel := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		if _, dup := byLabel[t.Label]; dup {
			return nil, fmt.Errorf("duplicate task label '%s'", t.Label)
		}
		byLabel[t.Label] = t
		g.AddNode(t.Label)
	}
	for _, t := range tasks {
		for name, label := range t.Dependencies {
			if !g.HasNode(label) {
				return nil, fmt.Errorf("task '%s': dependency '%s' refers to unknown task '%s'", t.Label, name, label)
			}
			if err := g.AddEdge(label, t.Label); err != nil {
				return nil, fmt.Errorf("task '%s': %w", t.Label, err)
			}
		}
	}

	labels, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("invalid task graph: %w", err)
	}
	out := make([]*task.Task, 0, len(labels))
	for _, label := range labels {
		out = append(out, byLabel[label])
	}
	return out, nil
}

func (a *App) write(graph render.Graph) error {
	path := a.config.OutputPath
	if path == "" || path == "-" {
		return render.Encode(a.outW, graph, a.config.Format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render.Encode(f, graph, a.config.Format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write task graph: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write task graph: %w", err)
	}
	return nil
}
