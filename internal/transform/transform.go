// Package transform defines the pipeline that turns a kind's job templates
// into concrete tasks. Each transform takes the full task list of a kind and
// returns the next one, so transforms can fan tasks out, rewrite them or drop
// them.
package transform

import (
	"context"
	"fmt"

	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/manifest"
	"github.com/specialistvlad/xpigraph/internal/parameters"
	"github.com/specialistvlad/xpigraph/internal/task"
)

// CheckoutPlaceholder is expanded by the worker to the checkout directory.
const CheckoutPlaceholder = "{checkout}"

// Config is the per-kind state handed to every transform.
type Config struct {
	Kind *config.Kind
	// Root is the local checkout the graph is generated from.
	Root     string
	Graph    *config.GraphConfig
	Params   parameters.Parameters
	Manifest *manifest.Cache
}

// Func is a single transform.
type Func func(ctx context.Context, cfg *Config, tasks []*task.Task) ([]*task.Task, error)

// Step is a named transform.
type Step struct {
	Name string
	Fn   Func
}

// Sequence is an ordered list of transforms.
type Sequence []Step

// Run applies every step in order.
func (s Sequence) Run(ctx context.Context, cfg *Config, tasks []*task.Task) ([]*task.Task, error) {
	logger := ctxlog.FromContext(ctx)
	for _, step := range s {
		in := len(tasks)
		out, err := step.Fn(ctx, cfg, tasks)
		if err != nil {
			return nil, fmt.Errorf("transform '%s': %w", step.Name, err)
		}
		tasks = out
		logger.Debug("Applied transform.", "transform", step.Name, "in", in, "out", len(tasks))
	}
	return tasks, nil
}

// Each adapts a per-task function into a Func that keeps the task list's
// shape.
func Each(fn func(ctx context.Context, cfg *Config, t *task.Task) error) Func {
	return func(ctx context.Context, cfg *Config, tasks []*task.Task) ([]*task.Task, error) {
		for _, t := range tasks {
			if err := fn(ctx, cfg, t); err != nil {
				return nil, err
			}
		}
		return tasks, nil
	}
}
