// Package cached attaches content-addressed cache keys to tasks.
package cached

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/xpigraph/internal/cachekey"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/registry"
	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/transform"
	"github.com/specialistvlad/xpigraph/internal/vcs"
)

// Module implements the registry.Module interface for this package. The
// deriver is created on first use and shared by every kind, so file hashes
// are memoized across kinds.
type Module struct {
	// Options are the deriver options. Root, CacheType and Fast are filled
	// from the transform config when left empty.
	Options cachekey.Options

	once    sync.Once
	deriver *cachekey.Deriver
	err     error
}

// Register registers the "cached" transform.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("cached", m.BuildCache)
}

// BuildCache derives and attaches the cache key of every task.
func (m *Module) BuildCache(ctx context.Context, cfg *transform.Config, tasks []*task.Task) ([]*task.Task, error) {
	if cfg.Params.Fast {
		ctxlog.FromContext(ctx).Debug("Fast mode, skipping cache keys.", "kind", cfg.Kind.Name)
		return tasks, nil
	}

	d, err := m.getDeriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := d.Apply(ctx, t); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (m *Module) getDeriver(ctx context.Context, cfg *transform.Config) (*cachekey.Deriver, error) {
	m.once.Do(func() {
		opts := m.Options
		if opts.Root == "" {
			opts.Root = cfg.Root
		}
		opts.Fast = opts.Fast || cfg.Params.Fast
		if opts.CacheType == "" {
			remote := cfg.Params.HeadRepository
			if remote == "" {
				remote, m.err = vcs.RemoteURL(ctx, opts.Root, vcs.DefaultRemote)
				if m.err != nil {
					m.err = fmt.Errorf("failed to determine the repository name: %w", m.err)
					return
				}
			}
			opts.CacheType = cachekey.CacheType(remote)
		}
		ctxlog.FromContext(ctx).Debug("Created cache key deriver.", "root", opts.Root, "cache_type", opts.CacheType)
		m.deriver, m.err = cachekey.New(opts)
	})
	return m.deriver, m.err
}
