// This file translates the decoded HCL schema structs into the
// format-agnostic configuration model.

package hcl

import (
	"context"
	"fmt"

	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/task"
)

func (l *Loader) translateGraphConfig(c *configFile) (*config.GraphConfig, error) {
	g := &config.GraphConfig{
		TrustDomain:       c.TrustDomain,
		GithubCloneSecret: c.GithubCloneSecret,
		PrivateArtifacts:  c.PrivateArtifacts,
		Repositories:      make(map[string]*config.Repository, len(c.Repositories)),
	}
	for _, r := range c.Repositories {
		if _, dup := g.Repositories[r.Prefix]; dup {
			return nil, fmt.Errorf("repository '%s' is defined more than once", r.Prefix)
		}
		g.Repositories[r.Prefix] = &config.Repository{
			Prefix:        r.Prefix,
			Name:          r.Name,
			SSHSecretName: r.SSHSecretName,
		}
	}
	return g, nil
}

func (l *Loader) translateKind(ctx context.Context, k *kindBlock, path string) (*config.Kind, error) {
	logger := ctxlog.FromContext(ctx).With("kind", k.Name)
	logger.Debug("Translating HCL kind to internal config model.", "jobs", len(k.Jobs), "has_template", k.JobTemplate != nil)

	kind := &config.Kind{
		Name:                  k.Name,
		Path:                  path,
		Transforms:            k.Transforms,
		KindDependencies:      k.KindDependencies,
		PrimaryDependencyKind: k.PrimaryDependencyKind,
	}

	for _, jb := range k.Jobs {
		job, err := translateJob(k.Name, jb.Name, jobTemplateBlock{
			Description: jb.Description,
			WorkerType:  jb.WorkerType,
			Cache:       jb.Cache,
			Attributes:  jb.Attributes,
			Scopes:      jb.Scopes,
			Worker:      jb.Worker,
			Run:         jb.Run,
		})
		if err != nil {
			return nil, fmt.Errorf("kind '%s', job '%s': %w", k.Name, jb.Name, err)
		}
		kind.Jobs = append(kind.Jobs, job)
	}

	if k.JobTemplate != nil {
		tmpl, err := translateJob(k.Name, "", *k.JobTemplate)
		if err != nil {
			return nil, fmt.Errorf("kind '%s', job_template: %w", k.Name, err)
		}
		kind.JobTemplate = tmpl
	}
	return kind, nil
}

func translateJob(kind, name string, b jobTemplateBlock) (*task.Task, error) {
	t := &task.Task{
		Kind:        kind,
		Name:        name,
		Description: b.Description,
		Cacheable:   b.Cache,
		Scopes:      b.Scopes,
	}

	workerType, err := decodeKeyed(b.WorkerType, "worker_type")
	if err != nil {
		return nil, err
	}
	t.WorkerType = workerType

	if isExprDefined(b.Attributes) {
		attrs, err := decodeAttributes(b.Attributes)
		if err != nil {
			return nil, err
		}
		t.Attributes = attrs
	}

	if w := b.Worker; w != nil {
		t.Worker.DockerImage = w.DockerImage
		t.Worker.MaxRunTime = w.MaxRunTime
		t.Worker.Env = w.Env
		signingType, err := decodeKeyed(w.SigningType, "signing_type")
		if err != nil {
			return nil, err
		}
		t.Worker.SigningType = signingType
		for _, a := range w.Artifacts {
			t.Worker.Artifacts = append(t.Worker.Artifacts, task.Artifact{Type: a.Type, Name: a.Name, Path: a.Path})
		}
	}

	if r := b.Run; r != nil {
		t.Run = &task.Run{Using: r.Using, Command: r.Command, Cwd: r.Cwd}
	}
	return t, nil
}
