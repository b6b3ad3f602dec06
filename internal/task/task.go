package task

import "maps"

// Artifact is a build output published by a worker.
type Artifact struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// UpstreamArtifact names artifacts of a dependency that a signing worker consumes.
type UpstreamArtifact struct {
	// TaskReference is a "<dependency-name>" placeholder, replaced by TaskID
	// once task ids are assigned.
	TaskReference string   `json:"task-reference,omitempty" yaml:"task-reference,omitempty"`
	TaskID        string   `json:"taskId,omitempty" yaml:"taskId,omitempty"`
	TaskType      string   `json:"taskType" yaml:"taskType"`
	Paths         []string `json:"paths" yaml:"paths"`
	Formats       []string `json:"formats" yaml:"formats"`
}

// Worker holds the worker payload fields the transforms read or write.
type Worker struct {
	DockerImage       string             `json:"docker-image,omitempty" yaml:"docker-image,omitempty"`
	MaxRunTime        int                `json:"max-run-time,omitempty" yaml:"max-run-time,omitempty"`
	Env               map[string]string  `json:"env,omitempty" yaml:"env,omitempty"`
	Artifacts         []Artifact         `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	UpstreamArtifacts []UpstreamArtifact `json:"upstream-artifacts,omitempty" yaml:"upstream-artifacts,omitempty"`
	SigningType       Keyed              `json:"signing-type,omitzero" yaml:"signing-type,omitempty"`
}

// Run describes how the worker runs the job.
type Run struct {
	Using   string `json:"using,omitempty" yaml:"using,omitempty"`
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
	Cwd     string `json:"cwd,omitempty" yaml:"cwd,omitempty"`
}

// Extra carries the XPI identity through to dependent kinds.
type Extra struct {
	XPIName   string `json:"xpi-name,omitempty" yaml:"xpi-name,omitempty"`
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
}

// Cache is the content-addressed cache block attached by the cache key deriver.
type Cache struct {
	Type       string   `json:"type" yaml:"type"`
	Name       string   `json:"name" yaml:"name"`
	DigestData []string `json:"digest-data" yaml:"digest-data"`
}

// Task is one job template or one expanded task.
type Task struct {
	Kind        string `json:"kind" yaml:"kind"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	WorkerType  Keyed  `json:"worker-type,omitzero" yaml:"worker-type,omitempty"`
	Worker      Worker `json:"worker" yaml:"worker"`
	Run         *Run   `json:"run,omitempty" yaml:"run,omitempty"`
	Extra       Extra  `json:"extra,omitzero" yaml:"extra,omitempty"`

	// Cacheable is false when the template opted out of caching; nil means
	// caching is wanted.
	Cacheable *bool  `json:"-" yaml:"-"`
	Cache     *Cache `json:"cache,omitempty" yaml:"cache,omitempty"`

	Attributes    map[string]any    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Dependencies  map[string]string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Scopes        []string          `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	RunOnTasksFor []string          `json:"run-on-tasks-for,omitempty" yaml:"run-on-tasks-for,omitempty"`

	// PrimaryDependency is the upstream task a single-dependency kind was
	// generated from. It is shared, never mutated, and never rendered.
	PrimaryDependency *Task `json:"-" yaml:"-"`
}

// IsCacheable reports whether the task wants a cache block.
func (t *Task) IsCacheable() bool {
	return t.Cacheable == nil || *t.Cacheable
}

// SetEnv sets a worker environment variable.
func (t *Task) SetEnv(key, value string) {
	if t.Worker.Env == nil {
		t.Worker.Env = make(map[string]string)
	}
	t.Worker.Env[key] = value
}

// EnsureRun returns the run block, creating it when absent.
func (t *Task) EnsureRun() *Run {
	if t.Run == nil {
		t.Run = &Run{}
	}
	return t.Run
}

// SetAttribute sets an attribute, replacing any existing value.
func (t *Task) SetAttribute(key string, value any) {
	if t.Attributes == nil {
		t.Attributes = make(map[string]any)
	}
	t.Attributes[key] = value
}

// SetDefaultAttribute sets an attribute only when it is not already present.
func (t *Task) SetDefaultAttribute(key string, value any) {
	if _, ok := t.Attributes[key]; ok {
		return
	}
	t.SetAttribute(key, value)
}

// Clone returns a deep copy of t. PrimaryDependency is shared.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.WorkerType = t.WorkerType.clone()
	c.Worker = t.Worker.clone()
	if t.Run != nil {
		run := *t.Run
		c.Run = &run
	}
	if t.Cacheable != nil {
		v := *t.Cacheable
		c.Cacheable = &v
	}
	if t.Cache != nil {
		cache := *t.Cache
		cache.DigestData = cloneStrings(t.Cache.DigestData)
		c.Cache = &cache
	}
	c.Attributes = CloneAttributes(t.Attributes)
	c.Dependencies = maps.Clone(t.Dependencies)
	c.Scopes = cloneStrings(t.Scopes)
	c.RunOnTasksFor = cloneStrings(t.RunOnTasksFor)
	return &c
}

func (w Worker) clone() Worker {
	w.Env = maps.Clone(w.Env)
	if w.Artifacts != nil {
		w.Artifacts = append([]Artifact(nil), w.Artifacts...)
	}
	if w.UpstreamArtifacts != nil {
		ups := make([]UpstreamArtifact, len(w.UpstreamArtifacts))
		for i, u := range w.UpstreamArtifacts {
			u.Paths = cloneStrings(u.Paths)
			u.Formats = cloneStrings(u.Formats)
			ups[i] = u
		}
		w.UpstreamArtifacts = ups
	}
	w.SigningType = w.SigningType.clone()
	return w
}

// CloneAttributes deep-copies an attribute map made of maps, slices and scalars.
func CloneAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneAttributes(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return cloneStrings(val)
	case map[string]string:
		return maps.Clone(val)
	default:
		return v
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Strings converts an attribute value holding a list of strings.
func Strings(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return cloneStrings(val), true
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
