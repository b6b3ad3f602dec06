// Package render assigns task ids to the generated tasks and encodes the
// resulting task graph as JSON or YAML.
package render

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/specialistvlad/xpigraph/internal/task"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format '%s' (want json or yaml)", s)
}

// SlugID returns a new taskcluster slug id: a random v4 UUID, url-safe base64
// encoded without padding. The top bit is cleared so ids never start with '-'.
func SlugID() string {
	id := uuid.New()
	id[0] &= 0x7f
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// Entry is one rendered task.
type Entry struct {
	TaskID string `json:"task-id" yaml:"task-id"`
	// Dependencies maps dependency names to task ids.
	Dependencies map[string]string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Task         *task.Task        `json:"task" yaml:"task"`
}

// Graph is the rendered task graph keyed by label.
type Graph map[string]*Entry

// Build assigns an id to every task, in order, and resolves dependency
// labels and task references to ids. The input tasks are not modified.
func Build(tasks []*task.Task, newID func() string) (Graph, error) {
	ids := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if _, dup := ids[t.Label]; dup {
			return nil, fmt.Errorf("duplicate task label '%s'", t.Label)
		}
		ids[t.Label] = newID()
	}

	g := make(Graph, len(tasks))
	for _, t := range tasks {
		entry := &Entry{TaskID: ids[t.Label], Task: t.Clone()}

		for name, label := range t.Dependencies {
			id, ok := ids[label]
			if !ok {
				return nil, fmt.Errorf("task '%s': dependency '%s' refers to unknown task '%s'", t.Label, name, label)
			}
			if entry.Dependencies == nil {
				entry.Dependencies = make(map[string]string, len(t.Dependencies))
			}
			entry.Dependencies[name] = id
		}

		for i := range entry.Task.Worker.UpstreamArtifacts {
			up := &entry.Task.Worker.UpstreamArtifacts[i]
			if up.TaskReference == "" {
				continue
			}
			id, err := resolveReference(up.TaskReference, entry.Dependencies)
			if err != nil {
				return nil, fmt.Errorf("task '%s': %w", t.Label, err)
			}
			up.TaskID = id
			up.TaskReference = ""
		}

		g[t.Label] = entry
	}
	return g, nil
}

// resolveReference resolves a "<name>" task reference through deps.
func resolveReference(ref string, deps map[string]string) (string, error) {
	name, ok := strings.CutPrefix(ref, "<")
	if ok {
		name, ok = strings.CutSuffix(name, ">")
	}
	if !ok || name == "" {
		return "", fmt.Errorf("malformed task reference '%s'", ref)
	}
	id, ok := deps[name]
	if !ok {
		return "", fmt.Errorf("task reference '%s' names no dependency", ref)
	}
	return id, nil
}

// Encode writes g to w in the given format.
func Encode(w io.Writer, g Graph, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format '%s'", f)
}
