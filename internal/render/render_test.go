package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"

	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func graphTasks() []*task.Task {
	build := &task.Task{Kind: "build", Name: "pkgA", Label: "build-pkgA"}
	signing := &task.Task{
		Kind:         "dep-signing",
		Name:         "pkgA",
		Label:        "dep-signing-pkgA",
		Dependencies: map[string]string{"build": "build-pkgA"},
		Worker: task.Worker{
			UpstreamArtifacts: []task.UpstreamArtifact{{
				TaskReference: "<build>",
				TaskType:      "build",
				Paths:         []string{"public/build/pkgA.xpi"},
				Formats:       []string{"privileged_webextension"},
			}},
		},
	}
	return []*task.Task{build, signing}
}

func TestSlugID(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]{21}$`)
	seen := make(map[string]bool)
	for range 100 {
		id := SlugID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.ErrorContains(t, err, "unknown output format 'toml'")
}

func TestBuild(t *testing.T) {
	t.Run("resolves dependencies and task references", func(t *testing.T) {
		tasks := graphTasks()

		g, err := Build(tasks, sequentialIDs())

		require.NoError(t, err)
		require.Len(t, g, 2)
		assert.Equal(t, "id-1", g["build-pkgA"].TaskID)
		signing := g["dep-signing-pkgA"]
		assert.Equal(t, "id-2", signing.TaskID)
		assert.Equal(t, map[string]string{"build": "id-1"}, signing.Dependencies)
		up := signing.Task.Worker.UpstreamArtifacts[0]
		assert.Equal(t, "id-1", up.TaskID)
		assert.Empty(t, up.TaskReference)

		// The input is left untouched.
		assert.Equal(t, "<build>", tasks[1].Worker.UpstreamArtifacts[0].TaskReference)
	})

	t.Run("unknown dependency label", func(t *testing.T) {
		tasks := graphTasks()[1:]

		_, err := Build(tasks, sequentialIDs())

		assert.ErrorContains(t, err, "dependency 'build' refers to unknown task 'build-pkgA'")
	})

	t.Run("task reference without dependency", func(t *testing.T) {
		tasks := graphTasks()
		tasks[1].Worker.UpstreamArtifacts[0].TaskReference = "<docker-image>"

		_, err := Build(tasks, sequentialIDs())

		assert.ErrorContains(t, err, "task reference '<docker-image>' names no dependency")
	})

	t.Run("malformed task reference", func(t *testing.T) {
		tasks := graphTasks()
		tasks[1].Worker.UpstreamArtifacts[0].TaskReference = "build"

		_, err := Build(tasks, sequentialIDs())

		assert.ErrorContains(t, err, "malformed task reference 'build'")
	})

	t.Run("duplicate label", func(t *testing.T) {
		tasks := []*task.Task{{Label: "a"}, {Label: "a"}}

		_, err := Build(tasks, sequentialIDs())

		assert.ErrorContains(t, err, "duplicate task label 'a'")
	})
}

func TestEncode(t *testing.T) {
	g, err := Build(graphTasks(), sequentialIDs())
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, g, FormatJSON))

		var decoded map[string]map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "id-2", decoded["dep-signing-pkgA"]["task-id"])
		assert.Equal(t, map[string]any{"build": "id-1"}, decoded["dep-signing-pkgA"]["dependencies"])
		taskBody := decoded["dep-signing-pkgA"]["task"].(map[string]any)
		assert.Equal(t, "dep-signing-pkgA", taskBody["label"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, g, FormatYAML))

		var decoded map[string]map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "id-1", decoded["build-pkgA"]["task-id"])
		upstream := decoded["dep-signing-pkgA"]["task"].(map[string]any)["worker"].(map[string]any)["upstream-artifacts"].([]any)
		assert.Equal(t, "id-1", upstream[0].(map[string]any)["taskId"])
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, Encode(&bytes.Buffer{}, g, Format("toml")))
	})
}
