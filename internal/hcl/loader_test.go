package hcl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphHCL = `
trust_domain        = "xpi"
github_clone_secret = "project/xpi/github-clone-secret"

repository "xpi" {
  name            = "xpi-manifest"
  ssh_secret_name = "project/xpi/ssh"
}
`

const buildKindHCL = `
kind "build" {
  transforms = ["build", "cached"]

  job "build" {
    description = "XPI build"
    worker_type = "b-linux"
    attributes = {
      retrigger = true
      priority  = 3
      tags      = ["a", "b"]
    }
    worker {
      docker_image = "node"
      max_run_time = 3600
      env = {
        NODE_ENV = "production"
      }
    }
    run {
      using   = "run-task"
      command = "yarn build"
    }
  }
}
`

const signingKindHCL = `
kind "release-signing" {
  transforms              = ["signing-flags", "signing"]
  kind_dependencies       = ["build"]
  primary_dependency_kind = "build"

  job_template {
    worker_type = { "by-level" = { "3" = "signing", default = "dep-signing" } }
    cache       = false
    worker {
      signing_type = { "by-level" = { "3" = "release-signing", default = "dep-signing" } }
    }
  }
}
`

func TestLoader_Load(t *testing.T) {
	root := testutil.NewTree(t, map[string]string{
		"config.hcl":                graphHCL,
		"kinds/build.hcl":           buildKindHCL,
		"kinds/signing/signing.hcl": signingKindHCL,
		"kinds/signing/README.md":   "not a kind file",
	})

	model, err := NewLoader().Load(context.Background(), filepath.Join(root, "config.hcl"), filepath.Join(root, "kinds"))
	require.NoError(t, err)

	t.Run("graph configuration", func(t *testing.T) {
		require.NotNil(t, model.Graph)
		assert.Equal(t, "xpi", model.Graph.TrustDomain)
		assert.Equal(t, "project/xpi/github-clone-secret", model.Graph.GithubCloneSecret)
		assert.False(t, model.Graph.PrivateArtifacts)
		require.Contains(t, model.Graph.Repositories, "xpi")
		assert.Equal(t, "xpi-manifest", model.Graph.Repositories["xpi"].Name)
		assert.Equal(t, "project/xpi/ssh", model.Graph.Repositories["xpi"].SSHSecretName)
	})

	require.Len(t, model.Kinds, 2)

	t.Run("static jobs", func(t *testing.T) {
		kind := model.Kinds[0]
		assert.Equal(t, "build", kind.Name)
		assert.Equal(t, []string{"build", "cached"}, kind.Transforms)
		assert.Nil(t, kind.JobTemplate)
		require.Len(t, kind.Jobs, 1)

		job := kind.Jobs[0]
		assert.Equal(t, "build", job.Kind)
		assert.Equal(t, "build", job.Name)
		assert.Equal(t, "XPI build", job.Description)
		assert.Equal(t, task.Plain("b-linux"), job.WorkerType)
		assert.Nil(t, job.Cacheable)
		assert.Equal(t, "node", job.Worker.DockerImage)
		assert.Equal(t, 3600, job.Worker.MaxRunTime)
		assert.Equal(t, map[string]string{"NODE_ENV": "production"}, job.Worker.Env)
		assert.True(t, job.Worker.SigningType.IsZero())
		require.NotNil(t, job.Run)
		assert.Equal(t, "yarn build", job.Run.Command)
		assert.Equal(t, map[string]any{
			"retrigger": true,
			"priority":  int64(3),
			"tags":      []any{"a", "b"},
		}, job.Attributes)
	})

	t.Run("job template with keyed values", func(t *testing.T) {
		kind := model.Kinds[1]
		assert.Equal(t, "release-signing", kind.Name)
		assert.Equal(t, "build", kind.PrimaryDependencyKind)
		assert.Equal(t, []string{"build"}, kind.KindDependencies)
		assert.Empty(t, kind.Jobs)
		require.NotNil(t, kind.JobTemplate)

		tmpl := kind.JobTemplate
		assert.Equal(t, task.ByKey("level", map[string]string{"3": "signing", "default": "dep-signing"}), tmpl.WorkerType)
		assert.Equal(t, task.ByKey("level", map[string]string{"3": "release-signing", "default": "dep-signing"}), tmpl.Worker.SigningType)
		require.NotNil(t, tmpl.Cacheable)
		assert.False(t, *tmpl.Cacheable)
		assert.Nil(t, tmpl.Run)
	})
}

func TestLoader_Load_MissingKindsDir(t *testing.T) {
	root := testutil.NewTree(t, map[string]string{"config.hcl": graphHCL})

	model, err := NewLoader().Load(context.Background(), filepath.Join(root, "config.hcl"), filepath.Join(root, "kinds"))

	require.NoError(t, err)
	assert.Empty(t, model.Kinds)
}

func TestLoader_Load_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		kind    string
		wantErr string
	}{
		{
			name:    "syntax error",
			kind:    `kind "x" {`,
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "missing transforms",
			kind:    `kind "x" {}`,
			wantErr: "failed to decode HCL file",
		},
		{
			name: "keyed value without by prefix",
			kind: `kind "x" {
  transforms = ["build"]
  job "a" {
    worker_type = { level = { "3" = "b" } }
  }
}`,
			wantErr: "must look like by-<name>",
		},
		{
			name: "keyed value with several keys",
			kind: `kind "x" {
  transforms = ["build"]
  job "a" {
    worker_type = { "by-level" = { "3" = "b" }, "by-project" = { x = "y" } }
  }
}`,
			wantErr: "exactly one by-* key",
		},
		{
			name: "attributes not an object",
			kind: `kind "x" {
  transforms = ["build"]
  job "a" {
    attributes = "nope"
  }
}`,
			wantErr: "'attributes' must be an object",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := testutil.NewTree(t, map[string]string{
				"config.hcl":  graphHCL,
				"kinds/x.hcl": tc.kind,
			})

			_, err := NewLoader().Load(context.Background(), filepath.Join(root, "config.hcl"), filepath.Join(root, "kinds"))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoader_Load_DuplicateRepository(t *testing.T) {
	root := testutil.NewTree(t, map[string]string{
		"config.hcl": `
trust_domain = "xpi"
repository "xpi" { name = "a" }
repository "xpi" { name = "b" }
`,
	})

	_, err := NewLoader().Load(context.Background(), filepath.Join(root, "config.hcl"), filepath.Join(root, "kinds"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository 'xpi' is defined more than once")
}
