package cachekey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/specialistvlad/xpigraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutFiles() map[string]string {
	return map[string]string{
		".taskcluster.yml":            "version: 1\n",
		"taskcluster/config.hcl":      "trust_domain = \"xpi\"\n",
		"taskcluster/kinds/build.hcl": "kind \"build\" {}\n",
		"pkgA/package.json":           `{"name": "a"}`,
		"pkgA/yarn.lock":              "# yarn\n",
		"pkgA/src/index.js":           "console.log('a');\n",
		"pkgA/src/index.pyc":          "compiled",
		"pkgA/node_modules/x/x.js":    "vendored",
		"pkgB/package.json":           `{"name": "b"}`,
		"pkgB/package-lock.json":      "{}",
	}
}

func newDeriver(t *testing.T, root string, fast bool) *Deriver {
	t.Helper()
	d, err := New(Options{Root: root, CacheType: "xpi-manifest.v2", Fast: fast, Workers: 2, HashCacheSize: 16})
	require.NoError(t, err)
	return d
}

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestDeriver_FileSet(t *testing.T) {
	root := testutil.NewTree(t, checkoutFiles())
	d := newDeriver(t, root, false)

	files, err := d.FileSet("pkgA")

	require.NoError(t, err)
	assert.Equal(t, []string{
		".taskcluster.yml",
		"pkgA/package.json",
		"pkgA/src/index.js",
		"pkgA/yarn.lock",
		"taskcluster/config.hcl",
		"taskcluster/kinds/build.hcl",
	}, files.Sorted())
}

func TestDeriver_Digest(t *testing.T) {
	ctx := context.Background()

	t.Run("matches the documented layout", func(t *testing.T) {
		root := testutil.NewTree(t, map[string]string{"a.txt": "A", "b/c.txt": "C"})
		d := newDeriver(t, root, false)

		got, err := d.Digest(ctx, []string{"b/c.txt", "a.txt"})

		require.NoError(t, err)
		want := sha(fmt.Sprintf("%s a.txt\n%s b/c.txt\n", sha("A"), sha("C")))
		assert.Equal(t, want, got)
	})

	t.Run("independent of input order", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		d := newDeriver(t, root, false)
		files, err := d.FileSet("pkgA")
		require.NoError(t, err)
		sorted := files.Sorted()
		reversed := make([]string, len(sorted))
		for i, f := range sorted {
			reversed[len(sorted)-1-i] = f
		}

		a, err := d.Digest(ctx, sorted)
		require.NoError(t, err)
		b, err := d.Digest(ctx, reversed)
		require.NoError(t, err)

		assert.Equal(t, a, b)
	})

	t.Run("symlinked file hashes its target under the link path", func(t *testing.T) {
		// Arrange
		root := testutil.NewTree(t, map[string]string{
			"pkgA/package.json": `{}`,
			"vendor/shared.js":  "shared v1\n",
		})
		testutil.Symlink(t, filepath.Join(root, "vendor", "shared.js"), filepath.Join(root, "pkgA", "shared.js"))
		files, err := newDeriver(t, root, false).FileSet("pkgA")
		require.NoError(t, err)
		require.Contains(t, files, "pkgA/shared.js")

		// Act
		before, err := newDeriver(t, root, false).Digest(ctx, []string{"pkgA/shared.js"})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "shared.js"), []byte("shared v2\n"), 0o644))
		after, err := newDeriver(t, root, false).Digest(ctx, []string{"pkgA/shared.js"})
		require.NoError(t, err)

		// Assert
		assert.Equal(t, sha(fmt.Sprintf("%s pkgA/shared.js\n", sha("shared v1\n"))), before)
		assert.Equal(t, sha(fmt.Sprintf("%s pkgA/shared.js\n", sha("shared v2\n"))), after)
	})

	t.Run("missing file fails", func(t *testing.T) {
		d := newDeriver(t, t.TempDir(), false)

		_, err := d.Digest(ctx, []string{"nope.txt"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to hash nope.txt")
	})
}

func TestDeriver_Apply(t *testing.T) {
	ctx := context.Background()

	apply := func(t *testing.T, root string, fast bool, tk *task.Task) *task.Task {
		t.Helper()
		// A fresh deriver per call so memoized hashes never mask file changes.
		require.NoError(t, newDeriver(t, root, fast).Apply(ctx, tk))
		return tk
	}
	buildTask := func() *task.Task {
		return &task.Task{Kind: "build", Label: "build:pkgA", Extra: task.Extra{XPIName: "pkgA", Directory: "pkgA"}}
	}

	t.Run("attaches the cache block", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())

		tk := apply(t, root, false, buildTask())

		require.NotNil(t, tk.Cache)
		assert.Equal(t, "xpi-manifest.v2", tk.Cache.Type)
		assert.Equal(t, "build-pkgA", tk.Cache.Name)
		require.Len(t, tk.Cache.DigestData, 1)
		assert.Len(t, tk.Cache.DigestData[0], 64)
		assert.Equal(t, map[string]any{}, tk.Attributes[CachedTaskAttribute])
	})

	t.Run("keeps an existing cached_task attribute", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		tk := buildTask()
		tk.SetAttribute(CachedTaskAttribute, map[string]any{"digest": "x"})

		apply(t, root, false, tk)

		assert.Equal(t, map[string]any{"digest": "x"}, tk.Attributes[CachedTaskAttribute])
	})

	t.Run("included file change changes the digest", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		before := apply(t, root, false, buildTask()).Cache.DigestData[0]
		require.NoError(t, os.WriteFile(filepath.Join(root, "pkgA/src/index.js"), []byte("console.log('b');\n"), 0o644))

		after := apply(t, root, false, buildTask()).Cache.DigestData[0]

		assert.NotEqual(t, before, after)
	})

	t.Run("shared config change changes the digest", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		before := apply(t, root, false, buildTask()).Cache.DigestData[0]
		require.NoError(t, os.WriteFile(filepath.Join(root, "taskcluster/config.hcl"), []byte("changed"), 0o644))

		after := apply(t, root, false, buildTask()).Cache.DigestData[0]

		assert.NotEqual(t, before, after)
	})

	t.Run("ignored file change keeps the digest", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		before := apply(t, root, false, buildTask()).Cache.DigestData[0]
		require.NoError(t, os.WriteFile(filepath.Join(root, "pkgA/src/index.pyc"), []byte("recompiled"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "pkgA/node_modules/x/x.js"), []byte("updated"), 0o644))

		after := apply(t, root, false, buildTask()).Cache.DigestData[0]

		assert.Equal(t, before, after)
	})

	t.Run("other sub-project change keeps the digest", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		before := apply(t, root, false, buildTask()).Cache.DigestData[0]
		require.NoError(t, os.WriteFile(filepath.Join(root, "pkgB/package.json"), []byte(`{"name": "b2"}`), 0o644))

		after := apply(t, root, false, buildTask()).Cache.DigestData[0]

		assert.Equal(t, before, after)
	})

	t.Run("opted out task is skipped", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())
		tk := buildTask()
		off := false
		tk.Cacheable = &off

		apply(t, root, false, tk)

		assert.Nil(t, tk.Cache)
		assert.NotContains(t, tk.Attributes, CachedTaskAttribute)
	})

	t.Run("fast mode skips every task", func(t *testing.T) {
		root := testutil.NewTree(t, checkoutFiles())

		tk := apply(t, root, true, buildTask())

		assert.Nil(t, tk.Cache)
	})
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(Options{CacheType: "x.v2"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache key options")
}
