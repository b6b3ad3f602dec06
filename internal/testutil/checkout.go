package testutil

import "testing"

// CheckoutConfig is the graph configuration of the example checkout.
const CheckoutConfig = `
trust_domain = "xpi"

repository "xpi" {
  name = "xpi-manifest"
}
`

// CheckoutKinds are the kind definitions of the example checkout.
var CheckoutKinds = map[string]string{
	"build.hcl": `
kind "build" {
  transforms = ["build", "cached"]

  job "build" {
    description = "Build the XPI"
    worker_type = "b-linux"
    attributes = {
      run_on_tasks_for = ["github-push"]
    }
    worker {
      docker_image = "node"
      max_run_time = 3600
    }
    run {
      using   = "run-task"
      command = "yarn build"
    }
  }
}
`,
	"test.hcl": `
kind "test" {
  transforms = ["test", "cached"]

  job "test" {
    description = "Run XPI tests"
    worker_type = "t-linux"
    worker {
      docker_image = "node"
    }
    run {
      using   = "run-task"
      command = "yarn {target}"
    }
  }
}
`,
	"signing/dep-signing.hcl": `
kind "dep-signing" {
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
`,
}

// CheckoutFiles returns an example checkout with two sub-projects: pkgA
// (yarn, three test targets) and nested/pkgB (npm, one test target), plus
// the CI configuration under taskcluster/.
func CheckoutFiles() map[string]string {
	files := map[string]string{
		".taskcluster.yml":       "version: 1\n",
		"taskcluster/config.hcl": CheckoutConfig,
		"pkgA/package.json": `{
  "name": "pkg-a",
  "scripts": {
    "build": "webpack",
    "test": "jest",
    "lint": "eslint .",
    "test:unit": "jest unit"
  }
}`,
		"pkgA/yarn.lock":                "# yarn lockfile v1\n",
		"pkgA/src/index.js":             "console.log('a');\n",
		"nested/pkgB/package.json":      `{"name": "pkg-b", "scripts": {"test": "mocha"}}`,
		"nested/pkgB/package-lock.json": "{}",
		"nested/pkgB/index.js":          "module.exports = {};\n",
	}
	for name, content := range CheckoutKinds {
		files["taskcluster/kinds/"+name] = content
	}
	return files
}

// NewCheckout writes the example checkout to a temporary directory.
func NewCheckout(t *testing.T) string {
	t.Helper()
	return NewTree(t, CheckoutFiles())
}
