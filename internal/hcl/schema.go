package hcl

import "github.com/hashicorp/hcl/v2"

// --- Graph configuration ---

// configFile is the top-level structure of the graph configuration file.
type configFile struct {
	TrustDomain       string             `hcl:"trust_domain"`
	GithubCloneSecret string             `hcl:"github_clone_secret,optional"`
	PrivateArtifacts  bool               `hcl:"private_artifacts,optional"`
	Repositories      []*repositoryBlock `hcl:"repository,block"`
}

// repositoryBlock is a `repository "<prefix>"` block.
type repositoryBlock struct {
	Prefix        string `hcl:"prefix,label"`
	Name          string `hcl:"name"`
	SSHSecretName string `hcl:"ssh_secret_name,optional"`
}

// --- Kind definitions ---

// kindFile is the top-level structure of a kind definition file.
type kindFile struct {
	Kinds []*kindBlock `hcl:"kind,block"`
}

// kindBlock is a `kind "<name>"` block.
type kindBlock struct {
	Name                  string            `hcl:"name,label"`
	Transforms            []string          `hcl:"transforms"`
	KindDependencies      []string          `hcl:"kind_dependencies,optional"`
	PrimaryDependencyKind string            `hcl:"primary_dependency_kind,optional"`
	Jobs                  []*jobBlock       `hcl:"job,block"`
	JobTemplate           *jobTemplateBlock `hcl:"job_template,block"`
}

// jobBlock is a static, named job template.
type jobBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	WorkerType  hcl.Expression `hcl:"worker_type,optional"`
	Cache       *bool          `hcl:"cache,optional"`
	Attributes  hcl.Expression `hcl:"attributes,optional"`
	Scopes      []string       `hcl:"scopes,optional"`
	Worker      *workerBlock   `hcl:"worker,block"`
	Run         *runBlock      `hcl:"run,block"`
}

// jobTemplateBlock is the template of a single-dependency kind. It has the
// same body as jobBlock without the label.
type jobTemplateBlock struct {
	Description string         `hcl:"description,optional"`
	WorkerType  hcl.Expression `hcl:"worker_type,optional"`
	Cache       *bool          `hcl:"cache,optional"`
	Attributes  hcl.Expression `hcl:"attributes,optional"`
	Scopes      []string       `hcl:"scopes,optional"`
	Worker      *workerBlock   `hcl:"worker,block"`
	Run         *runBlock      `hcl:"run,block"`
}

// workerBlock is the `worker` block of a job.
type workerBlock struct {
	DockerImage string            `hcl:"docker_image,optional"`
	MaxRunTime  int               `hcl:"max_run_time,optional"`
	Env         map[string]string `hcl:"env,optional"`
	SigningType hcl.Expression    `hcl:"signing_type,optional"`
	Artifacts   []*artifactBlock  `hcl:"artifact,block"`
}

// artifactBlock is an `artifact` block inside `worker`.
type artifactBlock struct {
	Type string `hcl:"type"`
	Name string `hcl:"name"`
	Path string `hcl:"path"`
}

// runBlock is the `run` block of a job.
type runBlock struct {
	Using   string `hcl:"using,optional"`
	Command string `hcl:"command,optional"`
	Cwd     string `hcl:"cwd,optional"`
}
