package manifest

import (
	"fmt"
	"slices"
)

// InstallType is the package manager used to install a sub-project.
type InstallType string

const (
	InstallYarn InstallType = "yarn"
	InstallNPM  InstallType = "npm"
)

// SubProject is a single entry of the manifest.
type SubProject struct {
	// Name is the base name of the sub-project directory.
	Name string `json:"name" yaml:"name"`
	// Directory is the slash-separated path from the checkout root. It is
	// empty when the sub-project is the checkout root itself.
	Directory   string      `json:"directory,omitempty" yaml:"directory,omitempty"`
	InstallType InstallType `json:"install-type" yaml:"install-type"`
	// Tests are the test and lint script names, in declaration order.
	Tests []string `json:"tests" yaml:"tests"`
}

// IsRoot reports whether the sub-project is the checkout root.
func (p SubProject) IsRoot() bool {
	return p.Directory == ""
}

// SortedTests returns a sorted copy of the test targets.
func (p SubProject) SortedTests() []string {
	return slices.Sorted(slices.Values(p.Tests))
}

func (p SubProject) clone() SubProject {
	p.Tests = slices.Clone(p.Tests)
	return p
}

// Manifest is the ordered, immutable collection of discovered sub-projects.
type Manifest struct {
	projects []SubProject
}

// New builds a Manifest from already-validated records. The records are
// copied; later changes to the argument are not observed.
func New(projects []SubProject) *Manifest {
	m := &Manifest{projects: make([]SubProject, 0, len(projects))}
	for _, p := range projects {
		m.projects = append(m.projects, p.clone())
	}
	return m
}

// Len returns the number of sub-projects.
func (m *Manifest) Len() int {
	return len(m.projects)
}

// SubProjects returns a copy of the records in discovery order.
func (m *Manifest) SubProjects() []SubProject {
	out := make([]SubProject, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p.clone())
	}
	return out
}

// LookupError is returned when a name does not resolve to exactly one record.
type LookupError struct {
	Name  string
	Found int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("Unable to find a single xpi matching name %s: found %d", e.Name, e.Found)
}

// Lookup returns the single sub-project with the given name.
func (m *Manifest) Lookup(name string) (SubProject, error) {
	var matches []SubProject
	for _, p := range m.projects {
		if p.Name == name {
			matches = append(matches, p)
		}
	}
	if len(matches) != 1 {
		return SubProject{}, &LookupError{Name: name, Found: len(matches)}
	}
	return matches[0].clone(), nil
}
