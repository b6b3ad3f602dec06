package manifest

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// IllegalTestNamePattern matches any character that is not allowed in a test
// target name. Colons are allowed; they are replaced when building cache names.
const IllegalTestNamePattern = `[^a-zA-Z0-9:_-]`

var illegalTestName = regexp.MustCompile(IllegalTestNamePattern)

// ViolationKind classifies a manifest problem.
type ViolationKind string

const (
	ViolationDuplicateName   ViolationKind = "duplicate-name"
	ViolationIllegalTestName ViolationKind = "illegal-test-name"
)

// Violation is a single manifest problem.
type Violation struct {
	Kind ViolationKind
	Name string
	// Target is set for illegal test names.
	Target string
	// Directories is set for duplicate names; the root project shows as ".".
	Directories []string
}

func (v Violation) String() string {
	switch v.Kind {
	case ViolationDuplicateName:
		return fmt.Sprintf("Duplicate xpi name %s in directories %v\nTry renaming your subdirectories", v.Name, v.Directories)
	case ViolationIllegalTestName:
		return fmt.Sprintf("Illegal test name in %s: %s !\nIllegal char regex: %s", v.Name, v.Target, IllegalTestNamePattern)
	default:
		return fmt.Sprintf("%s: %s", v.Kind, v.Name)
	}
}

// ValidationError carries every violation found in one manifest.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("Found the following issue with the package.json(s):")
	for _, v := range e.Violations {
		sb.WriteString("\n- ")
		sb.WriteString(v.String())
	}
	return sb.String()
}

// Validate returns every violation of the manifest invariants. Illegal test
// names come first in record order, followed by duplicate names sorted by name.
func Validate(projects []SubProject) []Violation {
	var violations []Violation
	dirsByName := make(map[string][]string)

	for _, p := range projects {
		dir := p.Directory
		if dir == "" {
			dir = "."
		}
		dirsByName[p.Name] = append(dirsByName[p.Name], dir)

		for _, target := range p.Tests {
			if illegalTestName.MatchString(target) {
				violations = append(violations, Violation{
					Kind:   ViolationIllegalTestName,
					Name:   p.Name,
					Target: target,
				})
			}
		}
	}

	names := make([]string, 0, len(dirsByName))
	for name := range dirsByName {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if dirs := dirsByName[name]; len(dirs) > 1 {
			violations = append(violations, Violation{
				Kind:        ViolationDuplicateName,
				Name:        name,
				Directories: dirs,
			})
		}
	}
	return violations
}

// Check fails with a *ValidationError when Validate finds any violation.
func Check(projects []SubProject) error {
	if violations := Validate(projects); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
