package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/fsutil"
	"github.com/tidwall/gjson"
)

const (
	DescriptorFile = "package.json"
	YarnLockFile   = "yarn.lock"
	NPMLockFile    = "package-lock.json"
)

// ErrMissingLockfile is matched by errors.Is for a sub-project without a lockfile.
var ErrMissingLockfile = errors.New("missing lockfile")

// MissingLockfileError reports a sub-project that has neither lockfile.
type MissingLockfileError struct {
	Dir string
}

func (e *MissingLockfileError) Error() string {
	return fmt.Sprintf("Missing %s or %s in %s!", YarnLockFile, NPMLockFile, e.Dir)
}

func (e *MissingLockfileError) Unwrap() error {
	return ErrMissingLockfile
}

// Discover walks root and returns the validated manifest of its sub-projects.
// A sub-project without a lockfile aborts the walk immediately; every other
// problem is collected by Check after the walk.
func Discover(ctx context.Context, root string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// WalkDir does not descend into a symlinked root, so walk its target and
	// report paths under the root as given.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("error resolving root %s: %w", root, err)
	}
	logger.Debug("Discovering sub-projects.", "root", root, "resolved_root", walkRoot)

	var projects []SubProject
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != walkRoot && fsutil.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		project, ok, err := readSubProject(root, filepath.Join(root, rel))
		if err != nil {
			return err
		}
		if ok {
			logger.Debug("Found sub-project.", "name", project.Name, "directory", project.Directory, "install_type", project.InstallType, "tests", project.Tests)
			projects = append(projects, project)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := Check(projects); err != nil {
		return nil, err
	}
	logger.Debug("Manifest discovered and validated.", "sub_projects", len(projects))
	return New(projects), nil
}

// readSubProject builds the record for dir if it holds a descriptor.
func readSubProject(root, dir string) (SubProject, bool, error) {
	descriptor := filepath.Join(dir, DescriptorFile)
	if !isFile(descriptor) {
		return SubProject{}, false, nil
	}

	project := SubProject{Name: filepath.Base(dir)}
	switch {
	case isFile(filepath.Join(dir, YarnLockFile)):
		project.InstallType = InstallYarn
	case isFile(filepath.Join(dir, NPMLockFile)):
		project.InstallType = InstallNPM
	default:
		return SubProject{}, false, &MissingLockfileError{Dir: dir}
	}

	if dir != root {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return SubProject{}, false, err
		}
		project.Directory = filepath.ToSlash(rel)
	}

	data, err := os.ReadFile(descriptor)
	if err != nil {
		return SubProject{}, false, fmt.Errorf("failed to read %s: %w", descriptor, err)
	}
	tests, err := scriptTargets(data)
	if err != nil {
		return SubProject{}, false, fmt.Errorf("failed to parse %s: %w", descriptor, err)
	}
	project.Tests = tests
	return project, true, nil
}

// scriptTargets returns the test and lint script names in declaration order.
func scriptTargets(data []byte) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	targets := []string{}
	scripts := gjson.GetBytes(data, "scripts")
	if !scripts.IsObject() {
		return targets, nil
	}
	// A repeated key is one script; its first position wins.
	seen := make(map[string]struct{})
	scripts.ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		if _, dup := seen[name]; dup {
			return true
		}
		seen[name] = struct{}{}
		if strings.HasPrefix(name, "test") || strings.HasPrefix(name, "lint") {
			targets = append(targets, name)
		}
		return true
	})
	return targets, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
