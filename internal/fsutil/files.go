// Package fsutil lists checkout files for sub-project discovery and cache
// key derivation.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ignoredDirs are never descended into, wherever they appear in the tree.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
}

// ignoredExtensions are excluded from every listing.
var ignoredExtensions = map[string]struct{}{
	".pyc": {},
	".swp": {},
}

// IsIgnoredDir reports whether a directory with the given base name is pruned.
func IsIgnoredDir(name string) bool {
	_, ok := ignoredDirs[name]
	return ok
}

// IsIgnoredFile reports whether a file with the given base name is excluded.
func IsIgnoredFile(name string) bool {
	_, ok := ignoredExtensions[filepath.Ext(name)]
	return ok
}

// FileSet is a set of slash-separated paths relative to a checkout root.
type FileSet map[string]struct{}

// Add inserts paths into the set.
func (s FileSet) Add(paths ...string) {
	for _, p := range paths {
		s[p] = struct{}{}
	}
}

// Union adds every path of other into s.
func (s FileSet) Union(other FileSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Sorted returns the paths in lexical order.
func (s FileSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ListFiles recursively lists the files under root, pruning ignored
// directories and skipping ignored extensions. Paths are returned relative to
// base rather than root so that listings of different roots can be unioned.
// A symlinked root is walked at its target but keeps its own path in the
// listing. A root that does not exist yields an empty set.
func ListFiles(base, root string) (FileSet, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	files := make(FileSet)
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return files, nil
	} else if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", root, err)
	}

	prefix, err := filepath.Rel(base, root)
	if err != nil {
		return nil, err
	}
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("error resolving path %s: %w", root, err)
	}

	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != walkRoot && IsIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsIgnoredFile(d.Name()) {
			return nil
		}
		// Symlinked directories are not followed and are not files either.
		if d.Type()&fs.ModeSymlink != 0 {
			if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
				return nil
			}
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		files.Add(filepath.ToSlash(filepath.Join(prefix, rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
