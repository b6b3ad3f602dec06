package hcl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
)

// kindFilePattern selects kind definition files below the kinds directory.
const kindFilePattern = "**/*.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the graph configuration at configPath and every kind file under
// kindsDir. A missing kinds directory yields a model without kinds.
func (l *Loader) Load(ctx context.Context, configPath, kindsDir string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "config", configPath, "kinds", kindsDir)

	parser := hclparse.NewParser()

	graph, err := l.loadGraphConfig(parser, configPath)
	if err != nil {
		return nil, err
	}

	kindFiles, err := l.findKindFiles(kindsDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered kind files.", "count", len(kindFiles))

	model := &config.Model{Graph: graph}
	for _, file := range kindFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root kindFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, kb := range root.Kinds {
			kind, err := l.translateKind(ctx, kb, file)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Kinds = append(model.Kinds, kind)
		}
	}

	logger.Debug("HCL loading complete.", "kinds", len(model.Kinds), "repositories", len(graph.Repositories))
	return model, nil
}

func (l *Loader) loadGraphConfig(parser *hclparse.Parser, path string) (*config.GraphConfig, error) {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root configFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return l.translateGraphConfig(&root)
}

// findKindFiles returns the kind files below dir in lexical order.
func (l *Loader) findKindFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // It's not an error if the kinds directory doesn't exist.
		}
		return nil, fmt.Errorf("error accessing path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), kindFilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s in %s: %w", kindFilePattern, dir, err)
	}
	sort.Strings(matches)

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return files, nil
}
