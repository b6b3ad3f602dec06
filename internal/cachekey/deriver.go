package cachekey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
	"github.com/specialistvlad/xpigraph/internal/fsutil"
	"github.com/specialistvlad/xpigraph/internal/task"
	"golang.org/x/sync/errgroup"
)

const defaultHashCacheSize = 4096

// Options configure a Deriver.
type Options struct {
	// Root is the checkout root. File paths in digests are relative to it.
	Root      string `validate:"required"`
	CacheType string `validate:"required"`
	// Fast disables derivation entirely.
	Fast bool
	// Workers bounds parallel file hashing. Defaults to GOMAXPROCS.
	Workers int `validate:"gte=0"`
	// HashCacheSize bounds the memoized per-file hashes.
	HashCacheSize int `validate:"gte=0"`
}

// Deriver computes and attaches cache keys. It is safe for concurrent use.
type Deriver struct {
	opts   Options
	hashes *lru.Cache[string, string]
}

// New creates a Deriver.
func New(opts Options) (*Deriver, error) {
	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid cache key options: %w", err)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.HashCacheSize == 0 {
		opts.HashCacheSize = defaultHashCacheSize
	}
	hashes, err := lru.New[string, string](opts.HashCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash cache: %w", err)
	}
	return &Deriver{opts: opts, hashes: hashes}, nil
}

// CacheType returns the cache type the deriver scopes keys with.
func (d *Deriver) CacheType() string {
	return d.opts.CacheType
}

// FileSet returns the files a task in directory depends on, relative to the
// checkout root.
func (d *Deriver) FileSet(directory string) (fsutil.FileSet, error) {
	root := d.opts.Root
	files, err := fsutil.ListFiles(root, filepath.Join(root, filepath.FromSlash(directory)))
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %q: %w", directory, err)
	}

	shared, err := fsutil.ListFiles(root, filepath.Join(root, CIConfigDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %q: %w", CIConfigDir, err)
	}
	files.Union(shared)

	for _, name := range AdditionalFiles {
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", name, err)
		}
		if !info.IsDir() {
			files.Add(name)
		}
	}
	return files, nil
}

// Digest returns the hex digest of files, given relative to the checkout
// root. The result does not depend on the order of files.
func (d *Deriver) Digest(ctx context.Context, files []string) (string, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	sums := make([]string, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, rel := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := d.fileHash(filepath.Join(d.opts.Root, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", rel, err)
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	h := sha256.New()
	for i, rel := range sorted {
		fmt.Fprintf(h, "%s %s\n", sums[i], rel)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// fileHash returns the sha256 of the file at path, following symlinks.
func (d *Deriver) fileHash(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	if sum, ok := d.hashes.Get(resolved); ok {
		return sum, nil
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	sum := hex.EncodeToString(h.Sum(nil))
	d.hashes.Add(resolved, sum)
	return sum, nil
}

// Apply attaches a cache block to t. Tasks that opted out of caching, and
// every task in fast mode, are left untouched.
func (d *Deriver) Apply(ctx context.Context, t *task.Task) error {
	logger := ctxlog.FromContext(ctx).With("label", t.Label)
	if d.opts.Fast || !t.IsCacheable() {
		logger.Debug("Skipping cache key derivation.", "fast", d.opts.Fast)
		return nil
	}

	files, err := d.FileSet(t.Extra.Directory)
	if err != nil {
		return fmt.Errorf("task '%s': %w", t.Label, err)
	}
	digest, err := d.Digest(ctx, files.Sorted())
	if err != nil {
		return fmt.Errorf("task '%s': %w", t.Label, err)
	}

	t.Cache = &task.Cache{
		Type:       d.opts.CacheType,
		Name:       CacheName(t.Label),
		DigestData: []string{digest},
	}
	t.SetDefaultAttribute(CachedTaskAttribute, map[string]any{})
	logger.Debug("Derived cache key.", "files", len(files), "digest", digest)
	return nil
}
