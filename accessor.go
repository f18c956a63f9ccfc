package collate

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/meigma/collate/internal/ledger"
)

// Accessor loads a table of contents and answers resource location queries.
//
// After a load completes the index is only read, so a single Accessor may
// back any number of concurrent Readers. Reload and SetTableOfContentsPath
// must not run concurrently with other methods.
type Accessor struct {
	tocPath       string
	resources     map[string]ResourceLocation
	realResources bool
	logger        *slog.Logger
}

// NewAccessor creates an Accessor and loads the table of contents at tocPath.
func NewAccessor(tocPath string, opts ...AccessorOption) (*Accessor, error) {
	a := newAccessor(tocPath, opts)
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewAccessorFromReader creates an Accessor from an in-memory table of
// contents. name identifies the ledger in diagnostics and is the path used
// by a later Reload.
func NewAccessorFromReader(name string, r io.Reader, opts ...AccessorOption) (*Accessor, error) {
	a := newAccessor(name, opts)
	if a.realResources {
		return a, nil
	}
	resources, err := a.load(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read table of contents %s: %w", ErrIO, name, err)
	}
	a.resources = resources
	return a, nil
}

func newAccessor(tocPath string, opts []AccessorOption) *Accessor {
	a := &Accessor{
		tocPath:   tocPath,
		resources: make(map[string]ResourceLocation),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Accessor) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Reload discards the current index and parses the table of contents again.
//
// Blank lines are ignored. Lines that do not hold exactly five fields, or
// whose page index, offset or size are not integers, are skipped with a
// warning. When a resource appears more than once the last entry wins.
// Only failing to open or read the file is an error.
func (a *Accessor) Reload() error {
	a.resources = make(map[string]ResourceLocation)
	if a.realResources {
		return nil
	}

	f, err := os.Open(a.tocPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	resources, err := a.load(f)
	if err != nil {
		return fmt.Errorf("%w: read table of contents %s: %w", ErrIO, a.tocPath, err)
	}
	a.resources = resources
	a.log().Debug("table of contents loaded", "path", a.tocPath, "resources", len(resources))
	return nil
}

// load parses ledger lines from r into a new index.
func (a *Accessor) load(r io.Reader) (map[string]ResourceLocation, error) {
	resources := make(map[string]ResourceLocation)
	err := ledger.Scan(r, func(l ledger.Line) error {
		rec, err := ledger.Parse(l.Text)
		if err != nil {
			a.log().Warn("skipping malformed table of contents line",
				"toc", a.tocPath, "line", l.Number, "text", snippet(l.Text), "error", err)
			return nil
		}

		key := resourceKey(FromUnix(rec.ResourcePath))
		if _, ok := resources[key]; ok {
			a.log().Warn("multiple entries for resource, using the last",
				"toc", a.tocPath, "line", l.Number, "resource", key)
		}
		resources[key] = ResourceLocation{
			BasePath:  FromUnix(rec.BasePath),
			PageIndex: rec.PageIndex,
			Offset:    rec.Offset,
			Size:      rec.Size,
		}
		return nil
	})
	return resources, err
}

// TableOfContentsPath returns the ledger path.
func (a *Accessor) TableOfContentsPath() string {
	return a.tocPath
}

// SetTableOfContentsPath switches to the ledger at path and reloads.
func (a *Accessor) SetTableOfContentsPath(path string) error {
	a.tocPath = path
	return a.Reload()
}

// RealResources reports whether the Accessor defers to the real filesystem.
func (a *Accessor) RealResources() bool {
	return a.realResources
}

// Len returns the number of indexed resources.
func (a *Accessor) Len() int {
	return len(a.resources)
}

// HasResource reports whether path is indexed.
func (a *Accessor) HasResource(path string) bool {
	_, ok := a.resources[resourceKey(path)]
	return ok
}

// Resource returns the location of path. It returns an *fs.PathError
// wrapping ErrNotFound when the resource is not indexed.
func (a *Accessor) Resource(path string) (ResourceLocation, error) {
	loc, ok := a.resources[resourceKey(path)]
	if !ok {
		return ResourceLocation{}, &fs.PathError{Op: "lookup", Path: path, Err: ErrNotFound}
	}
	return loc, nil
}

// Resources returns an iterator over indexed resources sorted by slash-form path.
func (a *Accessor) Resources() iter.Seq2[string, ResourceLocation] {
	return func(yield func(string, ResourceLocation) bool) {
		for _, key := range slices.Sorted(maps.Keys(a.resources)) {
			if !yield(key, a.resources[key]) {
				return
			}
		}
	}
}

// List returns the indexed resources that are immediate children of dir,
// sorted, in native path form.
//
// The index is authoritative: resources are listed whether or not their
// source files still exist. With real resources enabled, List returns the
// regular files directly inside dir instead.
func (a *Accessor) List(dir string) ([]string, error) {
	if a.realResources {
		return listReal(dir, false)
	}
	return a.match(dir, func(dirLen, pathLen int) bool { return pathLen == dirLen+1 }), nil
}

// ListRecursive returns every indexed resource below dir at any depth,
// sorted, in native path form. With real resources enabled it walks dir and
// returns all regular files below it.
func (a *Accessor) ListRecursive(dir string) ([]string, error) {
	if a.realResources {
		return listReal(dir, true)
	}
	return a.match(dir, func(dirLen, pathLen int) bool { return pathLen > dirLen }), nil
}

// match returns the keys whose leading components equal dir's and whose
// component count satisfies depth.
func (a *Accessor) match(dir string, depth func(dirLen, pathLen int) bool) []string {
	prefix := Components(resourceKey(dir))
	var out []string
	for key := range a.resources {
		parts := Components(key)
		if !depth(len(prefix), len(parts)) {
			continue
		}
		if slices.Equal(parts[:len(prefix)], prefix) {
			out = append(out, FromUnix(key))
		}
	}
	slices.Sort(out)
	return out
}

// listReal lists regular files in dir on the real filesystem. Symlinks are
// followed when deciding whether an entry is a file.
func listReal(dir string, recursive bool) ([]string, error) {
	root := dir
	if root == "" {
		root = "."
	}

	var out []string
	add := func(path string) {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			out = append(out, path)
		}
	}

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		for _, e := range entries {
			add(filepath.Join(dir, e.Name()))
		}
		return out, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			add(path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	slices.Sort(out)
	return out, nil
}

// snippet shortens a ledger line for log output.
func snippet(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
