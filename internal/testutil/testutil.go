// Package testutil provides fixtures shared by collate tests.
package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFile is a resource to create on disk.
type TestFile struct {
	// Name is a slash-separated path relative to the fixture root.
	Name string
	Data []byte
}

// Pattern returns size deterministic bytes derived from seed. Different
// seeds produce different content so misplaced bytes show up in comparisons.
func Pattern(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = seed + byte(i*7) + byte(i>>8)
	}
	return data
}

// WriteFiles creates files under dir and returns their native paths in the
// order given.
func WriteFiles(t testing.TB, dir string, files []TestFile) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
		paths = append(paths, path)
	}
	return paths
}

// PagePath mirrors the collated page naming: base + "." + index.
func PagePath(base string, index int) string {
	return base + "." + strconv.Itoa(index)
}

// ReadPages returns the contents of base.0, base.1, ... up to the first
// missing page.
func ReadPages(t testing.TB, base string) [][]byte {
	t.Helper()
	var pages [][]byte
	for i := 0; ; i++ {
		data, err := os.ReadFile(PagePath(base, i))
		if errors.Is(err, fs.ErrNotExist) {
			return pages
		}
		require.NoError(t, err)
		pages = append(pages, data)
	}
}

// WriteLedger writes lines, each terminated by a newline, to path.
func WriteLedger(t testing.TB, path string, lines ...string) {
	t.Helper()
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}
