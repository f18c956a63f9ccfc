package collate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/meigma/collate/internal/ledger"
)

// ResourceLocation describes where a resource's bytes live.
//
// The resource begins at Offset in page PageIndex of the collated family at
// BasePath and continues, without gaps, from offset zero of each following
// page until Size bytes have been covered.
type ResourceLocation struct {
	// BasePath is the collated family path without the page suffix.
	BasePath string
	// PageIndex is the page in which the resource's data begins.
	PageIndex uint32
	// Offset is the byte offset of the resource within page PageIndex.
	Offset int64
	// Size is the logical length of the resource in bytes.
	Size int64
}

// ResourceEntry is one placement recorded in a TableOfContents.
type ResourceEntry struct {
	ResourcePath string
	ResourceLocation
}

// TableOfContents accumulates resource placements reported by a Collator and
// persists them as a text ledger.
//
// Entries are append-only and only a Collator can add them. Several
// Collators may share one TableOfContents; Write serializes everything
// recorded so far each time it is called.
type TableOfContents struct {
	path    string
	entries []ResourceEntry
}

// NewTableOfContents returns an empty TableOfContents that writes to path.
func NewTableOfContents(path string) *TableOfContents {
	return &TableOfContents{path: path}
}

// Path returns the ledger file path.
func (t *TableOfContents) Path() string {
	return t.path
}

// Len returns the number of recorded entries.
func (t *TableOfContents) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the recorded entries in recording order.
func (t *TableOfContents) Entries() []ResourceEntry {
	return slices.Clone(t.entries)
}

// add records a placement. Duplicate resource paths are kept; the Accessor
// resolves them when the ledger is loaded.
func (t *TableOfContents) add(resourcePath, basePath string, pageIndex uint32, offset, size int64) {
	t.entries = append(t.entries, ResourceEntry{
		ResourcePath: resourcePath,
		ResourceLocation: ResourceLocation{
			BasePath:  basePath,
			PageIndex: pageIndex,
			Offset:    offset,
			Size:      size,
		},
	})
}

// WriteTo serializes every entry to w, one line per entry in recording order.
func (t *TableOfContents) WriteTo(w io.Writer) (int64, error) {
	var total int64
	line := make([]byte, 0, 256)
	for _, e := range t.entries {
		line = ledger.Append(line[:0], ledger.Record{
			ResourcePath: ToUnix(e.ResourcePath),
			BasePath:     ToUnix(e.BasePath),
			PageIndex:    e.PageIndex,
			Offset:       e.Offset,
			Size:         e.Size,
		})
		n, err := w.Write(line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Write truncates the ledger file at Path and writes every entry to it.
func (t *TableOfContents) Write() error {
	f, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	bw := bufio.NewWriter(f)
	if _, err := t.WriteTo(bw); err != nil {
		f.Close()
		return fmt.Errorf("%w: write table of contents %s: %w", ErrIO, t.path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: write table of contents %s: %w", ErrIO, t.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close table of contents %s: %w", ErrIO, t.path, err)
	}
	return nil
}
