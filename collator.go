package collate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/meigma/collate/internal/page"
	"github.com/meigma/collate/internal/sizing"
)

// Collator packs resource files into collated pages and reports each
// resource's placement to a TableOfContents.
//
// Pages are named "<base>.<n>" starting at zero. With a positive page size no
// page grows beyond that size and a resource that does not fit continues at
// the start of the next page. A Collator is single-use: Execute may be called
// once, optionally followed by Revert.
type Collator struct {
	toc       *TableOfContents
	basePath  string
	pageSize  int64
	readSize  int
	resources []string
	seen      map[string]struct{}
	created   []string
	executed  bool
	logger    *slog.Logger
	progress  ProgressFunc
}

// NewCollator creates a Collator writing pages at basePath and recording
// placements in toc. The TableOfContents must outlive the Collator.
func NewCollator(toc *TableOfContents, basePath string, opts ...CollatorOption) (*Collator, error) {
	if toc == nil {
		return nil, fmt.Errorf("%w: table of contents cannot be nil", ErrInvalidConfig)
	}
	if basePath == "" {
		return nil, fmt.Errorf("%w: base path cannot be empty", ErrInvalidConfig)
	}

	c := &Collator{
		toc:      toc,
		basePath: basePath,
		pageSize: -1,
		readSize: DefaultReadSize,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.readSize <= 0 {
		return nil, fmt.Errorf("%w: read size must be positive, got %d", ErrInvalidConfig, c.readSize)
	}
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Collator) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// reportProgress sends a progress event if a callback is configured.
func (c *Collator) reportProgress(ev ProgressEvent) {
	if c.progress == nil {
		return
	}
	c.progress(ev)
}

// TableOfContents returns the table of contents placements are reported to.
func (c *Collator) TableOfContents() *TableOfContents {
	return c.toc
}

// BasePath returns the collated family path without page suffix.
func (c *Collator) BasePath() string {
	return c.basePath
}

// PageSize returns the maximum page size; zero or negative means unbounded.
func (c *Collator) PageSize() int64 {
	return c.pageSize
}

// ReadSize returns the maximum number of bytes copied per step.
func (c *Collator) ReadSize() int {
	return c.readSize
}

// Resources returns the resources to pack in insertion order.
func (c *Collator) Resources() []string {
	return slices.Clone(c.resources)
}

// Created returns the page files created by Execute that have not been reverted.
func (c *Collator) Created() []string {
	return slices.Clone(c.created)
}

// AddResource queues path for packing. It reports false, and does nothing,
// if the path was already added.
func (c *Collator) AddResource(path string) bool {
	key := resourceKey(path)
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	c.resources = append(c.resources, path)
	return true
}

// Execute copies every queued resource into the collated pages.
//
// Each resource's placement is recorded before its bytes are copied, using
// the current page and the number of bytes already written to it. On failure
// the pages written so far remain on disk; call Revert to remove them.
// Calling Execute again returns ErrAlreadyExecuted.
func (c *Collator) Execute(ctx context.Context) error {
	if c.executed {
		return ErrAlreadyExecuted
	}
	c.executed = true

	c.log().Info("collating resources", "base", c.basePath, "resources", len(c.resources), "page_size", c.pageSize)

	pw := &pageWriter{c: c}
	if err := pw.open(0); err != nil {
		return err
	}
	defer pw.abort()

	total := c.totalSize()
	var written uint64
	for i, path := range c.resources {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.copyResource(ctx, pw, path)
		if err != nil {
			return err
		}
		written += uint64(n)
		c.reportProgress(ProgressEvent{
			Stage:      StagePacking,
			Path:       path,
			Page:       pw.index,
			BytesDone:  written,
			BytesTotal: total,
			FilesDone:  i + 1,
			FilesTotal: len(c.resources),
		})
	}

	if err := pw.close(); err != nil {
		return err
	}
	c.log().Debug("collation complete", "pages", pw.index+1, "bytes", written)
	return nil
}

// totalSize sums the current sizes of the queued resources for progress
// reporting. Resources that cannot be stat'd count as zero.
func (c *Collator) totalSize() uint64 {
	if c.progress == nil {
		return 0
	}
	var total uint64
	for _, path := range c.resources {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			total += uint64(info.Size())
		}
	}
	return total
}

// copyResource records the placement of one resource and streams its bytes
// into the current page, rolling over to new pages as they fill.
func (c *Collator) copyResource(ctx context.Context, pw *pageWriter, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: not a regular file: %s", ErrIO, path)
	}
	size := info.Size()

	c.toc.add(path, c.basePath, pw.index, pw.used, size)

	for remaining := size; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if c.pageSize > 0 && pw.used >= c.pageSize {
			if err := pw.rollover(); err != nil {
				return 0, err
			}
		}

		var room int64
		if c.pageSize > 0 {
			room = c.pageSize - pw.used
		}
		chunk := pw.buffer(sizing.Chunk(c.readSize, room, remaining))
		if _, err := io.ReadFull(f, chunk); err != nil {
			return 0, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
		}
		if err := pw.write(chunk); err != nil {
			return 0, err
		}
		remaining -= int64(len(chunk))
	}
	return size, nil
}

// Revert removes every page file created by Execute. Removal errors are
// logged and otherwise ignored. The created list is cleared afterwards.
func (c *Collator) Revert() {
	for _, path := range c.created {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.log().Debug("failed to remove collated page", "path", path, "error", err)
		}
	}
	c.created = nil
}

// pageWriter owns the page file currently being written.
type pageWriter struct {
	c     *Collator
	f     *os.File
	path  string
	index uint32
	used  int64
	buf   []byte
}

// open creates (or truncates) page index and makes it current.
func (pw *pageWriter) open(index uint32) error {
	path := page.Path(pw.c.basePath, index)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	pw.c.created = append(pw.c.created, path)
	pw.f = f
	pw.path = path
	pw.index = index
	pw.used = 0
	return nil
}

// rollover closes the full current page and opens the next one.
func (pw *pageWriter) rollover() error {
	if err := pw.close(); err != nil {
		return err
	}
	if err := pw.open(pw.index + 1); err != nil {
		return err
	}
	pw.c.log().Debug("opened collated page", "path", pw.path, "page", pw.index)
	pw.c.reportProgress(ProgressEvent{Stage: StageRollover, Path: pw.path, Page: pw.index})
	return nil
}

// buffer returns a scratch slice of length n, growing the buffer as needed.
func (pw *pageWriter) buffer(n int64) []byte {
	if int64(cap(pw.buf)) < n {
		pw.buf = make([]byte, n)
	}
	return pw.buf[:n]
}

func (pw *pageWriter) write(p []byte) error {
	if _, err := pw.f.Write(p); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, pw.path, err)
	}
	pw.used += int64(len(p))
	return nil
}

// close closes the current page file.
func (pw *pageWriter) close() error {
	if pw.f == nil {
		return nil
	}
	err := pw.f.Close()
	pw.f = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, pw.path, err)
	}
	return nil
}

// abort releases the current page file on error paths.
func (pw *pageWriter) abort() {
	if pw.f != nil {
		_ = pw.f.Close()
		pw.f = nil
	}
}
