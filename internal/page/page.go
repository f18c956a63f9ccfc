// Package page names collated page files and tracks a resource's position
// across them.
//
// A resource occupies a logically contiguous span that starts at an offset in
// its first page and continues from offset zero in each following page. The
// functions here are pure: the caller supplies physical page sizes through an
// OpenFunc, which makes the cross-page arithmetic testable without files.
package page

import (
	"errors"
	"path/filepath"
	"strconv"
)

// ErrBeforeFirst is returned when a backward move would leave page zero.
var ErrBeforeFirst = errors.New("page: move before first page")

// Path returns the physical file path of page index for base.
// The decimal index is appended to the final path component: "res.col" -> "res.col.0".
func Path(base string, index uint32) string {
	return filepath.Clean(base) + "." + strconv.FormatUint(uint64(index), 10)
}

// Window is the part of one physical page that belongs to a resource.
type Window struct {
	// Page is the page index.
	Page uint32
	// Start is the physical offset where the resource's data begins in this page.
	Start int64
	// End is the physical size of the page.
	End int64
}

// At computes the window of page for a resource that begins at offset in page
// begin, given the page's physical size. It is the transition applied whenever
// a reader enters a new page.
func At(begin uint32, offset int64, page uint32, physicalSize int64) Window {
	start := int64(0)
	if page == begin {
		start = offset
	}
	if start > physicalSize {
		start = physicalSize
	}
	return Window{Page: page, Start: start, End: physicalSize}
}

// Len returns the number of resource bytes the window can hold.
func (w Window) Len() int64 {
	return w.End - w.Start
}

// OpenFunc enters page n and returns its window.
type OpenFunc func(n uint32) (Window, error)

// Cursor is a physical position inside a window.
type Cursor struct {
	Window
	Pos int64
}

// Ahead returns the bytes between the cursor and the end of its page.
func (c Cursor) Ahead() int64 {
	return c.End - c.Pos
}

// Behind returns the resource bytes between the start of the window and the cursor.
func (c Cursor) Behind() int64 {
	return c.Pos - c.Start
}

// Next enters the page after c and places the cursor at the start of its window.
func Next(c Cursor, open OpenFunc) (Cursor, error) {
	w, err := open(c.Page + 1)
	if err != nil {
		return c, err
	}
	return Cursor{Window: w, Pos: w.Start}, nil
}

// Prev enters the page before c and places the cursor at the end of its window.
func Prev(c Cursor, open OpenFunc) (Cursor, error) {
	if c.Page == 0 {
		return c, ErrBeforeFirst
	}
	w, err := open(c.Page - 1)
	if err != nil {
		return c, err
	}
	return Cursor{Window: w, Pos: w.End}, nil
}

// Forward moves c forward by dist resource bytes, entering later pages as needed.
// Landing exactly on a page boundary leaves the cursor at the end of the earlier page.
func Forward(c Cursor, dist int64, open OpenFunc) (Cursor, error) {
	for dist > c.Ahead() {
		dist -= c.Ahead()
		next, err := Next(c, open)
		if err != nil {
			return c, err
		}
		c = next
	}
	c.Pos += dist
	return c, nil
}

// Backward moves c backward by dist resource bytes, entering earlier pages as needed.
// Landing exactly on a page boundary leaves the cursor at the start of the later page.
func Backward(c Cursor, dist int64, open OpenFunc) (Cursor, error) {
	for dist > c.Behind() {
		dist -= c.Behind()
		prev, err := Prev(c, open)
		if err != nil {
			return c, err
		}
		c = prev
	}
	c.Pos -= dist
	return c, nil
}
