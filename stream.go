package collate

import (
	"fmt"
	"io"
	"os"

	"github.com/meigma/collate/internal/fileio"
	"github.com/meigma/collate/internal/page"
)

// stream is the positional reader behind a Reader. Direct mode uses
// *fileio.FileReader; collated mode uses *collatedStream.
type stream interface {
	Size() (int64, error)
	Tell() (int64, error)
	EOF() (bool, error)
	Seek(index int64) (int64, error)
	Read(p []byte) (int, error)
	Close() error
}

var (
	_ stream = (*fileio.FileReader)(nil)
	_ stream = (*collatedStream)(nil)
)

// collatedStream reads one resource spread over a run of collated pages.
//
// It holds at most one page file open. Positions are tracked twice: pos is
// the logical offset within the resource, cur the physical offset within the
// current page. After a page fails to open the stream holds no page and every
// further read or seek fails until it is reopened.
type collatedStream struct {
	loc ResourceLocation
	f   *os.File
	cur page.Cursor
	pos int64
	eof bool
}

// openCollated opens the first page of loc and positions the stream at the
// start of the resource.
func openCollated(path string, loc ResourceLocation) (*collatedStream, error) {
	if loc.Offset < 0 || loc.Size < 0 {
		return nil, fmt.Errorf("%w: %s has offset %d and size %d", ErrInvalidLocation, path, loc.Offset, loc.Size)
	}
	s := &collatedStream{loc: loc}
	w, err := s.enter(loc.PageIndex)
	if err != nil {
		return nil, err
	}
	s.cur = page.Cursor{Window: w, Pos: w.Start}
	return s, nil
}

// enter releases the current page and opens page n. It is the page.OpenFunc
// used for every page transition.
func (s *collatedStream) enter(n uint32) (page.Window, error) {
	s.release()

	path := page.Path(s.loc.BasePath, n)
	f, err := os.Open(path)
	if err != nil {
		return page.Window{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return page.Window{}, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	s.f = f
	return page.At(s.loc.PageIndex, s.loc.Offset, n, info.Size()), nil
}

// release closes the current page, if any.
func (s *collatedStream) release() {
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
}

// fail drops the current page after a failed transition so that the cursor
// never refers to a page other than the one held open.
func (s *collatedStream) fail(err error) error {
	s.release()
	return err
}

func (s *collatedStream) broken() error {
	return fmt.Errorf("%w: no collated page open for %s", ErrIO, s.loc.BasePath)
}

func (s *collatedStream) Size() (int64, error) {
	return s.loc.Size, nil
}

func (s *collatedStream) Tell() (int64, error) {
	return s.pos, nil
}

func (s *collatedStream) EOF() (bool, error) {
	return s.eof, nil
}

// Seek moves to the logical index, clamped to the resource size, walking
// forward or backward across pages from the current position.
func (s *collatedStream) Seek(index int64) (int64, error) {
	if index < 0 {
		return s.pos, ErrNegativeSeek
	}
	if index > s.loc.Size {
		index = s.loc.Size
	}
	if s.f == nil {
		return s.pos, s.broken()
	}

	var err error
	switch dist := index - s.pos; {
	case dist > 0:
		s.cur, err = page.Forward(s.cur, dist, s.enter)
	case dist < 0:
		s.cur, err = page.Backward(s.cur, -dist, s.enter)
	}
	if err != nil {
		return s.pos, s.fail(err)
	}

	s.pos = index
	s.eof = index >= s.loc.Size
	return index, nil
}

// Read reads up to len(p) bytes of the resource, continuing into following
// pages as each one is exhausted. It returns io.EOF once the whole resource
// has been read.
func (s *collatedStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	want := min(int64(len(p)), s.loc.Size-s.pos)
	if want <= 0 {
		s.eof = true
		return 0, io.EOF
	}
	if s.f == nil {
		return 0, s.broken()
	}

	var done int64
	for done < want {
		if s.cur.Ahead() <= 0 {
			next, err := page.Next(s.cur, s.enter)
			if err != nil {
				s.pos += done
				return int(done), s.fail(err)
			}
			s.cur = next
			continue
		}

		chunk := min(want-done, s.cur.Ahead())
		n, err := s.f.ReadAt(p[done:done+chunk], s.cur.Pos)
		s.cur.Pos += int64(n)
		done += int64(n)
		if int64(n) < chunk {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			s.pos += done
			return int(done), s.fail(fmt.Errorf("%w: read page %d of %s: %w", ErrIO, s.cur.Page, s.loc.BasePath, err))
		}
	}

	s.pos += want
	s.eof = s.pos >= s.loc.Size
	return int(want), nil
}

func (s *collatedStream) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
