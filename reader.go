package collate

import (
	"fmt"
	"io"

	"github.com/meigma/collate/internal/fileio"
	"github.com/meigma/collate/internal/sizing"
)

// Reader is a seekable stream over a single resource.
//
// When the resource is indexed by the Reader's Accessor the bytes come from
// its collated pages, crossing page files transparently; otherwise the
// Reader falls back to reading the resource's real path. The mode is chosen
// each time the Reader is opened.
//
// Positions reported by Tell and Seek are relative to the start of the
// resource in both modes. Seeking beyond the end clamps to the end; reaching
// the end, by reading or seeking, sets the end-of-file flag and seeking
// anywhere before it clears the flag.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	path     string
	accessor *Accessor
	s        stream
	collated bool
}

// Interface compliance.
var (
	_ io.ReadSeekCloser = (*Reader)(nil)
)

// NewReader returns a closed Reader for path. A nil accessor always reads
// the real path.
func NewReader(path string, accessor *Accessor) *Reader {
	return &Reader{path: path, accessor: accessor}
}

// OpenReader returns a Reader for path that is already open.
func OpenReader(path string, accessor *Accessor) (*Reader, error) {
	r := NewReader(path, accessor)
	if err := r.Open(); err != nil {
		return nil, err
	}
	return r, nil
}

// ReadResource returns the whole content of a resource.
func ReadResource(path string, accessor *Accessor) ([]byte, error) {
	r, err := OpenReader(path, accessor)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadBytes(-1)
}

// Path returns the resource path.
func (r *Reader) Path() string {
	return r.path
}

// IsOpen reports whether the Reader is open.
func (r *Reader) IsOpen() bool {
	return r.s != nil
}

// Open resolves the resource and positions the Reader at its start.
func (r *Reader) Open() error {
	if r.s != nil {
		return ErrAlreadyOpen
	}

	if r.accessor != nil && r.accessor.HasResource(r.path) {
		loc, err := r.accessor.Resource(r.path)
		if err != nil {
			return err
		}
		s, err := openCollated(r.path, loc)
		if err != nil {
			return err
		}
		r.s, r.collated = s, true
		return nil
	}

	fr := fileio.NewFileReader(r.path)
	if err := fr.Open(); err != nil {
		return err
	}
	r.s, r.collated = fr, false
	return nil
}

// Close releases the open page or file.
func (r *Reader) Close() error {
	if r.s == nil {
		return ErrClosed
	}
	err := r.s.Close()
	r.s = nil
	r.collated = false
	return err
}

// FromCollated reports whether the open Reader is reading collated pages.
func (r *Reader) FromCollated() (bool, error) {
	if r.s == nil {
		return false, ErrClosed
	}
	return r.collated, nil
}

// Size returns the resource size in bytes.
func (r *Reader) Size() (int64, error) {
	if r.s == nil {
		return 0, ErrClosed
	}
	return r.s.Size()
}

// Tell returns the current position within the resource.
func (r *Reader) Tell() (int64, error) {
	if r.s == nil {
		return 0, ErrClosed
	}
	return r.s.Tell()
}

// EOF reports whether the end-of-file flag is set.
func (r *Reader) EOF() (bool, error) {
	if r.s == nil {
		return false, ErrClosed
	}
	return r.s.EOF()
}

// Seek implements io.Seeker. Targets past the end are clamped to the end and
// the clamped position is returned; negative targets return ErrNegativeSeek.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.s == nil {
		return 0, ErrClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		pos, err := r.s.Tell()
		if err != nil {
			return 0, err
		}
		base = pos
	case io.SeekEnd:
		size, err := r.s.Size()
		if err != nil {
			return 0, err
		}
		base = size
	default:
		return 0, fmt.Errorf("collate: invalid whence %d", whence)
	}

	target, ok := sizing.AddInt64(base, offset)
	if !ok {
		return 0, ErrSizeOverflow
	}
	if target < 0 {
		return 0, ErrNegativeSeek
	}
	return r.s.Seek(target)
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.s == nil {
		return 0, ErrClosed
	}
	return r.s.Read(p)
}

// ReadBytes reads exactly length bytes from the current position. A negative
// length reads the rest of the resource, which from a freshly opened Reader is
// the whole resource. Reading past the end returns io.ErrUnexpectedEOF.
func (r *Reader) ReadBytes(length int64) ([]byte, error) {
	if r.s == nil {
		return nil, ErrClosed
	}
	if length < 0 {
		size, err := r.s.Size()
		if err != nil {
			return nil, err
		}
		pos, err := r.s.Tell()
		if err != nil {
			return nil, err
		}
		length = size - pos
	}

	n, err := sizing.ToInt(length, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
