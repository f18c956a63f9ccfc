// Package fileio provides the single-file sequential reader used when a
// resource is read directly from its real path.
package fileio

import (
	"fmt"
	"io"
	"os"
)

// FileReader is a seekable reader over one OS file with explicit open/close
// states and an end-of-file flag.
//
// The end-of-file flag is set when a read reaches the end of the file or a seek
// targets the end, and cleared by any seek to an earlier position.
type FileReader struct {
	path string
	f    *os.File
	size int64
	pos  int64
	eof  bool
}

// NewFileReader returns a closed reader for path.
func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

// Path returns the file path.
func (r *FileReader) Path() string {
	return r.path
}

// IsOpen reports whether the reader is open.
func (r *FileReader) IsOpen() bool {
	return r.f != nil
}

// Open opens the file and positions the reader at its start.
func (r *FileReader) Open() error {
	if r.f != nil {
		return ErrAlreadyOpen
	}
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: stat %s: %w", ErrIO, r.path, err)
	}
	r.f = f
	r.size = info.Size()
	r.pos = 0
	r.eof = false
	return nil
}

// Close releases the file handle.
func (r *FileReader) Close() error {
	if r.f == nil {
		return ErrClosed
	}
	err := r.f.Close()
	r.f = nil
	r.pos = 0
	r.eof = false
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Size returns the file size observed when the reader was opened.
func (r *FileReader) Size() (int64, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	return r.size, nil
}

// Tell returns the current read position.
func (r *FileReader) Tell() (int64, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	return r.pos, nil
}

// EOF reports whether the end-of-file flag is set.
func (r *FileReader) EOF() (bool, error) {
	if r.f == nil {
		return false, ErrClosed
	}
	return r.eof, nil
}

// Seek moves the read position to index, clamping it to the file size.
func (r *FileReader) Seek(index int64) (int64, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if index < 0 {
		return r.pos, ErrNegativeSeek
	}
	if index >= r.size {
		index = r.size
	}
	r.pos = index
	r.eof = index >= r.size
	return index, nil
}

// Read reads up to len(p) bytes from the current position.
// It returns io.EOF once the position has reached the end of the file.
func (r *FileReader) Read(p []byte) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := min(int64(len(p)), r.size-r.pos)
	if n <= 0 {
		r.eof = true
		return 0, io.EOF
	}
	got, err := r.f.ReadAt(p[:n], r.pos)
	r.pos += int64(got)
	if int64(got) < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return got, fmt.Errorf("%w: read %s: %w", ErrIO, r.path, err)
	}
	r.eof = r.pos >= r.size
	return got, nil
}
