package collate

import (
	"errors"

	"github.com/meigma/collate/internal/fileio"
)

// Sentinel errors re-exported from internal/fileio.
var (
	// ErrIO marks failures to open, read or write a physical file: a table of
	// contents, a collated page or a resource's source file.
	ErrIO = fileio.ErrIO

	// ErrAlreadyOpen is returned by Reader.Open on an open reader.
	ErrAlreadyOpen = fileio.ErrAlreadyOpen

	// ErrClosed is returned when a closed Reader is queried or closed again.
	ErrClosed = fileio.ErrClosed

	// ErrNegativeSeek is returned when a seek targets a position before the start.
	ErrNegativeSeek = fileio.ErrNegativeSeek
)

// Sentinel errors specific to the collate package.
var (
	// ErrInvalidConfig is returned when a component is constructed with invalid arguments.
	ErrInvalidConfig = errors.New("collate: invalid configuration")

	// ErrNotFound is returned when a resource is not present in an Accessor.
	ErrNotFound = errors.New("collate: resource not found")

	// ErrAlreadyExecuted is returned when Collator.Execute is called a second time.
	ErrAlreadyExecuted = errors.New("collate: collator already executed")

	// ErrInvalidLocation is returned when an indexed location cannot describe real data,
	// such as a negative offset or size.
	ErrInvalidLocation = errors.New("collate: invalid resource location")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("collate: size overflow")
)
