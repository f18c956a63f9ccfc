package fileio

import "errors"

// Sentinel errors shared by the sequential readers.
var (
	// ErrIO marks failures to open, read or write a physical file.
	ErrIO = errors.New("collate: i/o error")

	// ErrAlreadyOpen is returned when opening a reader that is already open.
	ErrAlreadyOpen = errors.New("collate: reader already open")

	// ErrClosed is returned when using or closing a reader that is not open.
	ErrClosed = errors.New("collate: reader closed")

	// ErrNegativeSeek is returned when a seek targets a position before the start.
	ErrNegativeSeek = errors.New("collate: negative seek position")
)
