// Package ledger encodes and decodes table-of-contents records.
//
// A ledger is UTF-8 text with one record per line and no header:
//
//	<resource_path>,<base_path>,<page_index>,<offset>,<size>
//
// Both paths are in slash form. The page index is an unsigned decimal integer;
// offset and size are signed decimal integers.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FieldCount is the number of comma-separated fields in a record.
const FieldCount = 5

// Errors describing why a line could not be decoded.
var (
	ErrFieldCount = errors.New("wrong number of fields")
	ErrPageIndex  = errors.New("page index is not a valid unsigned integer")
	ErrOffset     = errors.New("offset is not a valid integer")
	ErrSize       = errors.New("size is not a valid integer")
)

// Record is one decoded ledger line.
type Record struct {
	ResourcePath string
	BasePath     string
	PageIndex    uint32
	Offset       int64
	Size         int64
}

// Append appends the encoded form of rec, including the trailing newline, to dst.
func Append(dst []byte, rec Record) []byte {
	dst = append(dst, rec.ResourcePath...)
	dst = append(dst, ',')
	dst = append(dst, rec.BasePath...)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(rec.PageIndex), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, rec.Offset, 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, rec.Size, 10)
	return append(dst, '\n')
}

// Parse decodes a single line without its newline.
func Parse(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != FieldCount {
		return Record{}, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), FieldCount)
	}

	page, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrPageIndex, fields[2])
	}
	offset, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrOffset, fields[3])
	}
	size, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrSize, fields[4])
	}

	return Record{
		ResourcePath: fields[0],
		BasePath:     fields[1],
		PageIndex:    uint32(page),
		Offset:       offset,
		Size:         size,
	}, nil
}

// Line is a raw ledger line together with its 1-based line number.
type Line struct {
	Number int
	Text   string
}

// Scan reads r line by line and calls fn for every non-blank line. Lines have
// no length limit, so a corrupt stretch reaches fn as one malformed line.
// Scanning stops at the first error returned by fn or by the underlying reader.
func Scan(r io.Reader, fn func(Line) error) error {
	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		text, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
		if text != "" {
			if ferr := fn(Line{Number: n, Text: text}); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			return nil
		}
	}
}
