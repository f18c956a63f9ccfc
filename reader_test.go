package collate

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/collate/internal/testutil"
)

// collatedFixture packs the four-resource fixture with 200-byte pages and
// returns an Accessor over it together with the resource paths and contents.
func collatedFixture(t *testing.T) (*Accessor, []string, [][]byte) {
	t.Helper()

	files := abcdFiles()
	paths, toc, _ := packFixture(t, t.TempDir(), 200, files)
	acc, err := NewAccessor(toc.Path())
	require.NoError(t, err)

	data := make([][]byte, len(files))
	for i, f := range files {
		data[i] = f.Data
	}
	return acc, paths, data
}

func TestReader_RoundTrip(t *testing.T) {
	t.Parallel()

	acc, paths, data := collatedFixture(t)
	for i, p := range paths {
		r, err := OpenReader(p, acc)
		require.NoError(t, err)

		collated, err := r.FromCollated()
		require.NoError(t, err)
		assert.True(t, collated)

		size, err := r.Size()
		require.NoError(t, err)
		assert.Equal(t, int64(len(data[i])), size)

		got, err := r.ReadBytes(-1)
		require.NoError(t, err)
		assert.Equal(t, data[i], got, "resource %s", p)

		eof, err := r.EOF()
		require.NoError(t, err)
		assert.True(t, eof)
		require.NoError(t, r.Close())
	}
}

func TestReader_SeekTellEveryPosition(t *testing.T) {
	t.Parallel()

	acc, paths, data := collatedFixture(t)
	// d.txt spans pages 1 through 3.
	r, err := OpenReader(paths[3], acc)
	require.NoError(t, err)
	defer r.Close()

	want := data[3]
	for i := range int64(len(want)) {
		pos, err := r.Seek(i, io.SeekStart)
		require.NoError(t, err)
		require.Equal(t, i, pos)

		tell, err := r.Tell()
		require.NoError(t, err)
		require.Equal(t, i, tell)

		eof, err := r.EOF()
		require.NoError(t, err)
		require.False(t, eof)

		b, err := r.ReadBytes(1)
		require.NoError(t, err)
		require.Equal(t, want[i], b[0], "byte %d", i)
	}

	// Walk backward through the page boundaries.
	for i := int64(len(want)) - 1; i >= 0; i -= 13 {
		_, err := r.Seek(i, io.SeekStart)
		require.NoError(t, err)
		got, err := r.ReadBytes(-1)
		require.NoError(t, err)
		require.Equal(t, want[i:], got, "tail from %d", i)
	}
}

func TestReader_ChunkedReadsMatch(t *testing.T) {
	t.Parallel()

	acc, paths, data := collatedFixture(t)
	for _, chunk := range []int64{1, 7, 54, 146, 200, 439} {
		for i, p := range paths {
			r, err := OpenReader(p, acc)
			require.NoError(t, err)

			var got []byte
			for {
				pos, err := r.Tell()
				require.NoError(t, err)
				n := min(chunk, int64(len(data[i]))-pos)
				if n == 0 {
					break
				}
				b, err := r.ReadBytes(n)
				require.NoError(t, err)
				got = append(got, b...)
			}
			assert.Equal(t, data[i], got, "resource %d with chunk %d", i, chunk)
			require.NoError(t, r.Close())
		}
	}
}

func TestReader_EOF(t *testing.T) {
	t.Parallel()

	acc, paths, data := collatedFixture(t)
	r, err := OpenReader(paths[2], acc)
	require.NoError(t, err)
	defer r.Close()
	size := int64(len(data[2]))

	eof, err := r.EOF()
	require.NoError(t, err)
	assert.False(t, eof)

	// Seeking to the end sets the flag.
	pos, err := r.Seek(size, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, size, pos)
	eof, _ = r.EOF()
	assert.True(t, eof)

	// Seeking before the end clears it.
	_, err = r.Seek(size-1, io.SeekStart)
	require.NoError(t, err)
	eof, _ = r.EOF()
	assert.False(t, eof)

	// Past-end seeks clamp.
	pos, err = r.Seek(size+1000, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, size, pos)
	eof, _ = r.EOF()
	assert.True(t, eof)

	n, err := r.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	// Reading more than remains fails without passing the end.
	_, err = r.Seek(size-2, io.SeekStart)
	require.NoError(t, err)
	_, err = r.ReadBytes(5)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	tell, _ := r.Tell()
	assert.Equal(t, size, tell)
}

func TestReader_SeekWhence(t *testing.T) {
	t.Parallel()

	acc, paths, data := collatedFixture(t)
	r, err := OpenReader(paths[3], acc)
	require.NoError(t, err)
	defer r.Close()
	size := int64(len(data[3]))

	tests := []struct {
		name    string
		offset  int64
		whence  int
		want    int64
		wantErr error
	}{
		{name: "start", offset: 100, whence: io.SeekStart, want: 100},
		{name: "current forward", offset: 150, whence: io.SeekCurrent, want: 250},
		{name: "current backward", offset: -200, whence: io.SeekCurrent, want: 50},
		{name: "end", offset: -10, whence: io.SeekEnd, want: size - 10},
		{name: "end clamps", offset: 10, whence: io.SeekEnd, want: size},
		{name: "negative", offset: -1, whence: io.SeekStart, wantErr: ErrNegativeSeek},
		{name: "negative from end", offset: -size - 1, whence: io.SeekEnd, wantErr: ErrNegativeSeek},
	}

	// Cases run in order: SeekCurrent depends on the previous position.
	for _, tt := range tests {
		pos, err := r.Seek(tt.offset, tt.whence)
		if tt.wantErr != nil {
			require.ErrorIs(t, err, tt.wantErr, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, pos, tt.name)
		if pos < size {
			b, err := r.ReadBytes(1)
			require.NoError(t, err)
			assert.Equal(t, data[3][pos], b[0], tt.name)
			_, err = r.Seek(-1, io.SeekCurrent)
			require.NoError(t, err)
		}
	}

	_, err = r.Seek(0, 42)
	assert.Error(t, err)
}

func TestReader_DirectMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := testutil.Pattern(333, 9)
	paths := testutil.WriteFiles(t, dir, []testutil.TestFile{{Name: "loose.bin", Data: want}})

	acc, _, _ := collatedFixture(t)
	for _, a := range []*Accessor{nil, acc} {
		r, err := OpenReader(paths[0], a)
		require.NoError(t, err)

		collated, err := r.FromCollated()
		require.NoError(t, err)
		assert.False(t, collated)

		_, err = r.Seek(300, io.SeekStart)
		require.NoError(t, err)
		got, err := r.ReadBytes(-1)
		require.NoError(t, err)
		assert.Equal(t, want[300:], got)

		eof, err := r.EOF()
		require.NoError(t, err)
		assert.True(t, eof)
		require.NoError(t, r.Close())
	}
}

func TestReader_States(t *testing.T) {
	t.Parallel()

	acc, paths, _ := collatedFixture(t)
	r := NewReader(paths[0], acc)
	assert.Equal(t, paths[0], r.Path())
	assert.False(t, r.IsOpen())

	_, err := r.Size()
	require.ErrorIs(t, err, ErrClosed)
	_, err = r.Tell()
	require.ErrorIs(t, err, ErrClosed)
	_, err = r.EOF()
	require.ErrorIs(t, err, ErrClosed)
	_, err = r.FromCollated()
	require.ErrorIs(t, err, ErrClosed)
	_, err = r.Seek(0, io.SeekStart)
	require.ErrorIs(t, err, ErrClosed)
	_, err = r.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
	_, err = r.ReadBytes(1)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, r.Close(), ErrClosed)

	require.NoError(t, r.Open())
	assert.True(t, r.IsOpen())
	require.ErrorIs(t, r.Open(), ErrAlreadyOpen)
	require.NoError(t, r.Close())

	// A closed Reader can be reopened and starts over.
	require.NoError(t, r.Open())
	tell, err := r.Tell()
	require.NoError(t, err)
	assert.Zero(t, tell)
	require.NoError(t, r.Close())
}

func TestReader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := OpenReader(filepath.Join(t.TempDir(), "missing"), nil)
	require.ErrorIs(t, err, ErrIO)
}

func TestReader_MissingPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, toc, _ := packFixture(t, dir, 200, abcdFiles())
	require.NoError(t, os.Remove(testutil.PagePath(filepath.Join(dir, "res.col"), 2)))

	acc, err := NewAccessor(toc.Path())
	require.NoError(t, err)
	r, err := OpenReader(paths[3], acc)
	require.NoError(t, err)
	defer r.Close()

	// The first 146 bytes live on page 1.
	_, err = r.ReadBytes(146)
	require.NoError(t, err)
	_, err = r.ReadBytes(1)
	require.ErrorIs(t, err, ErrIO)

	// The stream holds no page until it is reopened.
	_, err = r.Seek(0, io.SeekStart)
	require.ErrorIs(t, err, ErrIO)

	require.NoError(t, r.Close())
	require.NoError(t, r.Open())
	b, err := r.ReadBytes(10)
	require.NoError(t, err)
	assert.Len(t, b, 10)
}

func TestReader_MissingFirstPage(t *testing.T) {
	t.Parallel()

	acc, err := NewAccessorFromReader("mem.toc", strings.NewReader("a.txt,"+filepath.ToSlash(filepath.Join(t.TempDir(), "gone.col"))+",0,0,10\n"))
	require.NoError(t, err)
	_, err = OpenReader("a.txt", acc)
	require.ErrorIs(t, err, ErrIO)
}

func TestReader_InvalidLocation(t *testing.T) {
	t.Parallel()

	acc, err := NewAccessorFromReader("mem.toc", strings.NewReader("a.txt,res.col,0,-5,10\n"))
	require.NoError(t, err)
	_, err = OpenReader("a.txt", acc)
	require.ErrorIs(t, err, ErrInvalidLocation)
}

func TestReadResource(t *testing.T) {
	t.Parallel()

	acc, paths, data := collatedFixture(t)
	for i, p := range paths {
		got, err := ReadResource(p, acc)
		require.NoError(t, err)
		assert.Equal(t, data[i], got)
	}

	got, err := io.ReadAll(openTestReader(t, paths[1], acc))
	require.NoError(t, err)
	assert.Equal(t, data[1], got)
}

// openTestReader opens a Reader and registers its cleanup.
func openTestReader(t *testing.T, path string, acc *Accessor) *Reader {
	t.Helper()
	r, err := OpenReader(path, acc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}
