package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	line := Append(nil, Record{
		ResourcePath: "tests/data/file_1.txt",
		BasePath:     "tests/output/write_test.arccol",
		PageIndex:    0,
		Offset:       115,
		Size:         64,
	})
	assert.Equal(t, "tests/data/file_1.txt,tests/output/write_test.arccol,0,115,64\n", string(line))
}

func TestParse(t *testing.T) {
	rec, err := Parse("a/b.txt,out/res.arccol,3,54,440")
	require.NoError(t, err)
	assert.Equal(t, Record{
		ResourcePath: "a/b.txt",
		BasePath:     "out/res.arccol",
		PageIndex:    3,
		Offset:       54,
		Size:         440,
	}, rec)
}

func TestParseRoundTrip(t *testing.T) {
	want := Record{ResourcePath: "/abs/path", BasePath: "/abs/base.col", PageIndex: 12, Offset: -1, Size: 0}
	line := strings.TrimSuffix(string(Append(nil, want)), "\n")
	got, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"missing field", "a,b,0,0", ErrFieldCount},
		{"extra field", "a,b,0,0,1,2", ErrFieldCount},
		{"negative page", "a,b,-1,0,1", ErrPageIndex},
		{"text page", "a,b,x,0,1", ErrPageIndex},
		{"text offset", "a,b,0,abc,1", ErrOffset},
		{"empty offset", "a,b,0,,1", ErrOffset},
		{"text size", "a,b,0,0,1.5", ErrSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestScanLongLine(t *testing.T) {
	long := strings.Repeat("z", 2<<20)
	input := "a,b,0,0,1\n" + long + "\nc,b,0,1,1\n"
	var got []Line
	err := Scan(strings.NewReader(input), func(l Line) error {
		got = append(got, l)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Line{Number: 1, Text: "a,b,0,0,1"}, got[0])
	assert.Len(t, got[1].Text, len(long))
	assert.Equal(t, Line{Number: 3, Text: "c,b,0,1,1"}, got[2])
}

func TestScanStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Scan(strings.NewReader("one\ntwo\nthree\n"), func(Line) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestScanSkipsBlankLines(t *testing.T) {
	input := "first\n\nsecond\r\n\n\nthird"
	var got []Line
	err := Scan(strings.NewReader(input), func(l Line) error {
		got = append(got, l)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Number: 1, Text: "first"},
		{Number: 3, Text: "second"},
		{Number: 6, Text: "third"},
	}, got)
}
