package collate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUnix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"simple", "foo", "foo"},
		{"nested", filepath.Join("tests", "data", "file_1.txt"), "tests/data/file_1.txt"},
		{"redundant separators", "a//b/./c", "a/b/c"},
		{"trailing slash", "a/b/", "a/b"},
		{"absolute", "/tmp/res.col", "/tmp/res.col"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToUnix(tt.input))
		})
	}
}

func TestFromUnixRoundTrip(t *testing.T) {
	native := filepath.Join("tests", "output", "read_test.arccol")
	assert.Equal(t, native, FromUnix(ToUnix(native)))
}

func TestComponents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"dot", ".", nil},
		{"single", "a", []string{"a"}},
		{"nested", "a/b/c", []string{"a", "b", "c"}},
		{"double slashes", "a//b", []string{"a", "b"}},
		{"trailing slash", "a/b/", []string{"a", "b"}},
		{"absolute", "/tmp/a", []string{"/", "tmp", "a"}},
		{"root", "/", []string{"/"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Components(tt.input))
		})
	}
}
