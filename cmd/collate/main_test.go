package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/collate/internal/testutil"
)

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, []testutil.TestFile{
		{Name: "b.txt", Data: []byte("bb")},
		{Name: "sub/a.txt", Data: []byte("a")},
		{Name: "sub/deeper/c.txt", Data: []byte("ccc")},
	})

	files, total, err := expandInputs([]string{
		filepath.Join(dir, "sub"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "a.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "a.txt"),
		filepath.Join(dir, "sub", "deeper", "c.txt"),
	}, files)
	assert.Equal(t, int64(2+1+3), total)

	_, _, err = expandInputs([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	files := []testutil.TestFile{
		{Name: "res/a.txt", Data: testutil.Pattern(115, 'a')},
		{Name: "res/b.txt", Data: testutil.Pattern(64, 'b')},
		{Name: "res/sub/d.txt", Data: testutil.Pattern(440, 'd')},
	}
	paths := testutil.WriteFiles(t, dir, files)

	cfgPath := filepath.Join(dir, "collate.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"toc: "+filepath.ToSlash(filepath.Join(dir, "res.toc"))+"\n"+
			"base: "+filepath.ToSlash(filepath.Join(dir, "res.col"))+"\n"+
			"log_level: error\n"), 0o644))
	common := []string{"--config", cfgPath, "--no-progress"}

	out, err := run(t, append([]string{"pack", "--page-size", "200B", filepath.Join(dir, "res")}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "packed 3 resources")
	assert.Len(t, testutil.ReadPages(t, filepath.Join(dir, "res.col")), 4)

	out, err = run(t, append([]string{"list", filepath.Join(dir, "res")}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, paths[0]+"\n"+paths[1]+"\n", out)

	out, err = run(t, append([]string{"list", "--recursive", filepath.Join(dir, "res")}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, paths[0]+"\n"+paths[1]+"\n"+paths[2]+"\n", out)

	out, err = run(t, append([]string{"cat", "--offset", "100", "--length", "200", paths[2]}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, string(files[2].Data[100:300]), out)

	out, err = run(t, append([]string{"verify"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "3 resources checked, 0 failed")

	require.NoError(t, os.WriteFile(paths[1], []byte("changed"), 0o644))
	out, err = run(t, append([]string{"verify"}, common...)...)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL")
}
