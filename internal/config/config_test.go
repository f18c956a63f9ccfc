package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "resources.toc", cfg.TableOfContents)
	assert.Equal(t, "resources.col", cfg.BasePath)

	page, err := cfg.PageSizeBytes()
	require.NoError(t, err)
	assert.Zero(t, page)

	read, err := cfg.ReadSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, 256<<20, read)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
toc: out/game.toc
base: out/game.col
page_size: 64MiB
read_size: 4KB
concurrency: 3
log_level: debug
log_format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out/game.toc", cfg.TableOfContents)
	assert.Equal(t, "out/game.col", cfg.BasePath)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "json", cfg.LogFormat)

	page, err := cfg.PageSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(64<<20), page)

	read, err := cfg.ReadSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, 4000, read)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("COLLATE_PAGE_SIZE", "1MiB")
	t.Setenv("COLLATE_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "page_size: 2MiB\n"))
	require.NoError(t, err)

	page, err := cfg.PageSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), page)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "page size", body: "page_size: lots\n"},
		{name: "zero read size", body: "read_size: 0\n"},
		{name: "log level", body: "log_level: loud\n"},
		{name: "log format", body: "log_format: xml\n"},
		{name: "concurrency", body: "concurrency: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
