package routewire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/routewire/internal/errors"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routewire.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths = ["internal/controller/...", "/abs/ctl"]
cache_directory = "var/cache"
debug = true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "internal/controller/..."), "/abs/ctl"}, cfg.Paths)
	assert.Equal(t, filepath.Join(dir, "var/cache"), cfg.CacheDirectory)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown key", content: "paths = [\"a\"]\ncache_dir = \"x\"\n", want: "unknown keys: cache_dir"},
		{name: "wrong type", content: "paths = \"a\"\n", want: "failed to load configuration"},
		{name: "syntax", content: "paths = [\n", want: "failed to load configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "routewire.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Paths: []string{" "}}.Validate())
	assert.NoError(t, Config{Paths: []string{"."}}.Validate())
	assert.NoError(t, Config{}.validate(false))
}
