package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0o644))
	}
}

func TestWalkFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"b.go",
		"a.go",
		"a_test.go",
		"README.md",
		"sub/c.go",
		"vendor/v.go",
		"testdata/d.go",
		".hidden/h.go",
		"_skip/s.go",
		"node_modules/n.go",
	)

	files, err := WalkFiles(root, FileWalkOptions{
		FileFilter:      DefaultGoFileFilter(),
		DirectoryFilter: DefaultDirectoryFilter(),
	})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"a.go", "b.go", "sub/c.go"}, rel)
}

func TestWalkFiles_RootIsNeverFiltered(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vendor")
	touch(t, root, "v.go")

	files, err := WalkFiles(root, FileWalkOptions{
		FileFilter:      DefaultGoFileFilter(),
		DirectoryFilter: DefaultDirectoryFilter(),
	})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestWalkFiles_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := WalkFiles(missing, FileWalkOptions{})
	assert.Error(t, err)

	files, err := WalkFiles(missing, FileWalkOptions{SkipErrors: true})
	assert.NoError(t, err)
	assert.Empty(t, files)
}
