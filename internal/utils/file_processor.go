package utils

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info fs.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info fs.DirEntry) bool

// FileWalkOptions configures file walking behavior
type FileWalkOptions struct {
	FileFilter      FileFilter
	DirectoryFilter DirectoryFilter
	SkipErrors      bool
}

// DefaultGoFileFilter filters for .go files, excluding tests
func DefaultGoFileFilter() FileFilter {
	return func(path string, info fs.DirEntry) bool {
		if info.IsDir() {
			return false
		}
		name := info.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}
}

// DefaultDirectoryFilter skips common directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		".git":         true,
		"testdata":     true,
		"build":        true,
		"dist":         true,
		"target":       true,
	}

	return func(path string, info fs.DirEntry) bool {
		if !info.IsDir() {
			return true
		}
		name := info.Name()
		// Skip hidden directories
		if strings.HasPrefix(name, ".") && name != "." && name != ".." {
			return false
		}
		if strings.HasPrefix(name, "_") {
			return false
		}
		return !skipDirs[name]
	}
}

// WalkFiles walks through files in a directory tree with filtering. The root
// itself is never filtered out. Results are sorted.
func WalkFiles(rootDir string, options FileWalkOptions) ([]string, error) {
	var matchedFiles []string

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if options.SkipErrors {
				return nil
			}
			return err
		}

		if d.IsDir() {
			if path != rootDir && options.DirectoryFilter != nil && !options.DirectoryFilter(path, d) {
				return filepath.SkipDir
			}
			return nil
		}

		if options.FileFilter == nil || options.FileFilter(path, d) {
			matchedFiles = append(matchedFiles, path)
		}
		return nil
	})

	sort.Strings(matchedFiles)
	return matchedFiles, err
}
