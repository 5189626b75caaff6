package utils

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
)

// FileReader reads and parses Go files, caching results until a file changes
type FileReader struct {
	fileSet  *token.FileSet
	asts     *FileCache[*ast.File]
	contents *FileCache[[]byte]
}

// NewFileReader creates a new FileReader instance with caching
func NewFileReader() *FileReader {
	return &FileReader{
		fileSet:  token.NewFileSet(),
		asts:     NewFileCache[*ast.File](),
		contents: NewFileCache[[]byte](),
	}
}

// ParseGoFile parses a Go source file, comments included
func (fr *FileReader) ParseGoFile(filePath string) (*ast.File, error) {
	cleanPath := filepath.Clean(filePath)
	if cached, ok := fr.asts.Get(cleanPath); ok {
		return cached, nil
	}

	file, err := parser.ParseFile(fr.fileSet, cleanPath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go file %s: %w", filepath.Base(cleanPath), err)
	}
	fr.asts.Set(cleanPath, file)
	return file, nil
}

// ReadFile reads a file's contents
func (fr *FileReader) ReadFile(filePath string) ([]byte, error) {
	cleanPath := filepath.Clean(filePath)
	if cached, ok := fr.contents.Get(cleanPath); ok {
		return cached, nil
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
	}
	fr.contents.Set(cleanPath, content)
	return content, nil
}

// FileSet returns the token.FileSet positions are recorded in
func (fr *FileReader) FileSet() *token.FileSet {
	return fr.fileSet
}

// Position resolves a token position
func (fr *FileReader) Position(pos token.Pos) token.Position {
	return fr.fileSet.Position(pos)
}
