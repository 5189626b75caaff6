package utils

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// GoModParser maps source directories to Go import paths using the nearest go.mod
type GoModParser struct {
	fileReader *FileReader

	mu      sync.Mutex
	modules map[string]string // go.mod path -> module path
}

// NewGoModParser creates a new go.mod parser sharing fileReader's cache
func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{
		fileReader: fileReader,
		modules:    make(map[string]string),
	}
}

// ParseModuleName extracts the module name from a go.mod file
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	p.mu.Lock()
	name, ok := p.modules[cleanPath]
	p.mu.Unlock()
	if ok {
		return name, nil
	}

	content, err := p.fileReader.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.Parse(cleanPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", cleanPath)
	}

	name = modFile.Module.Mod.Path
	p.mu.Lock()
	p.modules[cleanPath] = name
	p.mu.Unlock()
	return name, nil
}

// FindGoModFile searches for go.mod starting from startDir and walking up
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if _, err := p.fileReader.ReadFile(goModPath); err == nil {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found above %s", startDir)
}

// ImportPath returns the import path of the package in dir
func (p *GoModParser) ImportPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	goMod, err := p.FindGoModFile(absDir)
	if err != nil {
		return "", err
	}
	module, err := p.ParseModuleName(goMod)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(filepath.Dir(goMod), absDir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return module, nil
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside module %s", dir, module)
	}
	return path.Join(module, filepath.ToSlash(rel)), nil
}
