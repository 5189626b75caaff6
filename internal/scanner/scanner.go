// Package scanner finds struct declarations and their doc comments in Go
// source trees. It never loads or type-checks packages; everything is read
// from the syntax tree.
package scanner

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/resolver"
	"github.com/toyz/routewire/internal/utils"
)

// Method is an exported method declared on a scanned type
type Method struct {
	Name string
	Doc  []string
	File string // may differ from the type's file
	Line int    // line of the first doc line, 0 when undocumented
}

// Declaration is a non-generic struct type and its exported methods
type Declaration struct {
	Name       string
	ImportPath string
	Package    string
	File       string
	Line       int // line of the first doc line, or of the type name
	Doc        []string
	Methods    []Method
}

// FQN returns the fully-qualified name, matching reflect's PkgPath()+"."+Name()
func (d *Declaration) FQN() string {
	return resolver.FQN(d.ImportPath, d.Name)
}

// MethodFile returns the file m is declared in, falling back to the type's
// file for methods that were not scanned from source.
func (d *Declaration) MethodFile(m Method) string {
	if m.File != "" {
		return m.File
	}
	return d.File
}

// Method returns the named method
func (d *Declaration) Method(name string) (Method, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Scanner walks source roots
type Scanner struct {
	reader  *utils.FileReader
	modules *utils.GoModParser
	diag    *utils.DiagnosticSystem
}

// New creates a scanner reporting skipped files through diag
func New(diag *utils.DiagnosticSystem) *Scanner {
	if diag == nil {
		diag = utils.NewQuietDiagnostics()
	}
	reader := utils.NewFileReader()
	return &Scanner{
		reader:  reader,
		modules: utils.NewGoModParser(reader),
		diag:    diag,
	}
}

// Scan returns every declaration under roots in a stable order: roots as
// given, directories and files sorted, declarations in source order. A root
// may carry the "/..." suffix; scanning is always recursive.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]*Declaration, error) {
	seen := make(map[string]bool)
	var out []*Declaration

	for _, root := range roots {
		dir := strings.TrimSuffix(filepath.ToSlash(root), "/...")
		if dir == "" {
			dir = "."
		}
		dir = filepath.FromSlash(dir)

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, errors.ConfigurationError("paths", fmt.Sprintf("'%s' is not a directory", root))
		}

		files, err := utils.WalkFiles(dir, utils.FileWalkOptions{
			FileFilter:      utils.DefaultGoFileFilter(),
			DirectoryFilter: utils.DefaultDirectoryFilter(),
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("walk", dir, err)
		}

		for _, pkgFiles := range groupByDir(files) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			decls, err := s.scanPackage(pkgFiles)
			if err != nil {
				return nil, err
			}
			for _, d := range decls {
				if fqn := d.FQN(); !seen[fqn] {
					seen[fqn] = true
					out = append(out, d)
				}
			}
		}
	}

	return out, nil
}

// groupByDir splits a sorted file list into per-directory lists
func groupByDir(files []string) [][]string {
	byDir := make(map[string][]string)
	var dirs []string
	for _, f := range files {
		d := filepath.Dir(f)
		if _, ok := byDir[d]; !ok {
			dirs = append(dirs, d)
		}
		byDir[d] = append(byDir[d], f)
	}
	sort.Strings(dirs)

	out := make([][]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, byDir[d])
	}
	return out
}

// scanPackage collects declarations from the files of one directory
func (s *Scanner) scanPackage(files []string) ([]*Declaration, error) {
	var (
		decls   []*Declaration
		byName  = make(map[string]*Declaration)
		methods = make(map[string][]Method)
		pkgName string
	)

	for _, path := range files {
		file, err := s.reader.ParseGoFile(path)
		if err != nil {
			s.diag.Warn("skipping %s: %v", path, err)
			continue
		}
		if pkgName == "" {
			pkgName = file.Name.Name
		} else if file.Name.Name != pkgName {
			s.diag.Warn("skipping %s: package %s differs from %s", path, file.Name.Name, pkgName)
			continue
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				for _, t := range s.structTypes(path, d) {
					if _, dup := byName[t.Name]; !dup {
						byName[t.Name] = t
						decls = append(decls, t)
					}
				}
			case *ast.FuncDecl:
				recv, ok := receiverName(d)
				if !ok || !d.Name.IsExported() {
					continue
				}
				m := Method{Name: d.Name.Name, File: path}
				m.Doc, m.Line = s.docLines(d.Doc)
				methods[recv] = append(methods[recv], m)
			}
		}
	}

	if len(decls) == 0 {
		return nil, nil
	}

	importPath, err := s.importPath(filepath.Dir(files[0]), pkgName)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		d.ImportPath = importPath
		d.Package = pkgName
		d.Methods = methods[d.Name]
	}
	return decls, nil
}

func (s *Scanner) importPath(dir, pkgName string) (string, error) {
	if pkgName == "main" {
		return "main", nil
	}
	importPath, err := s.modules.ImportPath(dir)
	if err != nil {
		s.diag.Warn("%s: %v; using package name %s", dir, err, pkgName)
		return pkgName, nil
	}
	return importPath, nil
}

// structTypes returns the non-generic struct types of a type declaration
func (s *Scanner) structTypes(path string, gd *ast.GenDecl) []*Declaration {
	if gd.Tok != token.TYPE {
		return nil
	}

	var out []*Declaration
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || ts.TypeParams != nil || ts.Assign.IsValid() {
			continue
		}
		if _, ok := ts.Type.(*ast.StructType); !ok {
			continue
		}

		doc := ts.Doc
		if doc == nil && len(gd.Specs) == 1 {
			doc = gd.Doc
		}
		d := &Declaration{Name: ts.Name.Name, File: path}
		d.Doc, d.Line = s.docLines(doc)
		if d.Line == 0 {
			d.Line = s.reader.Position(ts.Name.Pos()).Line
		}
		out = append(out, d)
	}
	return out
}

// docLines returns the raw comment lines, markers included, and the line the
// group starts on.
func (s *Scanner) docLines(cg *ast.CommentGroup) ([]string, int) {
	if cg == nil {
		return nil, 0
	}
	var lines []string
	for _, c := range cg.List {
		lines = append(lines, strings.Split(c.Text, "\n")...)
	}
	return lines, s.reader.Position(cg.Pos()).Line
}

// receiverName returns T for methods declared on T or *T
func receiverName(fd *ast.FuncDecl) (string, bool) {
	if fd.Recv == nil || len(fd.Recv.List) != 1 {
		return "", false
	}
	expr := fd.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	ident, ok := expr.(*ast.Ident)
	if !ok {
		return "", false
	}
	return ident.Name, true
}
