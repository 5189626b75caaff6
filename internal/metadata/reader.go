package metadata

import (
	stderrors "errors"
	"strings"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/scanner"
	"github.com/toyz/routewire/pkg/annotation"
)

// Reader returns the annotations of a declaration and of its methods
type Reader interface {
	ClassAnnotations(decl *scanner.Declaration) ([]annotation.Annotation, error)
	MethodAnnotations(decl *scanner.Declaration, method string) ([]annotation.Annotation, error)
}

// DeclarationSource is implemented by readers that know their declarations
// without scanning source, such as StaticReader.
type DeclarationSource interface {
	Declarations() []*scanner.Declaration
}

// CommentReader reads annotations from doc comments
type CommentReader struct {
	parser *annotation.Parser
}

// NewCommentReader creates a reader backed by the comment grammar
func NewCommentReader() *CommentReader {
	return &CommentReader{parser: annotation.NewParser()}
}

// ClassAnnotations implements Reader
func (r *CommentReader) ClassAnnotations(decl *scanner.Declaration) ([]annotation.Annotation, error) {
	return r.read(decl.File, decl.Line, decl.Doc)
}

// MethodAnnotations implements Reader
func (r *CommentReader) MethodAnnotations(decl *scanner.Declaration, method string) ([]annotation.Annotation, error) {
	m, ok := decl.Method(method)
	if !ok {
		return nil, nil
	}
	return r.read(decl.MethodFile(m), m.Line, m.Doc)
}

func (r *CommentReader) read(file string, line int, doc []string) ([]annotation.Annotation, error) {
	if len(doc) == 0 {
		return nil, nil
	}

	located, err := r.parser.ParseComment(doc)
	if err != nil {
		loc := errors.SourceLocation{File: file, Line: line}
		if stderrors.Is(err, annotation.ErrSyntax) {
			return nil, errors.SyntaxError(loc, err)
		}
		return nil, errors.Wrap(errors.ValidationErrorCode, "invalid annotation", err).WithLocation(loc)
	}

	out := make([]annotation.Annotation, 0, len(located))
	for _, l := range located {
		out = append(out, l.Annotation)
	}
	return out, nil
}

// StaticReader serves annotations registered in code, keyed by the
// fully-qualified type name.
type StaticReader struct {
	order   []string
	classes map[string][]annotation.Annotation
	methods map[string][]staticMethod
}

type staticMethod struct {
	name        string
	annotations []annotation.Annotation
}

// NewStaticReader creates an empty StaticReader
func NewStaticReader() *StaticReader {
	return &StaticReader{
		classes: make(map[string][]annotation.Annotation),
		methods: make(map[string][]staticMethod),
	}
}

func (r *StaticReader) touch(fqn string) {
	if _, ok := r.classes[fqn]; !ok {
		r.order = append(r.order, fqn)
		r.classes[fqn] = nil
	}
}

// Class adds type-level annotations for fqn
func (r *StaticReader) Class(fqn string, anns ...annotation.Annotation) *StaticReader {
	r.touch(fqn)
	r.classes[fqn] = append(r.classes[fqn], anns...)
	return r
}

// Method adds annotations for a method of fqn. Methods keep the order in
// which they are first added.
func (r *StaticReader) Method(fqn, method string, anns ...annotation.Annotation) *StaticReader {
	r.touch(fqn)
	list := r.methods[fqn]
	for i := range list {
		if list[i].name == method {
			list[i].annotations = append(list[i].annotations, anns...)
			return r
		}
	}
	r.methods[fqn] = append(list, staticMethod{name: method, annotations: anns})
	return r
}

// ClassAnnotations implements Reader
func (r *StaticReader) ClassAnnotations(decl *scanner.Declaration) ([]annotation.Annotation, error) {
	return r.classes[decl.FQN()], nil
}

// MethodAnnotations implements Reader
func (r *StaticReader) MethodAnnotations(decl *scanner.Declaration, method string) ([]annotation.Annotation, error) {
	for _, m := range r.methods[decl.FQN()] {
		if m.name == method {
			return m.annotations, nil
		}
	}
	return nil, nil
}

// Declarations implements DeclarationSource
func (r *StaticReader) Declarations() []*scanner.Declaration {
	out := make([]*scanner.Declaration, 0, len(r.order))
	for _, fqn := range r.order {
		d := &scanner.Declaration{Name: fqn, File: "static:" + fqn}
		if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
			d.ImportPath, d.Name = fqn[:i], fqn[i+1:]
			d.Package = d.ImportPath[strings.LastIndexByte(d.ImportPath, '/')+1:]
		}
		for _, m := range r.methods[fqn] {
			d.Methods = append(d.Methods, scanner.Method{Name: m.name})
		}
		out = append(out, d)
	}
	return out
}
