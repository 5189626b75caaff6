package annotation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrSyntax wraps every grammar failure
var ErrSyntax = errors.New("annotation syntax error")

// ErrPlacement is returned for annotations used where they are not allowed
var ErrPlacement = errors.New("annotation not allowed here")

// annotationNode represents `@Name(args...)`
type annotationNode struct {
	Pos  lexer.Position
	Name string     `parser:"'@' @Ident"`
	Args []*argNode `parser:"( '(' ( @@ ( ',' @@ )* ','? )? ')' )?"`
}

// argNode is a keyed or positional argument
type argNode struct {
	Key   *string    `parser:"( @Ident '=' )?"`
	Value *valueNode `parser:"@@"`
}

// valueNode is any argument value
type valueNode struct {
	Annotation *annotationNode `parser:"  @@"`
	String     *text           `parser:"| @String"`
	Number     *float64        `parser:"| @Number"`
	Bool       *boolean        `parser:"| @('true' | 'false')"`
	Null       bool            `parser:"| @'null'"`
	Collection *collectionNode `parser:"| @@"`
}

// collectionNode is a `{...}` list or map
type collectionNode struct {
	Entries []*entryNode `parser:"'{' ( @@ ( ',' @@ )* ','? )? '}'"`
}

// entryNode is one collection element, keyed for maps
type entryNode struct {
	Key   *text      `parser:"( @(String | Ident) ( '=' | ':' ) )?"`
	Value *valueNode `parser:"@@"`
}

// text unquotes double-quoted strings. Only \" is an escape, every other
// backslash is kept so regular expressions survive untouched.
type text string

func (t *text) Capture(values []string) error {
	s := values[0]
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	}
	*t = text(s)
	return nil
}

type boolean bool

func (b *boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// Parser reads annotations out of doc comment text
type Parser struct {
	parser *participle.Parser[annotationNode]
}

// NewParser creates a new parser using participle
func NewParser() *Parser {
	lex := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\"|[^"])*"`},
		{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Punct", Pattern: `[@(){},=:]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	parser := participle.MustBuild[annotationNode](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)

	return &Parser{parser: parser}
}

var defaultParser = NewParser()

// Parse parses a single annotation such as `@DI(injectContainer=true)`.
func Parse(src string) (Annotation, error) {
	return defaultParser.Parse(src)
}

// ParseComment parses every recognised annotation in a doc comment.
func ParseComment(lines []string) ([]Located, error) {
	return defaultParser.ParseComment(lines)
}

// Parse parses a single annotation and builds its typed value
func (p *Parser) Parse(src string) (Annotation, error) {
	node, err := p.parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	raw, err := node.raw()
	if err != nil {
		return nil, err
	}
	return BuildRaw(raw)
}

// Located is an annotation together with the comment line it starts on
type Located struct {
	Annotation Annotation
	Line       int // 0-based offset into the comment lines
}

// ParseComment scans comment lines for @Route and @DI annotations. An
// annotation may continue over several lines until its parentheses balance.
// Other @names are treated as prose and skipped.
func (p *Parser) ParseComment(lines []string) ([]Located, error) {
	var out []Located

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(StripCommentMarker(lines[i]))
		name, ok := leadingName(line)
		if !ok {
			continue
		}

		switch name {
		case RouteName, DIName:
		case ConvertName, CallbackName:
			return nil, fmt.Errorf("line %d: %w: @%s can only be nested inside @%s", i+1, ErrPlacement, name, RouteName)
		default:
			continue
		}

		start := i
		var buf strings.Builder
		buf.WriteString(line)
		depth := parenDepth(line)
		for depth > 0 && i+1 < len(lines) {
			i++
			next := strings.TrimSpace(StripCommentMarker(lines[i]))
			buf.WriteByte('\n')
			buf.WriteString(next)
			depth += parenDepth(next)
		}
		if depth > 0 {
			return nil, fmt.Errorf("line %d: %w: unterminated @%s", start+1, ErrSyntax, name)
		}

		a, err := p.Parse(buf.String())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", start+1, err)
		}
		out = append(out, Located{Annotation: a, Line: start})
	}

	return out, nil
}

// StripCommentMarker removes Go comment markers and the leading `*` of block
// comment continuation lines.
func StripCommentMarker(line string) string {
	s := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(s, "//"):
		s = s[2:]
	case strings.HasPrefix(s, "/*"):
		s = s[2:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "*/")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "* ") || s == "*" {
		s = strings.TrimSpace(s[1:])
	}
	return s
}

// leadingName returns Name for lines that start with @Name
func leadingName(line string) (string, bool) {
	if !strings.HasPrefix(line, "@") {
		return "", false
	}
	end := 1
	for end < len(line) {
		r := rune(line[end])
		if !(r == '_' || unicode.IsLetter(r) || (end > 1 && unicode.IsDigit(r))) {
			break
		}
		end++
	}
	if end == 1 {
		return "", false
	}
	return line[1:end], true
}

// parenDepth counts unquoted parentheses
func parenDepth(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && inString:
			if i+1 < len(s) && s[i+1] == '"' {
				i++
			}
		case c == '"':
			inString = !inString
		case c == '(' && !inString:
			depth++
		case c == ')' && !inString:
			depth--
		}
	}
	return depth
}

// raw converts the parse tree into a name plus key/value bag
func (n *annotationNode) raw() (*Raw, error) {
	raw := &Raw{Name: n.Name, Args: make(map[string]any, len(n.Args))}
	positional := false

	for _, arg := range n.Args {
		key := ValueKey
		if arg.Key != nil {
			key = *arg.Key
		} else if positional {
			return nil, fmt.Errorf("%w: @%s accepts a single positional argument", ErrSyntax, n.Name)
		} else {
			positional = true
		}

		if _, dup := raw.Args[key]; dup {
			return nil, fmt.Errorf("%w: property '%s' given twice on annotation '%s'", ErrInvalidValue, key, n.Name)
		}

		v, err := arg.Value.value()
		if err != nil {
			return nil, err
		}
		raw.Args[key] = v
	}

	return raw, nil
}

func (v *valueNode) value() (any, error) {
	switch {
	case v.Annotation != nil:
		return v.Annotation.raw()
	case v.String != nil:
		return string(*v.String), nil
	case v.Number != nil:
		return *v.Number, nil
	case v.Bool != nil:
		return bool(*v.Bool), nil
	case v.Collection != nil:
		return v.Collection.value()
	default:
		return nil, nil
	}
}

// value yields a map when every entry is keyed, a list when none is
func (c *collectionNode) value() (any, error) {
	keyed := 0
	for _, e := range c.Entries {
		if e.Key != nil {
			keyed++
		}
	}

	switch {
	case keyed == 0:
		list := make([]any, 0, len(c.Entries))
		for _, e := range c.Entries {
			v, err := e.Value.value()
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case keyed == len(c.Entries):
		m := make(map[string]any, len(c.Entries))
		for _, e := range c.Entries {
			v, err := e.Value.value()
			if err != nil {
				return nil, err
			}
			m[string(*e.Key)] = v
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: collection mixes keyed and positional entries", ErrSyntax)
	}
}
