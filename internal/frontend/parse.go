// Package frontend parses Java compilation units into class declarations
// and annotation trees using tree-sitter.
//
// The front end is purely syntactic. Annotation names are qualified from
// imports, dotted names and java.lang where possible; names that need the
// rest of the source set are left for the caller to qualify once every unit
// is known.
package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/tree"
)

// Unit is one parsed compilation unit.
type Unit struct {
	Path    string
	Package string
	// Scope holds the unit's package and imports.
	Scope *tree.Scope
	// Classes lists every named class in the unit, outer classes before the
	// classes nested in them.
	Classes []*codebase.ClassDecl
	// Errors lists syntax problems. The unit is still usable.
	Errors []string
}

// Site kinds.
const (
	SiteClass     = "class"
	SiteField     = "field"
	SiteMethod    = "method"
	SiteParameter = "parameter"
)

// Site is an annotation together with the declaration it is attached to.
type Site struct {
	// Owner identifies the declaration: "pkg.C", "pkg.C.FIELD",
	// "pkg.C#m(int)" or "pkg.C#m(int):param".
	Owner      string
	Kind       string
	Annotation *tree.Annotation
}

// Sites returns every annotation in the unit in source order within each
// declaration, classes first.
func (u *Unit) Sites() []Site {
	var sites []Site
	add := func(owner, kind string, anns []*tree.Annotation) {
		for _, a := range anns {
			sites = append(sites, Site{Owner: owner, Kind: kind, Annotation: a})
		}
	}
	for _, c := range u.Classes {
		add(c.QualifiedName, SiteClass, c.Annotations)
		for _, f := range c.Fields {
			add(f.QualifiedName(), SiteField, f.Annotations)
		}
		for _, m := range c.Methods {
			owner := MethodOwner(m)
			add(owner, SiteMethod, m.Annotations)
			for _, p := range m.Params {
				add(owner+":"+p.Name, SiteParameter, p.Annotations)
			}
		}
	}
	return sites
}

// MethodOwner returns the owner string of a method site.
func MethodOwner(m *codebase.MethodDecl) string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	prefix := ""
	if m.Class != nil {
		prefix = m.Class.QualifiedName
	}
	return prefix + "#" + m.Name + "(" + strings.Join(types, ",") + ")"
}

// Option configures Parse.
type Option func(*unitParser)

// WithLogger sets the logger used to report syntax errors.
func WithLogger(l *slog.Logger) Option {
	return func(p *unitParser) { p.logger = l }
}

// Parse parses a Java compilation unit.
func Parse(ctx context.Context, path string, src []byte, opts ...Option) (*Unit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar())

	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("frontend: parse %s: %w", path, err)
	}
	defer t.Close()

	p := &unitParser{
		src:    src,
		unit:   &Unit{Path: path, Scope: &tree.Scope{}},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}

	root := t.RootNode()
	if root == nil {
		return nil, fmt.Errorf("frontend: parse %s: no root node", path)
	}
	if root.HasError() {
		p.unit.Errors = append(p.unit.Errors, "source contains syntax errors")
		p.logger.WarnContext(ctx, "syntax errors in source", slog.String("path", path))
	}

	p.header(root)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		p.declaration(root.NamedChild(i), nil, p.unit.Scope)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("frontend: parse %s: %w", path, err)
	}
	return p.unit, nil
}

// ParseExpression parses text as a single annotation attribute value, the
// form values take in external annotations files. Names in the result carry
// no scope.
func ParseExpression(ctx context.Context, text string) (tree.Node, error) {
	text = strings.TrimSpace(text)
	src := []byte("@A(" + text + ")\nclass A {}\n")

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar())

	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("frontend: parse expression: %w", err)
	}
	defer t.Close()

	root := t.RootNode()
	if root == nil || root.HasError() {
		return nil, fmt.Errorf("frontend: expression %q has syntax errors", text)
	}
	ann := findNode(root, "annotation")
	if ann == nil {
		return nil, fmt.Errorf("frontend: expression %q has no value", text)
	}
	args := ann.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return nil, fmt.Errorf("frontend: expression %q is not a single value", text)
	}
	p := &unitParser{src: src, unit: &Unit{Scope: &tree.Scope{}}, logger: slog.Default()}
	expr := args.NamedChild(0)
	if expr.Type() == "element_value_pair" || p.text(expr) != text {
		return nil, fmt.Errorf("frontend: expression %q is not a single value", text)
	}
	return p.value(expr, nil), nil
}

func findNode(n *sitter.Node, typ string) *sitter.Node {
	if n.Type() == typ {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := findNode(n.NamedChild(i), typ); found != nil {
			return found
		}
	}
	return nil
}

type unitParser struct {
	src    []byte
	unit   *Unit
	logger *slog.Logger
}

func (p *unitParser) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(p.src)
}

// header reads the package and import declarations into the unit scope.
func (p *unitParser) header(root *sitter.Node) {
	s := p.unit.Scope
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			for j := 0; j < int(n.NamedChildCount()); j++ {
				c := n.NamedChild(j)
				if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
					s.Package = compact(p.text(c))
					p.unit.Package = s.Package
				}
			}
		case "import_declaration":
			var name string
			static, wildcard := false, false
			for j := 0; j < int(n.ChildCount()); j++ {
				c := n.Child(j)
				switch c.Type() {
				case "static":
					static = true
				case "asterisk":
					wildcard = true
				case "scoped_identifier", "identifier":
					name = compact(p.text(c))
				}
			}
			if name == "" {
				continue
			}
			switch {
			case static && wildcard:
				s.StaticWildcardImports = append(s.StaticWildcardImports, name)
			case static:
				s.StaticImports = append(s.StaticImports, name)
			case wildcard:
				s.WildcardImports = append(s.WildcardImports, name)
			default:
				s.Imports = append(s.Imports, name)
			}
		}
	}
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
