package frontend

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
)

// javaLang are the java.lang annotation types usable without an import.
var javaLang = map[string]bool{
	"Override":            true,
	"Deprecated":          true,
	"SuppressWarnings":    true,
	"SafeVarargs":         true,
	"FunctionalInterface": true,
}

var dottedName = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

func (p *unitParser) annotations(nodes []*sitter.Node, scope *tree.Scope) []*tree.Annotation {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*tree.Annotation, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, p.annotation(n, scope))
	}
	return out
}

func (p *unitParser) annotation(n *sitter.Node, scope *tree.Scope) *tree.Annotation {
	name := compact(p.text(n.ChildByFieldName("name")))
	a := &tree.Annotation{
		Name:          name,
		QualifiedName: Qualify(name, scope),
		Scope:         scope,
		Raw:           p.text(n),
		Line:          int(n.StartPoint().Row) + 1,
		Col:           int(n.StartPoint().Column) + 1,
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return a
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		switch {
		case isComment(c):
		case c.Type() == "element_value_pair":
			a.Attributes = append(a.Attributes, tree.Attribute{
				Name:  p.text(c.ChildByFieldName("key")),
				Value: p.value(c.ChildByFieldName("value"), scope),
			})
		default:
			a.Attributes = append(a.Attributes, tree.Attribute{Value: p.value(c, scope)})
		}
	}
	return a
}

// Qualify returns the qualified name of an annotation type written as name,
// using only the unit's imports. It returns "" when the name could be in
// the unit's package or an on-demand import.
func Qualify(name string, scope *tree.Scope) string {
	first, rest, dotted := strings.Cut(name, ".")
	if imp, ok := scope.ImportFor(first); ok {
		if dotted {
			return imp + "." + rest
		}
		return imp
	}
	if dotted && first != "" && first[0] >= 'a' && first[0] <= 'z' {
		return name
	}
	if !dotted && javaLang[name] {
		return "java.lang." + name
	}
	return ""
}

// value converts an expression or element value node.
func (p *unitParser) value(n *sitter.Node, scope *tree.Scope) tree.Node {
	if n == nil {
		return nil
	}
	raw := p.text(n)
	switch n.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if v, err := constant.ParseInteger(raw); err == nil {
			return &tree.Literal{Value: v, Raw: raw}
		}
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if v, err := constant.ParseFloating(raw); err == nil {
			return &tree.Literal{Value: v, Raw: raw}
		}
	case "true", "false":
		return &tree.Literal{Value: constant.MakeBool(n.Type() == "true"), Raw: raw}
	case "character_literal":
		if v, err := constant.ParseChar(raw); err == nil {
			return &tree.Literal{Value: v, Raw: raw}
		}
	case "string_literal", "text_block":
		if v, err := constant.ParseString(raw); err == nil {
			return &tree.Literal{Value: v, Raw: raw}
		}
	case "null_literal":
		return nil
	case "identifier", "field_access", "scoped_identifier":
		if name := compact(raw); dottedName.MatchString(name) {
			return &tree.Reference{Name: name, Scope: scope, Raw: raw}
		}
	case "class_literal":
		if c := n.NamedChild(0); c != nil {
			if name := compact(p.text(c)); dottedName.MatchString(name) {
				return &tree.Reference{Name: name, ClassLiteral: true, Scope: scope, Raw: raw}
			}
		}
	case "binary_expression":
		return &tree.BinaryOp{
			Op:    p.text(n.ChildByFieldName("operator")),
			Left:  p.value(n.ChildByFieldName("left"), scope),
			Right: p.value(n.ChildByFieldName("right"), scope),
			Raw:   raw,
		}
	case "parenthesized_expression":
		return &tree.Opaque{Raw: raw, Evaluable: true, Scope: scope, Form: tree.FormParen,
			Operands: []tree.Node{p.value(firstExpression(n), scope)}}
	case "unary_expression":
		return &tree.Opaque{Raw: raw, Evaluable: true, Scope: scope, Form: tree.FormUnary,
			Op:       p.text(n.ChildByFieldName("operator")),
			Operands: []tree.Node{p.value(n.ChildByFieldName("operand"), scope)}}
	case "cast_expression":
		return &tree.Opaque{Raw: raw, Evaluable: true, Scope: scope, Form: tree.FormCast,
			Op:       compact(p.text(n.ChildByFieldName("type"))),
			Operands: []tree.Node{p.value(n.ChildByFieldName("value"), scope)}}
	case "ternary_expression":
		return &tree.Opaque{Raw: raw, Evaluable: true, Scope: scope, Form: tree.FormConditional,
			Operands: []tree.Node{
				p.value(n.ChildByFieldName("condition"), scope),
				p.value(n.ChildByFieldName("consequence"), scope),
				p.value(n.ChildByFieldName("alternative"), scope),
			}}
	case "element_value_array_initializer", "array_initializer":
		arr := &tree.ArrayInit{Raw: raw}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); !isComment(c) {
				arr.Elements = append(arr.Elements, p.value(c, scope))
			}
		}
		return arr
	case "annotation", "marker_annotation":
		return &tree.NestedAnnotation{Annotation: p.annotation(n, scope)}
	}
	return &tree.Opaque{Raw: raw, Scope: scope}
}

func firstExpression(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); !isComment(c) {
			return c
		}
	}
	return nil
}
