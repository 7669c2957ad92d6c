package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/tree"
)

var classKinds = map[string]string{
	"class_declaration":           codebase.KindClass,
	"interface_declaration":       codebase.KindInterface,
	"enum_declaration":            codebase.KindEnum,
	"annotation_type_declaration": codebase.KindAnnotation,
	"record_declaration":          codebase.KindRecord,
}

// modifiers is the decoded modifier list of a declaration.
type modifiers struct {
	visibility  string
	static      bool
	final       bool
	annotations []*sitter.Node
}

func (p *unitParser) modifiers(decl *sitter.Node) modifiers {
	var m modifiers
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		c := decl.NamedChild(i)
		if c.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(c.ChildCount()); j++ {
			k := c.Child(j)
			switch k.Type() {
			case "public", "protected", "private":
				m.visibility = k.Type()
			case "static":
				m.static = true
			case "final":
				m.final = true
			case "marker_annotation", "annotation":
				m.annotations = append(m.annotations, k)
			}
		}
	}
	return m
}

// javadoc returns the doc comment directly preceding decl.
func (p *unitParser) javadoc(decl *sitter.Node) string {
	prev := decl.PrevSibling()
	if prev == nil || !isComment(prev) {
		return ""
	}
	if text := p.text(prev); strings.HasPrefix(text, "/**") {
		return text
	}
	return ""
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "block_comment", "line_comment":
		return true
	}
	return false
}

// docTags reports the @hide and @removed javadoc tags.
func docTags(doc string) (hidden, removed bool) {
	return strings.Contains(doc, "@hide"), strings.Contains(doc, "@removed")
}

// declaration handles a type declaration, or ignores n when it is not one.
func (p *unitParser) declaration(n *sitter.Node, outer *codebase.ClassDecl, scope *tree.Scope) {
	kind, ok := classKinds[n.Type()]
	if !ok {
		return
	}
	name := p.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}

	m := p.modifiers(n)
	c := &codebase.ClassDecl{
		Name:       name,
		Kind:       kind,
		Visibility: m.visibility,
		Outer:      outer,
		File:       p.unit.Path,
		Line:       int(n.StartPoint().Row) + 1,
	}
	switch {
	case outer != nil:
		c.QualifiedName = outer.QualifiedName + "." + name
	case p.unit.Package != "":
		c.QualifiedName = p.unit.Package + "." + name
	default:
		c.QualifiedName = name
	}
	if c.Visibility == "" {
		c.Visibility = codebase.Package
		if outer != nil && implicitlyPublic(outer) {
			c.Visibility = codebase.Public
		}
	}
	c.Hidden, c.Removed = docTags(p.javadoc(n))
	c.Annotations = p.annotations(m.annotations, scope)
	c.Supertypes = p.supertypes(n)

	inner := scope.Within(c.QualifiedName)
	c.Scope = inner
	p.unit.Classes = append(p.unit.Classes, c)

	if kind == codebase.KindRecord {
		p.recordComponents(n.ChildByFieldName("parameters"), c, inner)
	}
	p.body(n.ChildByFieldName("body"), c, inner)
}

func implicitlyPublic(c *codebase.ClassDecl) bool {
	return c.Kind == codebase.KindInterface || c.Kind == codebase.KindAnnotation
}

func (p *unitParser) supertypes(n *sitter.Node) []string {
	var out []string
	collect := func(list *sitter.Node) {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			c := list.NamedChild(i)
			if c.Type() == "type_list" {
				for j := 0; j < int(c.NamedChildCount()); j++ {
					out = append(out, compact(p.text(c.NamedChild(j))))
				}
				continue
			}
			out = append(out, compact(p.text(c)))
		}
	}
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		collect(sc)
	}
	if si := n.ChildByFieldName("interfaces"); si != nil {
		collect(si)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "extends_interfaces" {
			collect(c)
		}
	}
	return out
}

func (p *unitParser) body(body *sitter.Node, c *codebase.ClassDecl, scope *tree.Scope) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		switch n.Type() {
		case "field_declaration", "constant_declaration":
			p.fields(n, c, scope)
		case "method_declaration", "constructor_declaration":
			p.method(n, c, scope)
		case "annotation_type_element_declaration":
			p.element(n, c, scope)
		case "enum_constant":
			p.enumConstant(n, c, scope)
		case "enum_body_declarations":
			p.body(n, c, scope)
		default:
			p.declaration(n, c, scope)
		}
	}
}

func (p *unitParser) fields(n *sitter.Node, c *codebase.ClassDecl, scope *tree.Scope) {
	m := p.modifiers(n)
	hidden, removed := docTags(p.javadoc(n))
	typ := compact(p.text(n.ChildByFieldName("type")))
	vis, static, final := m.visibility, m.static, m.final
	if implicitlyPublic(c) {
		vis, static, final = codebase.Public, true, true
	}
	if vis == "" {
		vis = codebase.Package
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		f := &codebase.FieldDecl{
			Name:        p.text(d.ChildByFieldName("name")),
			Type:        typ + strings.Repeat("[]", strings.Count(p.text(d.ChildByFieldName("dimensions")), "[")),
			Visibility:  vis,
			Static:      static,
			Final:       final,
			Hidden:      hidden,
			Removed:     removed,
			Class:       c,
			Annotations: p.annotations(m.annotations, scope),
			Line:        int(d.StartPoint().Row) + 1,
		}
		if v := d.ChildByFieldName("value"); v != nil {
			f.Initializer = p.value(v, scope)
		}
		c.Fields = append(c.Fields, f)
	}
}

func (p *unitParser) enumConstant(n *sitter.Node, c *codebase.ClassDecl, scope *tree.Scope) {
	m := p.modifiers(n)
	hidden, removed := docTags(p.javadoc(n))
	c.Fields = append(c.Fields, &codebase.FieldDecl{
		Name:         p.text(n.ChildByFieldName("name")),
		Type:         c.QualifiedName,
		Visibility:   codebase.Public,
		Static:       true,
		Final:        true,
		EnumConstant: true,
		Hidden:       hidden,
		Removed:      removed,
		Class:        c,
		Annotations:  p.annotations(m.annotations, scope),
		Line:         int(n.StartPoint().Row) + 1,
	})
}

func (p *unitParser) method(n *sitter.Node, c *codebase.ClassDecl, scope *tree.Scope) {
	m := p.modifiers(n)
	hidden, removed := docTags(p.javadoc(n))
	vis := m.visibility
	if vis == "" {
		vis = codebase.Package
		if implicitlyPublic(c) {
			vis = codebase.Public
		}
	}
	md := &codebase.MethodDecl{
		Name:        p.text(n.ChildByFieldName("name")),
		ReturnType:  compact(p.text(n.ChildByFieldName("type"))),
		Visibility:  vis,
		Hidden:      hidden,
		Removed:     removed,
		Class:       c,
		Annotations: p.annotations(m.annotations, scope),
		Line:        int(n.StartPoint().Row) + 1,
	}
	md.Params = p.params(n.ChildByFieldName("parameters"), scope)
	c.Methods = append(c.Methods, md)
}

// element handles an annotation type element such as "int from() default 0;".
func (p *unitParser) element(n *sitter.Node, c *codebase.ClassDecl, scope *tree.Scope) {
	m := p.modifiers(n)
	hidden, removed := docTags(p.javadoc(n))
	md := &codebase.MethodDecl{
		Name:        p.text(n.ChildByFieldName("name")),
		ReturnType:  compact(p.text(n.ChildByFieldName("type"))) + compact(p.text(n.ChildByFieldName("dimensions"))),
		Visibility:  codebase.Public,
		Hidden:      hidden,
		Removed:     removed,
		Class:       c,
		Annotations: p.annotations(m.annotations, scope),
		Line:        int(n.StartPoint().Row) + 1,
	}
	if v := n.ChildByFieldName("value"); v != nil {
		md.Default = p.value(v, scope)
	}
	c.Methods = append(c.Methods, md)
}

func (p *unitParser) params(list *sitter.Node, scope *tree.Scope) []codebase.Param {
	if list == nil {
		return nil
	}
	var out []codebase.Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		n := list.NamedChild(i)
		switch n.Type() {
		case "formal_parameter":
			m := p.modifiers(n)
			out = append(out, codebase.Param{
				Name:        p.text(n.ChildByFieldName("name")),
				Type:        compact(p.text(n.ChildByFieldName("type"))) + compact(p.text(n.ChildByFieldName("dimensions"))),
				Annotations: p.annotations(m.annotations, scope),
			})
		case "spread_parameter":
			m := p.modifiers(n)
			param := codebase.Param{Annotations: p.annotations(m.annotations, scope)}
			for j := 0; j < int(n.NamedChildCount()); j++ {
				c := n.NamedChild(j)
				switch c.Type() {
				case "modifiers":
				case "variable_declarator":
					param.Name = p.text(c.ChildByFieldName("name"))
				default:
					if param.Type == "" {
						param.Type = compact(p.text(c)) + "..."
					}
				}
			}
			out = append(out, param)
		}
	}
	return out
}

// recordComponents declares a private final field for each record
// component.
func (p *unitParser) recordComponents(list *sitter.Node, c *codebase.ClassDecl, scope *tree.Scope) {
	for _, param := range p.params(list, scope) {
		c.Fields = append(c.Fields, &codebase.FieldDecl{
			Name:        param.Name,
			Type:        param.Type,
			Visibility:  codebase.Private,
			Final:       true,
			Class:       c,
			Annotations: param.Annotations,
			Line:        c.Line,
		})
	}
}
