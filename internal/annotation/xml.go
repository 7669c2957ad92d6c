package annotation

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
)

// External annotations files attach annotations to API elements outside
// their source:
//
//	<root>
//	  <item name="com.example.Foo void bar(int) 0">
//	    <annotation name="androidx.annotation.IntRange">
//	      <val name="from" val="0"/>
//	    </annotation>
//	  </item>
//	</root>

type xmlRoot struct {
	Items []xmlEntry `xml:"item"`
}

type xmlEntry struct {
	Name        string          `xml:"name,attr"`
	Annotations []xmlAnnotation `xml:"annotation"`
}

type xmlAnnotation struct {
	Name string   `xml:"name,attr"`
	Vals []xmlVal `xml:"val"`
}

type xmlVal struct {
	Name string `xml:"name,attr"`
	Val  string `xml:"val,attr"`
}

// XMLEntry is the set of annotations attached to one API element.
type XMLEntry struct {
	// Target is the element signature, e.g. "com.example.Foo void bar(int) 0".
	Target      string
	Annotations []*XMLItem
}

// ParseXML reads an external annotations file.
func ParseXML(r io.Reader, env *Env) ([]XMLEntry, error) {
	var root xmlRoot
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("annotation: decode xml: %w", err)
	}
	entries := make([]XMLEntry, 0, len(root.Items))
	for _, it := range root.Items {
		e := XMLEntry{Target: it.Name}
		for _, a := range it.Annotations {
			e.Annotations = append(e.Annotations, NewXMLItem(a.Name, xmlPairs(a.Vals), env))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func xmlPairs(vals []xmlVal) [][2]string {
	pairs := make([][2]string, len(vals))
	for i, v := range vals {
		pairs[i] = [2]string{v.Name, v.Val}
	}
	return pairs
}

// XMLItem is an Item synthesized from an external annotations file. Values
// arrive as source text and are classified on first access.
type XMLItem struct {
	name string
	vals [][2]string
	env  *Env

	attrs    []Attribute
	computed bool
}

var _ Item = (*XMLItem)(nil)

// NewXMLItem returns an item for the annotation name with the given
// (name, source text) attribute pairs.
func NewXMLItem(name string, vals [][2]string, env *Env) *XMLItem {
	return &XMLItem{name: name, vals: vals, env: env}
}

func (a *XMLItem) QualifiedName() string { return a.name }

func (a *XMLItem) Attributes() []Attribute {
	if a.computed {
		return a.attrs
	}
	attrs := make([]Attribute, len(a.vals))
	for i, v := range a.vals {
		attrs[i] = Attribute{Name: v[0], Value: NewValue(a.env.parseText(v[1]), a.env)}
	}
	a.attrs, a.computed = attrs, true
	return a.attrs
}

func (a *XMLItem) Resolve() *codebase.ClassItem {
	if a.env == nil || a.env.Index == nil {
		return nil
	}
	c, ok := a.env.Index.FindClass(a.name)
	if !ok {
		return nil
	}
	return c
}

func (a *XMLItem) ToSource() string {
	var b strings.Builder
	b.WriteString("@" + a.name)
	if len(a.vals) == 0 {
		return b.String()
	}
	b.WriteByte('(')
	for i, v := range a.vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v[0] + "=" + v[1])
	}
	b.WriteByte(')')
	return b.String()
}

var (
	qualifiedName = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)
	integerText   = regexp.MustCompile(`^(0[xX][0-9a-fA-F_]+|0[bB][01_]+|[0-9][0-9_]*)[lL]?$`)
	floatingText  = regexp.MustCompile(`^([0-9][0-9_]*\.[0-9_]*|\.[0-9][0-9_]*|[0-9][0-9_]*)([eE][+-]?[0-9]+)?[fFdD]?$`)
)

// ParseValueText classifies attribute source text that arrives without a
// parse tree. Literals, dotted names and brace-delimited arrays are
// recognized; anything else becomes an evaluable opaque node.
func ParseValueText(text string) tree.Node {
	s := strings.TrimSpace(text)
	switch {
	case s == "null":
		return nil
	case s == "true" || s == "false":
		return &tree.Literal{Value: constant.MakeBool(s == "true"), Raw: s}
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		var elems []tree.Node
		for _, part := range splitTopLevel(s[1 : len(s)-1]) {
			elems = append(elems, ParseValueText(part))
		}
		return &tree.ArrayInit{Elements: elems, Raw: s}
	case strings.HasPrefix(s, `"`):
		if v, err := constant.ParseString(s); err == nil {
			return &tree.Literal{Value: v, Raw: s}
		}
	case strings.HasPrefix(s, "'"):
		if v, err := constant.ParseChar(s); err == nil {
			return &tree.Literal{Value: v, Raw: s}
		}
	case integerText.MatchString(s):
		if v, err := constant.ParseInteger(s); err == nil {
			return &tree.Literal{Value: v, Raw: s}
		}
	case floatingText.MatchString(s):
		if v, err := constant.ParseFloating(s); err == nil {
			return &tree.Literal{Value: v, Raw: s}
		}
	case strings.HasSuffix(s, ".class") && qualifiedName.MatchString(strings.TrimSuffix(s, ".class")):
		return &tree.Reference{Name: strings.TrimSuffix(s, ".class"), ClassLiteral: true, Raw: s}
	case qualifiedName.MatchString(s):
		return &tree.Reference{Name: s, Raw: s}
	}
	return &tree.Opaque{Raw: s, Evaluable: true}
}

// splitTopLevel splits s on commas outside quotes, parentheses and braces.
// Empty trailing elements are dropped.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote rune
	escaped := false
	start := 0
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case quote != 0:
			if r == '\\' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '{':
			depth++
		case r == ')' || r == '}':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}
