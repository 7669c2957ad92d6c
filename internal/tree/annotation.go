package tree

import "strings"

// DefaultAttribute is the attribute name that may be omitted when it is the
// only attribute written.
const DefaultAttribute = "value"

// Origin records which front end shape produced an Annotation.
type Origin int

const (
	// OriginSource is an annotation written in source.
	OriginSource Origin = iota
	// OriginNullabilityMarker is a synthesized non-null marker. Some front
	// ends report these with an empty qualified name.
	OriginNullabilityMarker
)

// Annotation is one annotation use with its attributes.
type Annotation struct {
	// Name is the annotation name as written, e.g. "Nullable" or
	// "androidx.annotation.Nullable".
	Name string
	// QualifiedName is the fully qualified name the front end resolved Name
	// to. Empty when unknown.
	QualifiedName string
	// Attributes in declaration order.
	Attributes []Attribute
	Origin     Origin
	// Scope is the lexical context the annotation name was written in. May
	// be nil.
	Scope     *Scope
	Raw       string
	Line, Col int
}

// Attribute is a single name=value pair. An empty Name means the value was
// written without a name.
type Attribute struct {
	Name  string
	Value Node
}

// AttributeName returns the attribute's name, or the default name when it
// was written without one.
func (a Attribute) AttributeName() string {
	if a.Name == "" {
		return DefaultAttribute
	}
	return a.Name
}

// Source returns the annotation's source text as written, or a rendering
// of its parts when the raw text is unknown.
func (a *Annotation) Source() string {
	if a.Raw != "" {
		return a.Raw
	}
	var b strings.Builder
	b.WriteByte('@')
	if a.QualifiedName != "" {
		b.WriteString(a.QualifiedName)
	} else {
		b.WriteString(a.Name)
	}
	if len(a.Attributes) == 0 {
		return b.String()
	}
	b.WriteByte('(')
	for i, attr := range a.Attributes {
		if i > 0 {
			b.WriteString(", ")
		}
		if attr.Name != "" {
			b.WriteString(attr.Name)
			b.WriteByte('=')
		}
		b.WriteString(Text(attr.Value))
	}
	b.WriteByte(')')
	return b.String()
}

// Walk calls fn for n and every node below it in depth-first order,
// descending into nested annotations. It stops early when fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	switch n := n.(type) {
	case *BinaryOp:
		return Walk(n.Left, fn) && Walk(n.Right, fn)
	case *ArrayInit:
		for _, e := range n.Elements {
			if !Walk(e, fn) {
				return false
			}
		}
	case *Opaque:
		for _, o := range n.Operands {
			if !Walk(o, fn) {
				return false
			}
		}
	case *NestedAnnotation:
		for _, attr := range n.Annotation.Attributes {
			if !Walk(attr.Value, fn) {
				return false
			}
		}
	}
	return true
}
