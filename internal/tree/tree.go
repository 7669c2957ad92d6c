// Package tree defines the annotation expression tree produced by a front
// end and consumed by the canonicalizer. The set of node types is closed:
// every Node is one of Literal, Reference, BinaryOp, ArrayInit,
// NestedAnnotation or Opaque. A nil Node is an absent value.
//
// Trees are immutable once built. Nothing in this package resolves names or
// evaluates expressions.
package tree

import (
	"strings"

	"github.com/jward/canon/internal/constant"
)

// Kind tags the concrete type of a Node.
type Kind int

const (
	KindLiteral Kind = iota + 1
	KindReference
	KindBinaryOp
	KindArrayInit
	KindNestedAnnotation
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindReference:
		return "reference"
	case KindBinaryOp:
		return "binary"
	case KindArrayInit:
		return "array"
	case KindNestedAnnotation:
		return "annotation"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// Node is an attribute value expression.
type Node interface {
	Kind() Kind
	// Text returns the node's source text as written.
	Text() string
	node()
}

// Literal is a primitive constant with its typed value.
type Literal struct {
	Value constant.Value
	Raw   string
}

// Reference is a symbolic name to be resolved against the codebase, such as
// MAX_SIZE, Limits.MAX_SIZE or com.example.Limits.MAX_SIZE.
type Reference struct {
	// Name is the dotted name as written.
	Name string
	// ClassLiteral marks the Name.class form.
	ClassLiteral bool
	// Scope is the lexical context the name was written in. May be nil.
	Scope *Scope
	Raw   string
}

// BinaryOp is a binary expression. Op is the operator token as written.
type BinaryOp struct {
	Op          string
	Left, Right Node
	Raw         string
}

// ArrayInit is an array attribute value. Elements keep declaration order.
type ArrayInit struct {
	Elements []Node
	Raw      string
}

// NestedAnnotation is an annotation used as an attribute value.
type NestedAnnotation struct {
	Annotation *Annotation
}

// Opaque is any expression the front end did not classify further.
type Opaque struct {
	Raw string
	// Evaluable is set when the expression may fold to a compile-time
	// constant (casts, unary operators, parentheses, conditionals).
	Evaluable bool
	// Scope is the lexical context, used when evaluation needs to look up
	// names. May be nil.
	Scope *Scope

	// Form, Op and Operands optionally describe the expression's shape for
	// evaluators. Op is the unary operator or, for casts, the target type.
	// Operands are the operand, the parenthesized expression, or the
	// condition and both branches of a conditional.
	Form     Form
	Op       string
	Operands []Node
}

// Form is the shape of an Opaque expression.
type Form int

const (
	FormUnknown Form = iota
	FormUnary
	FormParen
	FormCast
	FormConditional
)

func (*Literal) Kind() Kind          { return KindLiteral }
func (*Reference) Kind() Kind        { return KindReference }
func (*BinaryOp) Kind() Kind         { return KindBinaryOp }
func (*ArrayInit) Kind() Kind        { return KindArrayInit }
func (*NestedAnnotation) Kind() Kind { return KindNestedAnnotation }
func (*Opaque) Kind() Kind           { return KindOpaque }

func (n *Literal) Text() string {
	if n.Raw == "" {
		return constant.Format(n.Value)
	}
	return n.Raw
}

func (n *Reference) Text() string {
	if n.Raw != "" {
		return n.Raw
	}
	if n.ClassLiteral {
		return n.Name + ".class"
	}
	return n.Name
}

func (n *BinaryOp) Text() string {
	if n.Raw != "" {
		return n.Raw
	}
	return Text(n.Left) + " " + n.Op + " " + Text(n.Right)
}

func (n *ArrayInit) Text() string {
	if n.Raw != "" {
		return n.Raw
	}
	parts := make([]string, len(n.Elements))
	for i, e := range n.Elements {
		parts[i] = Text(e)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (n *NestedAnnotation) Text() string { return n.Annotation.Source() }
func (n *Opaque) Text() string           { return n.Raw }

func (*Literal) node()          {}
func (*Reference) node()        {}
func (*BinaryOp) node()         {}
func (*ArrayInit) node()        {}
func (*NestedAnnotation) node() {}
func (*Opaque) node()           {}

// Text returns n's source text, or "null" for an absent value.
func Text(n Node) string {
	if n == nil {
		return "null"
	}
	return n.Text()
}

// Scope is the lexical context of a reference: the compilation unit's
// package and imports and the chain of enclosing classes.
type Scope struct {
	Package string
	// Imports are single-type imports, fully qualified.
	Imports []string
	// StaticImports are single static imports, e.g. "pkg.Limits.MAX".
	StaticImports []string
	// WildcardImports are on-demand imports, e.g. "pkg" for "import pkg.*".
	WildcardImports []string
	// StaticWildcardImports are static on-demand imports of a class, e.g.
	// "pkg.Limits" for "import static pkg.Limits.*".
	StaticWildcardImports []string
	// Enclosing lists the enclosing classes' qualified names, innermost first.
	Enclosing []string
}

// Within returns a copy of s with class pushed as the innermost enclosing
// class.
func (s *Scope) Within(class string) *Scope {
	if s == nil {
		return &Scope{Enclosing: []string{class}}
	}
	c := *s
	c.Enclosing = append([]string{class}, s.Enclosing...)
	return &c
}

// ImportFor returns the single-type import whose simple name is name.
func (s *Scope) ImportFor(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, imp := range s.Imports {
		if imp == name || strings.HasSuffix(imp, "."+name) {
			return imp, true
		}
	}
	return "", false
}
