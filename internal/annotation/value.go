// Package annotation wraps annotation trees in the item and value model the
// canonicalizer works against. Items are read-only views; the only state
// they hold is a memoized attribute list.
package annotation

import (
	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/eval"
	"github.com/jward/canon/internal/tree"
)

// Env holds the collaborators values use to resolve and evaluate nodes.
// Any field may be nil; the corresponding lookups then report nothing.
type Env struct {
	Resolver  codebase.Resolver
	Index     codebase.Index
	Evaluator eval.Evaluator
	// Parser, if set, builds trees for attribute text that ParseValueText
	// leaves opaque.
	Parser ExpressionParser
}

// ExpressionParser parses attribute source text into an expression tree.
type ExpressionParser func(text string) (tree.Node, bool)

// parseText classifies attribute source text, handing expressions to the
// env's parser when one is set.
func (e *Env) parseText(text string) tree.Node {
	n := ParseValueText(text)
	if e == nil || e.Parser == nil {
		return n
	}
	return e.refine(n)
}

func (e *Env) refine(n tree.Node) tree.Node {
	switch v := n.(type) {
	case *tree.Opaque:
		if parsed, ok := e.Parser(v.Raw); ok && parsed != nil {
			return parsed
		}
	case *tree.ArrayInit:
		for i, el := range v.Elements {
			v.Elements[i] = e.refine(el)
		}
	}
	return n
}

// Value is an attribute value: a *SingleValue or an *ArrayValue.
type Value interface {
	// SourceText returns the value as written.
	SourceText() string
	// Node returns the backing expression node, nil for an absent value.
	Node() tree.Node
	value()
}

// NewValue wraps n. Array initializers become an *ArrayValue whose elements
// are wrapped immediately; everything else becomes a *SingleValue.
func NewValue(n tree.Node, env *Env) Value {
	if arr, ok := n.(*tree.ArrayInit); ok {
		values := make([]Value, len(arr.Elements))
		for i, e := range arr.Elements {
			values[i] = NewValue(e, env)
		}
		return &ArrayValue{node: arr, values: values}
	}
	return &SingleValue{node: n, env: env}
}

// SingleValue is a non-array attribute value.
type SingleValue struct {
	node tree.Node
	env  *Env
}

// Origin says where a TypedValue came from.
type Origin int

const (
	// FromLiteral is a literal's own value.
	FromLiteral Origin = iota + 1
	// FromEvaluation is a value computed by the constant evaluator.
	FromEvaluation
	// FromSource means no constant was available; Text holds the source.
	FromSource
)

// TypedValue is the best-effort typed value of a SingleValue.
type TypedValue struct {
	Origin Origin
	// Constant is set for FromLiteral and FromEvaluation.
	Constant constant.Value
	// Text is the source text for FromSource.
	Text string
}

// Interface returns the constant's Go value, or the source text.
func (t TypedValue) Interface() any {
	if t.Origin == FromSource {
		return t.Text
	}
	return t.Constant.Interface()
}

func (v *SingleValue) SourceText() string { return tree.Text(v.node) }
func (v *SingleValue) Node() tree.Node     { return v.node }

// TypedValue returns the literal value, else the evaluated value, else the
// source text.
func (v *SingleValue) TypedValue() TypedValue {
	if lit, ok := v.node.(*tree.Literal); ok {
		return TypedValue{Origin: FromLiteral, Constant: lit.Value}
	}
	if v.node != nil && v.env != nil && v.env.Evaluator != nil {
		if c, ok := v.env.Evaluator.Evaluate(v.node); ok {
			return TypedValue{Origin: FromEvaluation, Constant: c}
		}
	}
	return TypedValue{Origin: FromSource, Text: v.SourceText()}
}

// Resolve returns the item a reference value names: a field, class or
// method item. It returns nil for other values or unresolved references.
func (v *SingleValue) Resolve() codebase.Item {
	ref, ok := v.node.(*tree.Reference)
	if !ok || v.env == nil || v.env.Resolver == nil || v.env.Index == nil {
		return nil
	}
	return ResolveItem(v.env.Resolver.Resolve(ref), v.env.Index)
}

// ResolveItem maps a declaration to its item in idx.
func ResolveItem(d codebase.Declaration, idx codebase.Index) codebase.Item {
	switch d := d.(type) {
	case *codebase.ClassDecl:
		return idx.FindOrCreateClass(d)
	case *codebase.FieldDecl:
		if d.Class == nil {
			return nil
		}
		idx.FindOrCreateClass(d.Class)
		if f, ok := idx.FindField(d); ok {
			return f
		}
	case *codebase.MethodDecl:
		if d.Class == nil {
			return nil
		}
		idx.FindOrCreateClass(d.Class)
		if m, ok := idx.FindMethod(d); ok {
			return m
		}
	}
	return nil
}

// ArrayValue is an array attribute value.
type ArrayValue struct {
	node   *tree.ArrayInit
	values []Value
}

func (v *ArrayValue) SourceText() string { return v.node.Text() }
func (v *ArrayValue) Node() tree.Node     { return v.node }

// Values returns the element values in declaration order.
func (v *ArrayValue) Values() []Value { return v.values }

func (*SingleValue) value() {}
func (*ArrayValue) value()  {}
