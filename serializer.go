package canon

import (
	"log/slog"
	"strings"

	"github.com/jward/canon/internal/annotation"
	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/eval"
	"github.com/jward/canon/internal/naming"
	"github.com/jward/canon/internal/tree"
)

// Serializer renders annotations in canonical form. Two annotations that
// mean the same thing against the same codebase render to the same string.
//
// A Serializer never fails: anything it cannot resolve or evaluate is
// written as it appears in source. It holds no state of its own, but the
// items it is given memoize their attributes, so callers sharing items
// across goroutines must synchronize.
type Serializer struct {
	env         *annotation.Env
	policy      naming.Policy
	defaultAttr string
	logger      *slog.Logger
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithDefaultAttribute sets the attribute name that is omitted when it is
// the only attribute. The default is "value".
func WithDefaultAttribute(name string) SerializerOption {
	return func(s *Serializer) {
		if name != "" {
			s.defaultAttr = name
		}
	}
}

// WithSerializerLogger sets a logger for fallback diagnostics. Fallbacks
// are logged at debug level.
func WithSerializerLogger(l *slog.Logger) SerializerOption {
	return func(s *Serializer) { s.logger = l }
}

// NewSerializer returns a Serializer that resolves and evaluates values
// through env and maps annotation names through policy. A nil policy keeps
// names unchanged.
func NewSerializer(env *annotation.Env, policy naming.Policy, opts ...SerializerOption) *Serializer {
	if env == nil {
		env = &annotation.Env{}
	}
	if policy == nil {
		policy = naming.Identity
	}
	s := &Serializer{
		env:         env,
		policy:      policy,
		defaultAttr: tree.DefaultAttribute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Annotation returns the canonical form of item, or "" when the policy
// suppresses it.
func (s *Serializer) Annotation(item annotation.Item) string {
	name, ok := s.policy.MapName(s.env.Index, item.QualifiedName())
	if !ok {
		return ""
	}
	attrs := item.Attributes()
	if len(attrs) == 0 {
		return "@" + name
	}

	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(name)
	b.WriteByte('(')
	if len(attrs) == 1 && (attrs[0].Name == "" || attrs[0].Name == s.defaultAttr) {
		b.WriteString(s.attributeValue(attrs[0].Value))
	} else {
		for i, attr := range attrs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.attributeName(attr.Name))
			b.WriteByte('=')
			b.WriteString(s.attributeValue(attr.Value))
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Tree returns the canonical form of a parsed annotation.
func (s *Serializer) Tree(t *tree.Annotation) string {
	return s.Annotation(annotation.FromTree(t, s.env))
}

func (s *Serializer) attributeName(name string) string {
	if name == "" {
		return s.defaultAttr
	}
	return name
}

func (s *Serializer) attributeValue(v annotation.Value) string {
	if arr, ok := v.(*annotation.ArrayValue); ok {
		parts := make([]string, len(arr.Values()))
		for i, e := range arr.Values() {
			parts[i] = s.attributeValue(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	if v == nil {
		return "null"
	}
	return s.Value(v.Node())
}

// Value returns the canonical form of an attribute value expression.
func (s *Serializer) Value(n tree.Node) string {
	if n == nil {
		return "null"
	}
	switch n.Kind() {
	case tree.KindLiteral:
		return constant.Format(n.(*tree.Literal).Value)
	case tree.KindReference:
		return s.reference(n.(*tree.Reference))
	case tree.KindBinaryOp:
		op := n.(*tree.BinaryOp)
		return s.Value(op.Left) + " " + op.Op + " " + s.Value(op.Right)
	case tree.KindArrayInit:
		arr := n.(*tree.ArrayInit)
		parts := make([]string, len(arr.Elements))
		for i, e := range arr.Elements {
			parts[i] = s.Value(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case tree.KindNestedAnnotation:
		return s.Tree(n.(*tree.NestedAnnotation).Annotation)
	case tree.KindOpaque:
		return s.opaque(n.(*tree.Opaque))
	}
	return n.Text()
}

func (s *Serializer) opaque(n *tree.Opaque) string {
	if n.Evaluable && s.env.Evaluator != nil {
		if v, ok := s.env.Evaluator.Evaluate(n); ok {
			return constant.Format(v)
		}
	}
	s.fallback("opaque expression not evaluated", n.Raw)
	return n.Raw
}

func (s *Serializer) reference(ref *tree.Reference) string {
	var decl codebase.Declaration
	if s.env.Resolver != nil {
		decl = s.env.Resolver.Resolve(ref)
	}
	switch d := decl.(type) {
	case *codebase.FieldDecl:
		if ref.ClassLiteral {
			break
		}
		return s.field(d)
	case *codebase.ClassDecl:
		if d.QualifiedName == "" {
			return ""
		}
		if ref.ClassLiteral {
			return d.QualifiedName + ".class"
		}
		return d.QualifiedName
	}
	s.fallback("reference not resolved", ref.Raw)
	return ref.Text()
}

// field renders a reference to d. Constants outside the public surface are
// replaced by their value; everything else stays symbolic.
func (s *Serializer) field(d *codebase.FieldDecl) string {
	if d.Class == nil {
		return d.Name
	}
	var public bool
	if s.env.Index != nil {
		s.env.Index.FindOrCreateClass(d.Class)
		if f, ok := s.env.Index.FindField(d); ok {
			public = !f.IsHiddenOrRemoved()
		}
	}
	if init := d.ConstantInitializer(); init != nil && !public && s.env.Evaluator != nil {
		if v, ok := s.env.Evaluator.Evaluate(init); ok {
			if v, ok := eval.AsDeclared(d.Type, v); ok {
				return constant.Format(v)
			}
		}
		s.fallback("hidden constant not inlined", d.QualifiedName())
	}
	return d.QualifiedName()
}

func (s *Serializer) fallback(msg, text string) {
	if s.logger != nil {
		s.logger.Debug(msg, slog.String("text", text))
	}
}
