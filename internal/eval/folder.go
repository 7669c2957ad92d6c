package eval

import (
	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
)

// DefaultMaxDepth bounds how many field initializers a Folder follows
// while evaluating one expression.
const DefaultMaxDepth = 32

// Folder evaluates literals, binary and unary operators, casts,
// conditionals and references to constant fields.
type Folder struct {
	resolver codebase.Resolver
	fallback Evaluator
	maxDepth int
}

// FolderOption configures a Folder.
type FolderOption func(*Folder)

// WithFallback sets the evaluator used for opaque expressions whose shape
// the Folder does not know.
func WithFallback(e Evaluator) FolderOption {
	return func(f *Folder) { f.fallback = e }
}

// WithMaxDepth bounds how many field initializers are followed.
func WithMaxDepth(depth int) FolderOption {
	return func(f *Folder) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// NewFolder returns a Folder that resolves references with r. A nil r
// disables reference evaluation.
func NewFolder(r codebase.Resolver, opts ...FolderOption) *Folder {
	f := &Folder{resolver: r, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Folder) Evaluate(n tree.Node) (constant.Value, bool) {
	return f.eval(n, 0)
}

func (f *Folder) eval(n tree.Node, depth int) (constant.Value, bool) {
	switch n := n.(type) {
	case *tree.Literal:
		return n.Value, n.Value.IsValid()
	case *tree.Reference:
		return f.reference(n, depth)
	case *tree.BinaryOp:
		l, ok := f.eval(n.Left, depth)
		if !ok {
			return constant.Value{}, false
		}
		r, ok := f.eval(n.Right, depth)
		if !ok {
			return constant.Value{}, false
		}
		return Binary(n.Op, l, r)
	case *tree.Opaque:
		return f.opaque(n, depth)
	}
	// Arrays, nested annotations and absent values are not constants.
	return constant.Value{}, false
}

func (f *Folder) reference(ref *tree.Reference, depth int) (constant.Value, bool) {
	if f.resolver == nil || depth >= f.maxDepth {
		return constant.Value{}, false
	}
	switch d := f.resolver.Resolve(ref).(type) {
	case *codebase.FieldDecl:
		if d.EnumConstant {
			if d.Class == nil || d.Class.QualifiedName == "" {
				return constant.Value{}, false
			}
			return constant.MakeEnum(d.QualifiedName()), true
		}
		init := d.ConstantInitializer()
		if init == nil {
			return constant.Value{}, false
		}
		v, ok := f.eval(init, depth+1)
		if !ok {
			return constant.Value{}, false
		}
		return AsDeclared(d.Type, v)
	case *codebase.ClassDecl:
		if ref.ClassLiteral && d.QualifiedName != "" {
			return constant.MakeClass(d.QualifiedName), true
		}
	}
	return constant.Value{}, false
}

func (f *Folder) opaque(n *tree.Opaque, depth int) (constant.Value, bool) {
	switch n.Form {
	case tree.FormParen:
		if len(n.Operands) == 1 {
			return f.eval(n.Operands[0], depth)
		}
	case tree.FormUnary:
		if len(n.Operands) == 1 {
			if v, ok := f.eval(n.Operands[0], depth); ok {
				return Unary(n.Op, v)
			}
		}
	case tree.FormCast:
		if len(n.Operands) == 1 {
			if v, ok := f.eval(n.Operands[0], depth); ok {
				return Cast(n.Op, v)
			}
		}
	case tree.FormConditional:
		if len(n.Operands) == 3 {
			cond, ok := f.eval(n.Operands[0], depth)
			if !ok || cond.Kind() != constant.Bool {
				return constant.Value{}, false
			}
			if cond.BoolVal() {
				return f.eval(n.Operands[1], depth)
			}
			return f.eval(n.Operands[2], depth)
		}
	}
	if n.Evaluable && f.fallback != nil {
		return f.fallback.Evaluate(n)
	}
	return constant.Value{}, false
}

// AsDeclared converts the value of a constant initializer to the declared
// type of its field. Types other than primitives and String leave v as is.
func AsDeclared(typ string, v constant.Value) (constant.Value, bool) {
	if target := primitiveKind(typ); target != constant.Invalid {
		return Convert(v, target)
	}
	return v, true
}

// primitiveKind maps a declared type name to a constant kind.
func primitiveKind(typ string) constant.Kind {
	switch typ {
	case "byte":
		return constant.Byte
	case "short":
		return constant.Short
	case "int":
		return constant.Int
	case "long":
		return constant.Long
	case "char":
		return constant.Char
	case "float":
		return constant.Float
	case "double":
		return constant.Double
	case "boolean":
		return constant.Bool
	case "String", "java.lang.String":
		return constant.String
	}
	return constant.Invalid
}
