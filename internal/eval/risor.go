package eval

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
)

// DefaultRisorTimeout bounds a single expression evaluation.
const DefaultRisorTimeout = 250 * time.Millisecond

var (
	longSuffix   = regexp.MustCompile(`\b(0[xXbB][0-9a-fA-F_]+|[0-9][0-9_]*)[lL]\b`)
	floatSuffix  = regexp.MustCompile(`\b([0-9][0-9_]*\.?[0-9_]*(?:[eE][+-]?[0-9]+)?)[fF]\b`)
	doubleSuffix = regexp.MustCompile(`\b([0-9][0-9_]*\.?[0-9_]*(?:[eE][+-]?[0-9]+)?)[dD]\b`)
	digitGroups  = regexp.MustCompile(`([0-9])_+([0-9])`)
	// Casts, char literals, member access, calls, shifts and bitwise
	// operators are not attempted. Shifts mask their distance in Java and
	// the sandbox has no bitwise operators.
	unsupported = regexp.MustCompile(`'|\(\s*(?:byte|short|char|int|long|float|double|boolean|String)\s*\)|[A-Za-z_$][\w$]*\s*[.(]|<<|>>|(?:^|[^|])\|(?:[^|]|$)|(?:^|[^&])&(?:[^&]|$)|\^|~|\?`)
	// An int division or remainder after an overflowing step would differ
	// from Java, so int results of such expressions are rejected.
	divides = regexp.MustCompile(`[/%]`)
	// Any floating literal makes a floating result legitimate.
	floatingLit = regexp.MustCompile(`[0-9]\.|\.[0-9]|[0-9][eE][+-]?[0-9]|[0-9][fFdD]\b`)
)

// Risor evaluates opaque expression text in a sandboxed risor VM with no
// globals. Only self-contained arithmetic, logical and string expressions
// over literals can succeed.
type Risor struct {
	timeout time.Duration
}

// RisorOption configures a Risor evaluator.
type RisorOption func(*Risor)

// WithTimeout bounds each evaluation.
func WithTimeout(d time.Duration) RisorOption {
	return func(r *Risor) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRisor returns a Risor evaluator.
func NewRisor(opts ...RisorOption) *Risor {
	r := &Risor{timeout: DefaultRisorTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Risor) Evaluate(n tree.Node) (constant.Value, bool) {
	if n == nil {
		return constant.Value{}, false
	}
	if o, ok := n.(*tree.Opaque); ok && !o.Evaluable {
		return constant.Value{}, false
	}
	return r.EvaluateText(n.Text())
}

// EvaluateText evaluates a source expression.
func (r *Risor) EvaluateText(text string) (constant.Value, bool) {
	src, long, single, ok := translate(text)
	if !ok {
		return constant.Value{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	result, err := risor.Eval(ctx, src, risor.WithoutDefaultGlobals())
	if err != nil {
		return constant.Value{}, false
	}
	return fromObject(result, javaTypes{
		long:     long,
		single:   single,
		floating: floatingLit.MatchString(text),
		divides:  divides.MatchString(src),
	})
}

// translate rewrites literal suffixes and digit separators so the text
// parses as a risor expression. It reports whether a long or float suffix
// was present, which decides the result's width.
func translate(text string) (src string, long, single, ok bool) {
	src = strings.TrimSpace(text)
	if src == "" || unsupported.MatchString(src) {
		return "", false, false, false
	}
	long = longSuffix.MatchString(src)
	single = floatSuffix.MatchString(src)
	src = longSuffix.ReplaceAllString(src, "$1")
	src = floatSuffix.ReplaceAllString(src, "$1")
	src = doubleSuffix.ReplaceAllString(src, "$1")
	for digitGroups.MatchString(src) {
		src = digitGroups.ReplaceAllString(src, "$1$2")
	}
	return src, long, single, true
}

// javaTypes describes the source expression a sandbox result came from.
type javaTypes struct {
	long     bool
	single   bool
	floating bool
	divides  bool
}

// fromObject converts a sandbox result to the value Java would compute.
// Without a long operand the expression is int arithmetic, which wraps at
// 32 bits; addition, subtraction and multiplication agree with Java after
// truncation.
func fromObject(obj object.Object, t javaTypes) (constant.Value, bool) {
	switch o := obj.(type) {
	case *object.Int:
		v := o.Value()
		if t.long {
			return constant.MakeLong(v), true
		}
		if t.divides {
			return constant.Value{}, false
		}
		return constant.MakeInt(int32(v)), true
	case *object.Float:
		if !t.floating {
			return constant.Value{}, false
		}
		if t.single {
			return constant.MakeFloat(float32(o.Value())), true
		}
		return constant.MakeDouble(o.Value()), true
	case *object.String:
		return constant.MakeString(o.Value()), true
	case *object.Bool:
		return constant.MakeBool(o.Value()), true
	}
	return constant.Value{}, false
}
