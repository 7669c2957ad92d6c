// Package eval computes compile-time constant values of annotation
// expressions. Failing to evaluate is a normal outcome and is reported with
// a false result, never an error or panic.
package eval

import (
	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
)

// Evaluator computes the constant value of an expression node.
type Evaluator interface {
	Evaluate(n tree.Node) (constant.Value, bool)
}

// Func adapts a function to the Evaluator interface.
type Func func(n tree.Node) (constant.Value, bool)

func (f Func) Evaluate(n tree.Node) (constant.Value, bool) { return f(n) }

// Chain tries each evaluator in order and returns the first success.
type Chain []Evaluator

func (c Chain) Evaluate(n tree.Node) (constant.Value, bool) {
	for _, e := range c {
		if e == nil {
			continue
		}
		if v, ok := e.Evaluate(n); ok {
			return v, true
		}
	}
	return constant.Value{}, false
}

// None never evaluates anything.
var None Evaluator = Func(func(tree.Node) (constant.Value, bool) { return constant.Value{}, false })
