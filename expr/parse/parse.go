// Package parse reads predicates written as text, e.g.
//
//	o => o.Status == "Paid" && o.Total > $min
//
// into expr lambdas. $name refers to a caller-supplied variable and behaves
// like a closure capture, so it folds to a constant under partial evaluation.
package parse

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/unkn0wn-root/speccache/expr"
)

// Vars binds $name references.
type Vars map[string]any

var predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Op", Pattern: `=>|==|!=|<=|>=|&&|\|\||[-+*/%<>!?:.,(){}$]`},
})

var parser = participle.MustBuild[lambdaNode](
	participle.Lexer(predicateLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Lambda parses src into a lambda.
func Lambda(src string, vars Vars) (*expr.Lambda, error) {
	ast, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	c := &converter{param: ast.Param, vars: vars}
	l := expr.NewLambda(ast.Param, func(p expr.Ref) expr.Operand {
		c.ref = p
		op, err := c.ternary(ast.Body)
		if err != nil {
			c.err = err
			return expr.Const(false)
		}
		return op
	})
	if c.err != nil {
		return nil, c.err
	}
	return l, nil
}

// MustLambda is Lambda that panics on error. Intended for literals in code.
func MustLambda(src string, vars Vars) *expr.Lambda {
	l, err := Lambda(src, vars)
	if err != nil {
		panic(err)
	}
	return l
}

type converter struct {
	param string
	ref   expr.Ref
	vars  Vars
	err   error
}

func (c *converter) ternary(n *ternaryNode) (expr.Operand, error) {
	test, err := c.or(n.Cond)
	if err != nil || n.Then == nil {
		return test, err
	}
	then, err := c.ternary(n.Then)
	if err != nil {
		return nil, err
	}
	otherwise, err := c.ternary(n.Else)
	if err != nil {
		return nil, err
	}
	return expr.Cond(test, then, otherwise), nil
}

func (c *converter) or(n *orNode) (expr.Operand, error) {
	acc, err := c.and(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Right {
		y, err := c.and(r)
		if err != nil {
			return nil, err
		}
		acc = expr.Binary(expr.OpOr, acc, y)
	}
	return acc, nil
}

func (c *converter) and(n *andNode) (expr.Operand, error) {
	acc, err := c.cmp(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Right {
		y, err := c.cmp(r)
		if err != nil {
			return nil, err
		}
		acc = expr.Binary(expr.OpAnd, acc, y)
	}
	return acc, nil
}

var comparisons = map[string]expr.Op{
	"==": expr.OpEq, "!=": expr.OpNe,
	"<": expr.OpLt, "<=": expr.OpLe,
	">": expr.OpGt, ">=": expr.OpGe,
}

var arithmetic = map[string]expr.Op{
	"+": expr.OpAdd, "-": expr.OpSub,
	"*": expr.OpMul, "/": expr.OpDiv, "%": expr.OpMod,
}

func (c *converter) cmp(n *cmpNode) (expr.Operand, error) {
	x, err := c.add(n.Left)
	if err != nil || n.Op == "" {
		return x, err
	}
	y, err := c.add(n.Right)
	if err != nil {
		return nil, err
	}
	return expr.Binary(comparisons[n.Op], x, y), nil
}

func (c *converter) add(n *addNode) (expr.Operand, error) {
	acc, err := c.mul(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Rest {
		y, err := c.mul(r.X)
		if err != nil {
			return nil, err
		}
		acc = expr.Binary(arithmetic[r.Op], acc, y)
	}
	return acc, nil
}

func (c *converter) mul(n *mulNode) (expr.Operand, error) {
	acc, err := c.unary(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Rest {
		y, err := c.unary(r.X)
		if err != nil {
			return nil, err
		}
		acc = expr.Binary(arithmetic[r.Op], acc, y)
	}
	return acc, nil
}

func (c *converter) unary(n *unaryNode) (expr.Operand, error) {
	if n.Postfix != nil {
		return c.postfix(n.Postfix)
	}
	x, err := c.unary(n.X)
	if err != nil {
		return nil, err
	}
	if n.Op == "!" {
		return expr.Unary(expr.OpNot, x), nil
	}
	return expr.Unary(expr.OpNeg, x), nil
}

func (c *converter) postfix(n *postfixNode) (expr.Operand, error) {
	acc, err := c.primary(n.Primary)
	if err != nil {
		return nil, err
	}
	for _, s := range n.Selectors {
		if s.Call == nil {
			acc = expr.Select(acc, s.Name)
			continue
		}
		args, err := c.args(s.Name, s.Call.Args, 1)
		if err != nil {
			return nil, err
		}
		acc = expr.Invoke(acc, s.Name, args...)
	}
	return acc, nil
}

func (c *converter) args(method string, nodes []*ternaryNode, recv int) ([]any, error) {
	want, ok := expr.MethodArity(method)
	if !ok {
		return nil, fmt.Errorf("parse: unknown method %q", method)
	}
	if got := len(nodes) + recv; got != want {
		return nil, fmt.Errorf("parse: %s takes %d operands, got %d", method, want, got)
	}
	out := make([]any, len(nodes))
	for i, a := range nodes {
		op, err := c.ternary(a)
		if err != nil {
			return nil, err
		}
		out[i] = op
	}
	return out, nil
}

func (c *converter) primary(n *primaryNode) (expr.Operand, error) {
	switch {
	case n.Float != nil:
		return expr.Const(*n.Float), nil
	case n.Int != nil:
		return expr.Const(*n.Int), nil
	case n.String != nil:
		return expr.Const(*n.String), nil
	case n.Bool != "":
		return expr.Const(n.Bool == "true"), nil
	case n.Null:
		return expr.Const(nil), nil
	case n.Var != "":
		v, ok := c.vars[n.Var]
		if !ok {
			return nil, fmt.Errorf("parse: variable $%s is not bound", n.Var)
		}
		return expr.CaptureValue(n.Var, v), nil
	case n.List != nil:
		items := make([]any, len(n.List.Items))
		for i, it := range n.List.Items {
			op, err := c.ternary(it)
			if err != nil {
				return nil, err
			}
			items[i] = op
		}
		return expr.New(expr.ListConstructor, items...), nil
	case n.Ident != nil:
		return c.ident(n.Ident)
	case n.Sub != nil:
		return c.ternary(n.Sub)
	}
	return nil, fmt.Errorf("parse: empty operand")
}

func (c *converter) ident(n *identNode) (expr.Operand, error) {
	if n.Call != nil {
		args, err := c.args(n.Name, n.Call.Args, 0)
		if err != nil {
			return nil, err
		}
		return expr.Static(n.Name, args...), nil
	}
	if n.Name != c.param {
		return nil, fmt.Errorf("parse: unknown identifier %q (parameter is %q)", n.Name, c.param)
	}
	return c.ref, nil
}

// Describe renders the grammar, for CLI help output.
func Describe() string {
	return strings.TrimSpace(parser.String())
}
