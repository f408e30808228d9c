package sqlq

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/unkn0wn-root/speccache/expr"
)

// ErrUnsupported is returned for predicates that have no SQL translation,
// such as nested member access or construction of new values.
var ErrUnsupported = errors.New("sqlq: unsupported expression")

// compiler translates lambdas into SQL fragments. Values are always bound as
// parameters, never interpolated.
type compiler struct {
	d       Dialect
	columns func(field string) (string, bool)
	args    []any
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return c.d.Placeholder(len(c.args))
}

// lambda compiles the body of l after folding its parameter-independent parts.
func (c *compiler) lambda(l *expr.Lambda) (string, error) {
	pe, err := expr.PartialEval(l, nil)
	if err != nil {
		return "", err
	}
	return c.node(pe, pe.Body())
}

func (c *compiler) node(l *expr.Lambda, id expr.NodeID) (string, error) {
	n := l.Tree().Node(id)
	switch n.Kind {
	case expr.KindConstant:
		return c.constant(n.Value), nil
	case expr.KindField:
		if n.X != l.Param() {
			return "", fmt.Errorf("%w: nested member %s", ErrUnsupported, n.Name)
		}
		col, ok := c.columns(n.Name)
		if !ok {
			return "", fmt.Errorf("sqlq: no column mapped for field %q", n.Name)
		}
		return col, nil
	case expr.KindBinary:
		return c.binary(l, n)
	case expr.KindUnary:
		x, err := c.node(l, n.X)
		if err != nil {
			return "", err
		}
		if n.Op == expr.OpNot {
			return "(NOT " + x + ")", nil
		}
		return "(-" + x + ")", nil
	case expr.KindCall:
		return c.call(l, n)
	case expr.KindConditional:
		parts, err := c.nodes(l, n.X, n.Y, n.Z)
		if err != nil {
			return "", err
		}
		return "(CASE WHEN " + parts[0] + " THEN " + parts[1] + " ELSE " + parts[2] + " END)", nil
	case expr.KindConvert:
		// Go numeric and string conversions keep their SQL value.
		return c.node(l, n.X)
	}
	return "", fmt.Errorf("%w: %s node", ErrUnsupported, n.Kind)
}

func (c *compiler) nodes(l *expr.Lambda, ids ...expr.NodeID) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		s, err := c.node(l, id)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (c *compiler) constant(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "(1 = 1)"
		}
		return "(1 = 0)"
	case nil:
		return "NULL"
	}
	return c.bind(v)
}

func isNull(l *expr.Lambda, id expr.NodeID) bool {
	n := l.Tree().Node(id)
	return n.Kind == expr.KindConstant && n.Value == nil
}

func isString(l *expr.Lambda, id expr.NodeID) bool {
	n := l.Tree().Node(id)
	if n.Type == expr.TypeString {
		return true
	}
	_, ok := n.Value.(string)
	return n.Kind == expr.KindConstant && ok
}

var sqlOps = map[expr.Op]string{
	expr.OpEq: "=", expr.OpNe: "<>",
	expr.OpLt: "<", expr.OpLe: "<=", expr.OpGt: ">", expr.OpGe: ">=",
	expr.OpAnd: "AND", expr.OpOr: "OR",
	expr.OpAdd: "+", expr.OpSub: "-", expr.OpMul: "*", expr.OpDiv: "/", expr.OpMod: "%",
}

func (c *compiler) binary(l *expr.Lambda, n expr.Node) (string, error) {
	if n.Op == expr.OpEq || n.Op == expr.OpNe {
		suffix := " IS NULL)"
		if n.Op == expr.OpNe {
			suffix = " IS NOT NULL)"
		}
		switch {
		case isNull(l, n.Y):
			x, err := c.node(l, n.X)
			return "(" + x + suffix, err
		case isNull(l, n.X):
			y, err := c.node(l, n.Y)
			return "(" + y + suffix, err
		}
	}
	parts, err := c.nodes(l, n.X, n.Y)
	if err != nil {
		return "", err
	}
	op := sqlOps[n.Op]
	if n.Op == expr.OpAdd && (isString(l, n.X) || isString(l, n.Y)) {
		op = "||"
	}
	return "(" + parts[0] + " " + op + " " + parts[1] + ")", nil
}

func (c *compiler) call(l *expr.Lambda, n expr.Node) (string, error) {
	operands := n.Args
	if n.X != expr.NoNode {
		operands = append([]expr.NodeID{n.X}, n.Args...)
	}
	switch n.Name {
	case "ToLower", "ToUpper", "Len":
		x, err := c.node(l, operands[0])
		if err != nil {
			return "", err
		}
		fn := map[string]string{"ToLower": "LOWER", "ToUpper": "UPPER", "Len": "LENGTH"}[n.Name]
		return fn + "(" + x + ")", nil
	case "Contains":
		if items, ok := constSeq(l, operands[0]); ok {
			return c.in(l, operands[1], items)
		}
		if n.SeqMask != 0 {
			return "", fmt.Errorf("%w: membership in a non-constant collection", ErrUnsupported)
		}
		parts, err := c.nodes(l, operands[0], operands[1])
		if err != nil {
			return "", err
		}
		return "(" + c.d.Position(parts[0], parts[1]) + " > 0)", nil
	case "StartsWith":
		parts, err := c.nodes(l, operands[0], operands[1])
		if err != nil {
			return "", err
		}
		return "(" + c.d.Position(parts[0], parts[1]) + " = 1)", nil
	case "EndsWith":
		s, err := c.node(l, operands[0])
		if err != nil {
			return "", err
		}
		// The suffix is bound twice so both placeholders get a value.
		suffix := l.Tree().Node(operands[1])
		if suffix.Kind != expr.KindConstant {
			return "", fmt.Errorf("%w: EndsWith with a non-constant suffix", ErrUnsupported)
		}
		a, b := c.bind(suffix.Value), c.bind(suffix.Value)
		return "(SUBSTR(" + s + ", LENGTH(" + s + ") - LENGTH(" + a + ") + 1) = " + b + ")", nil
	}
	return "", fmt.Errorf("%w: method %s", ErrUnsupported, n.Name)
}

func (c *compiler) in(l *expr.Lambda, x expr.NodeID, items []any) (string, error) {
	if len(items) == 0 {
		return "(1 = 0)", nil
	}
	col, err := c.node(l, x)
	if err != nil {
		return "", err
	}
	ph := make([]string, len(items))
	for i, it := range items {
		ph[i] = c.bind(it)
	}
	return "(" + col + " IN (" + strings.Join(ph, ", ") + "))", nil
}

// constSeq returns the elements of a constant collection operand.
func constSeq(l *expr.Lambda, id expr.NodeID) ([]any, bool) {
	n := l.Tree().Node(id)
	if n.Kind != expr.KindConstant || n.Value == nil {
		return nil, false
	}
	if list, ok := n.Value.(*expr.List); ok {
		return list.Items(), true
	}
	rv := reflect.ValueOf(n.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
