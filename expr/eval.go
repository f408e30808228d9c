package expr

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListConstructor is the New type name that evaluates to []any of its arguments.
const ListConstructor = "list"

var (
	ErrUnboundParameter = errors.New("expr: parameter is not bound")
	ErrNotBool          = errors.New("expr: predicate did not yield a bool")
)

// FieldGetter lets records expose fields without reflection.
type FieldGetter interface {
	Field(name string) (any, bool)
}

type env struct {
	param NodeID
	value any
	bound bool
}

// Eval evaluates the lambda body with the parameter bound to entity.
func Eval(l *Lambda, entity any) (any, error) {
	return l.tree.eval(l.body, &env{param: l.param, value: entity, bound: true})
}

// EvalBool evaluates a predicate lambda against entity.
func EvalBool(l *Lambda, entity any) (bool, error) {
	v, err := Eval(l, entity)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNotBool, v)
	}
	return b, nil
}

// evalDetached evaluates a subtree that must not depend on the parameter.
func (t *Tree) evalDetached(id NodeID) (any, error) {
	return t.eval(id, &env{param: NoNode})
}

func (t *Tree) eval(id NodeID, e *env) (any, error) {
	n := &t.nodes[id]
	switch n.Kind {
	case KindConstant:
		return n.Value, nil
	case KindParameter:
		if !e.bound || id != e.param {
			return nil, fmt.Errorf("%w: %s", ErrUnboundParameter, n.Name)
		}
		return e.value, nil
	case KindField:
		target, err := t.eval(n.X, e)
		if err != nil {
			return nil, err
		}
		return FieldOf(target, n.Name)
	case KindCall:
		return t.evalCall(n, e)
	case KindBinary:
		return t.evalBinary(n, e)
	case KindUnary:
		v, err := t.eval(n.X, e)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, v)
	case KindNew:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			v, err := t.eval(a, e)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		if n.Name == ListConstructor {
			return args, nil
		}
		return nil, fmt.Errorf("expr: cannot construct %s", n.Name)
	case KindConditional:
		test, err := t.eval(n.X, e)
		if err != nil {
			return nil, err
		}
		b, ok := test.(bool)
		if !ok {
			return nil, fmt.Errorf("expr: conditional test is %T, want bool", test)
		}
		if b {
			return t.eval(n.Y, e)
		}
		return t.eval(n.Z, e)
	case KindConvert:
		v, err := t.eval(n.X, e)
		if err != nil {
			return nil, err
		}
		return convert(v, n.Type)
	}
	return nil, fmt.Errorf("expr: cannot evaluate %s node", n.Kind)
}

func (t *Tree) evalCall(n *Node, e *env) (any, error) {
	m, ok := lookupMethod(n.Name)
	if !ok {
		return nil, fmt.Errorf("expr: unknown method %q", n.Name)
	}
	args := make([]any, 0, len(n.Args)+1)
	if n.X != NoNode {
		v, err := t.eval(n.X, e)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	for _, a := range n.Args {
		v, err := t.eval(a, e)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	out, err := m.eval(args)
	if err != nil {
		return nil, fmt.Errorf("expr: %s: %w", n.Name, err)
	}
	return out, nil
}

func (t *Tree) evalBinary(n *Node, e *env) (any, error) {
	x, err := t.eval(n.X, e)
	if err != nil {
		return nil, err
	}
	if n.Op.IsLogical() {
		xb, ok := x.(bool)
		if !ok {
			return nil, fmt.Errorf("expr: %s operand is %T, want bool", n.Op, x)
		}
		if (n.Op == OpAnd && !xb) || (n.Op == OpOr && xb) {
			return xb, nil
		}
		y, err := t.eval(n.Y, e)
		if err != nil {
			return nil, err
		}
		yb, ok := y.(bool)
		if !ok {
			return nil, fmt.Errorf("expr: %s operand is %T, want bool", n.Op, y)
		}
		return yb, nil
	}
	y, err := t.eval(n.Y, e)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpEq:
		return Equal(x, y), nil
	case OpNe:
		return !Equal(x, y), nil
	case OpLt, OpLe, OpGt, OpGe:
		if x == nil || y == nil {
			return false, nil
		}
		c, err := Compare(x, y)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	}
	return arith(n.Op, x, y)
}

// FieldOf reads field name from v. Nil records propagate nil.
func FieldOf(v any, name string) (any, error) {
	switch r := v.(type) {
	case nil:
		return nil, nil
	case *Closure:
		if r.name != name {
			return nil, fmt.Errorf("expr: closure has no variable %q", name)
		}
		return r.get(), nil
	case FieldGetter:
		if out, ok := r.Field(name); ok {
			return out, nil
		}
		return nil, fmt.Errorf("expr: %T has no field %q", v, name)
	case map[string]any:
		return r[name], nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expr: cannot read field %q of %T", name, v)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() {
		return nil, fmt.Errorf("expr: %s has no field %q", rv.Type(), name)
	}
	if !f.CanInterface() {
		return nil, fmt.Errorf("expr: field %s.%s is unexported", rv.Type(), name)
	}
	return f.Interface(), nil
}

// number normalizes Go numeric kinds; ok is false for non-numbers.
func number(v any) (i int64, f float64, isFloat, ok bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), 0, false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, float64(u), true, true
		}
		return int64(u), 0, false, true
	case reflect.Float32, reflect.Float64:
		return 0, rv.Float(), true, true
	}
	return 0, 0, false, false
}

func asFloat(i int64, f float64, isFloat bool) float64 {
	if isFloat {
		return f
	}
	return float64(i)
}

// Equal reports whether two evaluated values are equal. Numbers compare by
// value across Go kinds.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, err := Compare(a, b); err == nil {
		return c == 0
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	if ra.Type().Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two evaluated values of compatible types.
func Compare(a, b any) (int, error) {
	if ai, af, aflt, ok := number(a); ok {
		bi, bf, bflt, ok := number(b)
		if !ok {
			if bd, ok := b.(decimal.Decimal); ok {
				return decimalOf(ai, af, aflt).Cmp(bd), nil
			}
			return 0, incomparable(a, b)
		}
		if !aflt && !bflt {
			return cmpOrdered(ai, bi), nil
		}
		return cmpOrdered(asFloat(ai, af, aflt), asFloat(bi, bf, bflt)), nil
	}
	switch x := a.(type) {
	case decimal.Decimal:
		switch y := b.(type) {
		case decimal.Decimal:
			return x.Cmp(y), nil
		default:
			if bi, bf, bflt, ok := number(b); ok {
				return x.Cmp(decimalOf(bi, bf, bflt)), nil
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:]), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return strings.Compare(ra.String(), rb.String()), nil
	}
	return 0, incomparable(a, b)
}

func incomparable(a, b any) error {
	return fmt.Errorf("expr: cannot compare %T with %T", a, b)
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func decimalOf(i int64, f float64, isFloat bool) decimal.Decimal {
	if isFloat {
		return decimal.NewFromFloat(f)
	}
	return decimal.NewFromInt(i)
}

func unary(op Op, v any) (any, error) {
	switch op {
	case OpNot:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expr: ! operand is %T, want bool", v)
		}
		return !b, nil
	case OpNeg:
		if d, ok := v.(decimal.Decimal); ok {
			return d.Neg(), nil
		}
		i, f, isFloat, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("expr: - operand is %T, want number", v)
		}
		if isFloat {
			return -f, nil
		}
		return -i, nil
	}
	return nil, fmt.Errorf("expr: unsupported unary operator %s", op)
}

func arith(op Op, x, y any) (any, error) {
	if xs, ok := x.(string); ok && op == OpAdd {
		if ys, ok := y.(string); ok {
			return xs + ys, nil
		}
	}
	_, xdec := x.(decimal.Decimal)
	_, ydec := y.(decimal.Decimal)
	if xdec || ydec {
		return decimalArith(op, x, y)
	}
	xi, xf, xflt, ok1 := number(x)
	yi, yf, yflt, ok2 := number(y)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("expr: cannot apply %s to %T and %T", op, x, y)
	}
	if xflt || yflt {
		a, b := asFloat(xi, xf, xflt), asFloat(yi, yf, yflt)
		switch op {
		case OpAdd:
			return a + b, nil
		case OpSub:
			return a - b, nil
		case OpMul:
			return a * b, nil
		case OpDiv:
			return a / b, nil
		case OpMod:
			return math.Mod(a, b), nil
		}
	} else {
		switch op {
		case OpAdd:
			return xi + yi, nil
		case OpSub:
			return xi - yi, nil
		case OpMul:
			return xi * yi, nil
		case OpDiv, OpMod:
			if yi == 0 {
				return nil, errors.New("expr: integer division by zero")
			}
			if op == OpDiv {
				return xi / yi, nil
			}
			return xi % yi, nil
		}
	}
	return nil, fmt.Errorf("expr: unsupported operator %s", op)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	if d, ok := v.(decimal.Decimal); ok {
		return d, true
	}
	i, f, isFloat, ok := number(v)
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimalOf(i, f, isFloat), true
}

func decimalArith(op Op, x, y any) (any, error) {
	a, ok1 := toDecimal(x)
	b, ok2 := toDecimal(y)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("expr: cannot apply %s to %T and %T", op, x, y)
	}
	switch op {
	case OpAdd:
		return a.Add(b), nil
	case OpSub:
		return a.Sub(b), nil
	case OpMul:
		return a.Mul(b), nil
	case OpDiv, OpMod:
		if b.IsZero() {
			return nil, errors.New("expr: decimal division by zero")
		}
		if op == OpDiv {
			return a.Div(b), nil
		}
		return a.Mod(b), nil
	}
	return nil, fmt.Errorf("expr: unsupported operator %s", op)
}

func convert(v any, t Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Name {
	case "int64", "int":
		i, f, isFloat, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("expr: cannot convert %T to %s", v, t.Name)
		}
		if isFloat {
			return int64(f), nil
		}
		return i, nil
	case "float64":
		i, f, isFloat, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("expr: cannot convert %T to %s", v, t.Name)
		}
		return asFloat(i, f, isFloat), nil
	case "string":
		if s, ok := v.(string); ok {
			return s, nil
		}
		s, err := literal(v, false)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "decimal.Decimal":
		d, ok := toDecimal(v)
		if !ok {
			return nil, fmt.Errorf("expr: cannot convert %T to %s", v, t.Name)
		}
		return d, nil
	}
	return v, nil
}
