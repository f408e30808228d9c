package expr

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotPrintable is returned when a constant has no canonical text form.
var ErrNotPrintable = errors.New("expr: value has no canonical text form")

// Format renders the lambda body as canonical text. When alias is non-empty
// it replaces the parameter name, so lambdas that differ only in how their
// parameter was spelled format identically.
func Format(l *Lambda, alias string) (string, error) {
	p := &printer{tree: l.tree, param: l.param, alias: alias}
	return p.render(l.body)
}

type printer struct {
	tree    *Tree
	param   NodeID
	alias   string
	lenient bool
	sb      strings.Builder
}

func (p *printer) render(id NodeID) (string, error) {
	p.sb.Reset()
	if err := p.node(id); err != nil {
		return "", err
	}
	return p.sb.String(), nil
}

func (p *printer) node(id NodeID) error {
	n := &p.tree.nodes[id]
	switch n.Kind {
	case KindConstant:
		s, err := literal(n.Value, true)
		if err != nil {
			if !p.lenient {
				return err
			}
			s = fmt.Sprintf("%v", n.Value)
		}
		p.sb.WriteString(s)
	case KindParameter:
		if id == p.param && p.alias != "" {
			p.sb.WriteString(p.alias)
		} else {
			p.sb.WriteString(n.Name)
		}
	case KindField:
		if err := p.node(n.X); err != nil {
			return err
		}
		p.sb.WriteByte('.')
		p.sb.WriteString(n.Name)
	case KindCall:
		if n.X != NoNode {
			if err := p.node(n.X); err != nil {
				return err
			}
			p.sb.WriteByte('.')
		}
		p.sb.WriteString(n.Name)
		return p.args(n.Args)
	case KindBinary:
		p.sb.WriteByte('(')
		if err := p.node(n.X); err != nil {
			return err
		}
		p.sb.WriteByte(' ')
		p.sb.WriteString(n.Op.String())
		p.sb.WriteByte(' ')
		if err := p.node(n.Y); err != nil {
			return err
		}
		p.sb.WriteByte(')')
	case KindUnary:
		p.sb.WriteString(n.Op.String())
		return p.node(n.X)
	case KindNew:
		p.sb.WriteString("new ")
		p.sb.WriteString(n.Name)
		return p.args(n.Args)
	case KindConditional:
		return p.args([]NodeID{n.X, n.Y, n.Z}, "IIF")
	case KindConvert:
		p.sb.WriteString("Convert(")
		if err := p.node(n.X); err != nil {
			return err
		}
		p.sb.WriteString(", ")
		p.sb.WriteString(n.Type.Name)
		p.sb.WriteByte(')')
	default:
		return fmt.Errorf("expr: cannot format %s node", n.Kind)
	}
	return nil
}

func (p *printer) args(ids []NodeID, prefix ...string) error {
	for _, s := range prefix {
		p.sb.WriteString(s)
	}
	p.sb.WriteByte('(')
	for i, a := range ids {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		if err := p.node(a); err != nil {
			return err
		}
	}
	p.sb.WriteByte(')')
	return nil
}

// literal returns the canonical text of a constant value. Text-like values
// are quoted when quote is set.
func literal(v any, quote bool) (string, error) {
	q := func(s string) string {
		if quote {
			return strconv.Quote(s)
		}
		return s
	}
	switch x := v.(type) {
	case nil:
		return "null", nil
	case *List:
		return x.String(), nil
	case *Closure:
		return x.String(), nil
	case Deferred:
		return x.DeferredQuery(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case string:
		return q(x), nil
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return q(x.UTC().Format(time.RFC3339Nano)), nil
	case time.Duration:
		return x.String(), nil
	case uuid.UUID:
		return q(x.String()), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %T: %v", ErrNotPrintable, v, err)
		}
		return q(string(b)), nil
	case fmt.Stringer:
		return q(x.String()), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.String:
		return q(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "{}", nil
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		l, err := NewList(items)
		if err != nil {
			return "", err
		}
		return l.String(), nil
	}
	return "", fmt.Errorf("%w: %T", ErrNotPrintable, v)
}
