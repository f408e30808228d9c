package expr

import "fmt"

// Operand is anything that can take part in an expression: a Ref, a Capture,
// the result of In/New/Const, or a plain Go value (wrapped as a Constant).
type Operand interface {
	build(b *builder) NodeID
}

type builder struct {
	tree  *Tree
	param NodeID
}

// Ref is a handle on a node of a lambda under construction. Refs are only
// valid inside the body function passed to NewLambda.
type Ref struct {
	b  *builder
	id NodeID
}

func (r Ref) build(b *builder) NodeID {
	if r.b != b {
		panic("expr: Ref used outside the lambda that created it")
	}
	return r.id
}

// NewLambda builds a lambda whose parameter is named param. Every reference
// to the parameter inside body shares the same node.
//
//	expr.NewLambda("o", func(o expr.Ref) expr.Operand {
//		return o.Field("Status").Eq("Paid")
//	})
func NewLambda(param string, body func(p Ref) Operand) *Lambda {
	b := &builder{tree: &Tree{}}
	b.param = b.tree.add(Node{Kind: KindParameter, Type: TypeAny, Name: param, X: NoNode, Y: NoNode, Z: NoNode})
	out := b.operand(body(Ref{b: b, id: b.param}))
	return &Lambda{tree: b.tree, param: b.param, body: out}
}

// Member is shorthand for a lambda selecting a (possibly nested) field path,
// e.g. Member("o", "Customer", "Name") is o => o.Customer.Name.
func Member(param string, path ...string) *Lambda {
	return NewLambda(param, func(p Ref) Operand {
		r := p
		for _, f := range path {
			r = r.Field(f)
		}
		return r
	})
}

func (b *builder) operand(v any) NodeID {
	if op, ok := v.(Operand); ok {
		return op.build(b)
	}
	return b.tree.addConst(v, TypeOf(v))
}

func (b *builder) operands(vs []any) []NodeID {
	ids := make([]NodeID, len(vs))
	for i, v := range vs {
		ids[i] = b.operand(v)
	}
	return ids
}

func (b *builder) ref(id NodeID) Ref { return Ref{b: b, id: id} }

func (b *builder) typeOf(id NodeID) Type { return b.tree.nodes[id].Type }

func (b *builder) binary(op Op, x, y NodeID) NodeID {
	t := TypeBool
	if !op.IsComparison() && !op.IsLogical() {
		t = b.typeOf(x)
	}
	return b.tree.add(Node{Kind: KindBinary, Type: t, Op: op, X: x, Y: y, Z: NoNode})
}

func (b *builder) call(recv NodeID, name string, args []NodeID) NodeID {
	m, ok := lookupMethod(name)
	if !ok {
		panic(fmt.Sprintf("expr: unknown method %q", name))
	}
	if n := callArity(recv, args); n != m.arity {
		panic(fmt.Sprintf("expr: %s takes %d operands, got %d", name, m.arity, n))
	}
	n := Node{Kind: KindCall, Name: name, X: recv, Y: NoNode, Z: NoNode, Args: args}
	if recv != NoNode && b.typeOf(recv).Seq {
		n.SeqMask |= 1
	}
	for i, a := range args {
		if b.typeOf(a).Seq {
			n.SeqMask |= 1 << uint(i+1)
		}
	}
	n.Type = m.result
	return b.tree.add(n)
}

// Field accesses a member of the receiver.
func (r Ref) Field(name string) Ref {
	return r.b.ref(r.b.tree.add(Node{Kind: KindField, Type: TypeAny, Name: name, X: r.id, Y: NoNode, Z: NoNode}))
}

func (r Ref) bin(op Op, v any) Ref {
	return r.b.ref(r.b.binary(op, r.id, r.b.operand(v)))
}

func (r Ref) Eq(v any) Ref  { return r.bin(OpEq, v) }
func (r Ref) Ne(v any) Ref  { return r.bin(OpNe, v) }
func (r Ref) Lt(v any) Ref  { return r.bin(OpLt, v) }
func (r Ref) Le(v any) Ref  { return r.bin(OpLe, v) }
func (r Ref) Gt(v any) Ref  { return r.bin(OpGt, v) }
func (r Ref) Ge(v any) Ref  { return r.bin(OpGe, v) }
func (r Ref) And(v any) Ref { return r.bin(OpAnd, v) }
func (r Ref) Or(v any) Ref  { return r.bin(OpOr, v) }
func (r Ref) Add(v any) Ref { return r.bin(OpAdd, v) }
func (r Ref) Sub(v any) Ref { return r.bin(OpSub, v) }
func (r Ref) Mul(v any) Ref { return r.bin(OpMul, v) }
func (r Ref) Div(v any) Ref { return r.bin(OpDiv, v) }
func (r Ref) Mod(v any) Ref { return r.bin(OpMod, v) }

func (r Ref) Not() Ref { return r.b.ref(Unary(OpNot, r).build(r.b)) }

func (r Ref) Neg() Ref { return r.b.ref(Unary(OpNeg, r).build(r.b)) }

// Call invokes a registered method on the receiver.
func (r Ref) Call(method string, args ...any) Ref {
	return r.b.ref(r.b.call(r.id, method, r.b.operands(args)))
}

// Contains is sequence membership when the receiver is a sequence and
// substring search when it is a string.
func (r Ref) Contains(v any) Ref   { return r.Call("Contains", v) }
func (r Ref) StartsWith(s any) Ref { return r.Call("StartsWith", s) }
func (r Ref) EndsWith(s any) Ref   { return r.Call("EndsWith", s) }
func (r Ref) ToLower() Ref         { return r.Call("ToLower") }
func (r Ref) ToUpper() Ref         { return r.Call("ToUpper") }
func (r Ref) Len() Ref             { return r.Call("Len") }

// Convert changes the static type of the receiver.
func (r Ref) Convert(t Type) Ref {
	return r.b.ref(r.b.tree.add(Node{Kind: KindConvert, Type: t, Name: t.Name, X: r.id, Y: NoNode, Z: NoNode}))
}

// If builds a conditional with the receiver as the test.
func (r Ref) If(then, otherwise any) Ref {
	return r.b.ref(Cond(r, then, otherwise).build(r.b))
}

type constOperand struct{ v any }

func (c constOperand) build(b *builder) NodeID { return b.tree.addConst(c.v, TypeOf(c.v)) }

// Const wraps v as a literal operand.
func Const(v any) Operand { return constOperand{v: v} }

type captureOperand struct {
	name string
	typ  Type
	get  func() any
}

func (c captureOperand) build(b *builder) NodeID {
	env := b.tree.addConst(&Closure{name: c.name, get: c.get}, TypeClosure)
	return b.tree.add(Node{Kind: KindField, Type: c.typ, Name: c.name, X: env, Y: NoNode, Z: NoNode})
}

// Capture references a local variable the way a closure would: the node
// reads *p when evaluated and renders as value(closure).name until partially
// evaluated.
func Capture[T any](name string, p *T) Operand {
	return captureOperand{name: name, typ: TypeFor[T](), get: func() any { return *p }}
}

// Closure is the environment object behind a Capture.
type Closure struct {
	name string
	get  func() any
}

func (c *Closure) String() string { return "value(closure)" }

// CaptureValue is Capture for a value known only at run time, such as a
// variable bound by a parsed predicate. The node is typed from v.
func CaptureValue(name string, v any) Operand {
	return captureOperand{name: name, typ: TypeOf(v), get: func() any { return v }}
}

type nodeFunc func(b *builder) NodeID

func (f nodeFunc) build(b *builder) NodeID { return f(b) }

// Binary combines two operands with op.
func Binary(op Op, x, y any) Operand {
	return nodeFunc(func(b *builder) NodeID {
		return b.binary(op, b.operand(x), b.operand(y))
	})
}

// Unary applies OpNot or OpNeg to x.
func Unary(op Op, x any) Operand {
	return nodeFunc(func(b *builder) NodeID {
		id := b.operand(x)
		t := b.typeOf(id)
		if op == OpNot {
			t = TypeBool
		}
		return b.tree.add(Node{Kind: KindUnary, Type: t, Op: op, X: id, Y: NoNode, Z: NoNode})
	})
}

// Select reads member name of x.
func Select(x any, name string) Operand {
	return nodeFunc(func(b *builder) NodeID {
		return b.tree.add(Node{Kind: KindField, Type: TypeAny, Name: name, X: b.operand(x), Y: NoNode, Z: NoNode})
	})
}

// Invoke calls a registered method on recv.
func Invoke(recv any, method string, args ...any) Operand {
	return nodeFunc(func(b *builder) NodeID {
		r := b.operand(recv)
		return b.call(r, method, b.operands(args))
	})
}

// Static calls a registered method with no receiver.
func Static(method string, args ...any) Operand {
	return nodeFunc(func(b *builder) NodeID {
		return b.call(NoNode, method, b.operands(args))
	})
}

// Cond builds test ? then : otherwise.
func Cond(test, then, otherwise any) Operand {
	return nodeFunc(func(b *builder) NodeID {
		x := b.operand(test)
		y := b.operand(then)
		z := b.operand(otherwise)
		return b.tree.add(Node{Kind: KindConditional, Type: b.typeOf(y), X: x, Y: y, Z: z})
	})
}

// In builds the static membership test Contains(coll, x).
func In(x, coll any) Operand { return Static("Contains", coll, x) }

type newOperand struct {
	typ  string
	args []any
}

func (o newOperand) build(b *builder) NodeID {
	t := Type{Name: o.typ, Seq: o.typ == ListConstructor}
	return b.tree.add(Node{Kind: KindNew, Type: t, Name: o.typ, X: NoNode, Y: NoNode, Z: NoNode, Args: b.operands(o.args)})
}

// New builds a construction node. Construction is never folded by the
// partial evaluator.
func New(typ string, args ...any) Operand { return newOperand{typ: typ, args: args} }

// And joins operands with &&. With no operands it yields the constant true.
func And(ops ...any) Operand { return logical{op: OpAnd, ops: ops} }

// Or joins operands with ||. With no operands it yields the constant false.
func Or(ops ...any) Operand { return logical{op: OpOr, ops: ops} }

type logical struct {
	op  Op
	ops []any
}

func (l logical) build(b *builder) NodeID {
	if len(l.ops) == 0 {
		return b.tree.addConst(l.op == OpAnd, TypeBool)
	}
	acc := b.operand(l.ops[0])
	for _, o := range l.ops[1:] {
		acc = b.binary(l.op, acc, b.operand(o))
	}
	return acc
}
