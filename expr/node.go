// Package expr implements the predicate AST used by specifications.
//
// A predicate is a Lambda over a single entity parameter. Nodes live in an
// arena (Tree) and are addressed by NodeID, so identity-based analyses such as
// partial evaluation key their state on indexes instead of structural hashes.
//
// Trees are read-only once built. Every transformation in this package
// (PartialEval, ExpandCollections, Conjoin) produces a new Tree.
package expr

import (
	"fmt"
	"reflect"
)

// NodeID addresses a node inside a Tree.
type NodeID int32

// NoNode marks an absent operand (e.g. the receiver of a static call).
const NoNode NodeID = -1

type Kind uint8

const (
	KindConstant Kind = iota + 1
	KindParameter
	KindField
	KindCall
	KindBinary
	KindUnary
	KindNew
	KindConditional
	KindConvert
)

var kindNames = [...]string{
	KindConstant:    "Constant",
	KindParameter:   "Parameter",
	KindField:       "Field",
	KindCall:        "Call",
	KindBinary:      "Binary",
	KindUnary:       "Unary",
	KindNew:         "New",
	KindConditional: "Conditional",
	KindConvert:     "Convert",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Op is a binary or unary operator.
type Op uint8

const (
	OpEq Op = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNot
	OpNeg
)

var opText = [...]string{
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpNot: "!",
	OpNeg: "-",
}

func (o Op) String() string {
	if int(o) < len(opText) && opText[o] != "" {
		return opText[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// IsComparison reports whether o yields a bool from two comparable operands.
func (o Op) IsComparison() bool { return o >= OpEq && o <= OpGe }

// IsLogical reports whether o is && or ||.
func (o Op) IsLogical() bool { return o == OpAnd || o == OpOr }

// Type is the static type tag of a node.
//
// Seq marks in-memory sequences (slices, arrays, *List). Deferred marks
// values that stand for a lazily evaluated remote query; such nodes are never
// folded into constants.
type Type struct {
	Name     string
	Seq      bool
	Deferred bool
}

var (
	TypeAny     = Type{Name: "any"}
	TypeBool    = Type{Name: "bool"}
	TypeInt     = Type{Name: "int64"}
	TypeFloat   = Type{Name: "float64"}
	TypeString  = Type{Name: "string"}
	TypeNull    = Type{Name: "null"}
	TypeClosure = Type{Name: "closure"}
	TypeList    = Type{Name: "list", Seq: true}
)

// Deferred is implemented by values that represent a remote query which must
// stay unevaluated. DeferredQuery returns its canonical text.
type Deferred interface {
	DeferredQuery() string
}

var deferredType = reflect.TypeOf((*Deferred)(nil)).Elem()

// TypeOf derives the static type tag of a Go value.
func TypeOf(v any) Type {
	switch v := v.(type) {
	case nil:
		return TypeNull
	case *List:
		return TypeList
	case *Closure:
		return TypeClosure
	case Deferred:
		return Type{Name: reflect.TypeOf(v).String(), Deferred: true}
	}
	return typeOfReflect(reflect.TypeOf(v))
}

// TypeFor derives the static type tag of T.
func TypeFor[T any]() Type {
	return typeOfReflect(reflect.TypeOf((*T)(nil)).Elem())
}

func typeOfReflect(rt reflect.Type) Type {
	t := Type{Name: rt.String()}
	if rt.Implements(deferredType) {
		t.Deferred = true
		return t
	}
	switch rt.Kind() {
	case reflect.Slice, reflect.Array:
		t.Seq = rt.Elem().Kind() != reflect.Uint8
	}
	return t
}

// Node is one arena entry. Unused operand slots hold NoNode.
//
//	Constant     Value
//	Parameter    Name
//	Field        X.Name
//	Call         X.Name(Args...) (X == NoNode for static calls); SeqMask tags sequence positions
//	Binary       X Op Y
//	Unary        Op X
//	New          new Name(Args...)
//	Conditional  X ? Y : Z
//	Convert      Convert(X, Type)
type Node struct {
	Kind    Kind
	Type    Type
	Op      Op
	Name    string
	Value   any
	X, Y, Z NodeID
	Args    []NodeID
	SeqMask uint32
}

// SeqAt reports whether call position pos (0 = receiver, i+1 = argument i)
// was tagged as a sequence when the node was built.
func (n *Node) SeqAt(pos int) bool {
	return pos < 32 && n.SeqMask&(1<<uint(pos)) != 0
}

func (n *Node) children(dst []NodeID) []NodeID {
	for _, id := range [...]NodeID{n.X, n.Y, n.Z} {
		if id != NoNode {
			dst = append(dst, id)
		}
	}
	return append(dst, n.Args...)
}

// Tree is an arena of nodes.
type Tree struct {
	nodes []Node
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a copy of the node at id. The Args slice must not be modified.
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

func (t *Tree) add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) addConst(v any, typ Type) NodeID {
	return t.add(Node{Kind: KindConstant, Type: typ, Value: v, X: NoNode, Y: NoNode, Z: NoNode})
}

// Lambda is a predicate or selector over one entity parameter.
type Lambda struct {
	tree  *Tree
	param NodeID
	body  NodeID
}

func (l *Lambda) Tree() *Tree { return l.tree }

// Param returns the id of the single parameter node.
func (l *Lambda) Param() NodeID { return l.param }

func (l *Lambda) Body() NodeID { return l.body }

// ParamName returns the name the parameter was declared with.
func (l *Lambda) ParamName() string { return l.tree.nodes[l.param].Name }

// String returns a debug rendering. Use Format for canonical text.
func (l *Lambda) String() string {
	if l == nil {
		return "<nil>"
	}
	p := &printer{tree: l.tree, param: l.param, lenient: true}
	body, _ := p.render(l.body)
	return l.ParamName() + " => " + body
}
