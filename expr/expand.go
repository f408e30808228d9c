package expr

import (
	"reflect"
	"strings"
)

// List is a constant collection with a stable printed form. It replaces
// in-memory collections in call positions tagged as sequences, so two equal
// collections render the same text regardless of where they were allocated.
type List struct {
	items []any
	text  string
}

// NewList snapshots items and renders them in source order. Every element
// must have a canonical text form.
func NewList(items []any) (*List, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, it := range items {
		if i > 0 {
			sb.WriteByte('|')
		}
		s, err := literal(it, false)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}
	sb.WriteByte('}')
	return &List{items: append([]any(nil), items...), text: sb.String()}, nil
}

func (l *List) String() string { return l.text }

// Items returns a copy of the elements.
func (l *List) Items() []any { return append([]any(nil), l.items...) }

func (l *List) Len() int { return len(l.items) }

// Contains reports membership using the same equality as predicate evaluation.
func (l *List) Contains(v any) bool {
	for _, it := range l.items {
		if Equal(it, v) {
			return true
		}
	}
	return false
}

// ExpandCollections rewrites call operands tagged as sequences whose value is
// already an in-memory constant collection into a *List constant. It expects
// a partially evaluated lambda; non-constant operands are left alone.
func ExpandCollections(l *Lambda) (*Lambda, error) {
	var firstErr error
	c := newCloner(l.tree)
	c.post = func(src NodeID, n *Node) {
		if n.Kind != KindCall || n.SeqMask == 0 || firstErr != nil {
			return
		}
		if n.X != NoNode && n.SeqAt(0) {
			id, err := c.expand(n.X)
			if err != nil {
				firstErr = err
				return
			}
			n.X = id
		}
		for i, a := range n.Args {
			if !n.SeqAt(i + 1) {
				continue
			}
			id, err := c.expand(a)
			if err != nil {
				firstErr = err
				return
			}
			n.Args[i] = id
		}
	}
	out := c.lambda(l)
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// expand replaces the output constant at id with its *List form when it
// holds a slice or array.
func (c *cloner) expand(id NodeID) (NodeID, error) {
	n := c.dst.nodes[id]
	if n.Kind != KindConstant || n.Value == nil {
		return id, nil
	}
	if _, ok := n.Value.(*List); ok {
		return id, nil
	}
	rv := reflect.ValueOf(n.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return id, nil
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	list, err := NewList(items)
	if err != nil {
		return NoNode, err
	}
	return c.dst.addConst(list, TypeList), nil
}
