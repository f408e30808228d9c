package expr

import (
	"errors"
	"strings"
)

var ErrNotMemberPath = errors.New("expr: lambda is not a member path")

// Conjoin returns a => a.body && b.body with b's parameter rebound to a's.
// Either side may be nil.
func Conjoin(a, b *Lambda) *Lambda {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	ca := newCloner(a.tree)
	left := ca.lambda(a)

	cb := newClonerInto(b.tree, ca.dst)
	cb.pre = func(id NodeID) (NodeID, bool) {
		if id == b.param {
			return left.param, true
		}
		return NoNode, false
	}
	right := cb.clone(b.body)

	body := ca.dst.add(Node{Kind: KindBinary, Type: TypeBool, Op: OpAnd, X: left.body, Y: right, Z: NoNode})
	return &Lambda{tree: ca.dst, param: left.param, body: body}
}

// Path returns the dotted member path of a lambda such as o => o.Customer.Name.
func Path(l *Lambda) (string, error) {
	var parts []string
	id := l.body
	for {
		n := &l.tree.nodes[id]
		switch {
		case n.Kind == KindField:
			parts = append(parts, n.Name)
			id = n.X
			continue
		case id == l.param && len(parts) > 0:
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			return strings.Join(parts, "."), nil
		}
		return "", ErrNotMemberPath
	}
}
