package expr

import "fmt"

// Policy decides whether a single node may be evaluated without the entity.
type Policy func(n *Node) bool

// CanEvaluateLocally is the default policy: everything except the parameter,
// construction of new instances and values standing for a deferred query.
func CanEvaluateLocally(n *Node) bool {
	switch n.Kind {
	case KindParameter, KindNew:
		return false
	}
	return !n.Type.Deferred
}

// EvalError reports that a parameter-independent subtree failed to evaluate.
type EvalError struct {
	Expr string
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("expr: evaluating %s: %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// PartialEval replaces every maximal subtree that does not depend on the
// parameter, and that policy allows, with a constant holding its value. A nil
// policy means CanEvaluateLocally. The input is not modified.
func PartialEval(l *Lambda, policy Policy) (*Lambda, error) {
	if policy == nil {
		policy = CanEvaluateLocally
	}
	cand := nominate(l.tree, l.body, policy)

	var firstErr error
	c := newCloner(l.tree)
	c.pre = func(id NodeID) (NodeID, bool) {
		n := &l.tree.nodes[id]
		if firstErr != nil || n.Kind == KindConstant || !cand.has(id) {
			return NoNode, false
		}
		v, err := evalSafely(l.tree, id)
		if err != nil {
			firstErr = &EvalError{Expr: (&printer{tree: l.tree, param: l.param, lenient: true}).mustRender(id), Err: err}
			return c.dst.addConst(nil, TypeNull), true
		}
		typ := n.Type
		if typ == TypeAny {
			typ = TypeOf(v)
		}
		return c.dst.addConst(v, typ), true
	}
	out := c.lambda(l)
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// nominate marks, bottom-up, every node whose whole subtree passes policy.
// Once a descendant fails, none of its ancestors can be a candidate.
func nominate(t *Tree, root NodeID, policy Policy) bitset {
	seen := newBitset(len(t.nodes))
	cand := newBitset(len(t.nodes))
	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		if seen.has(id) {
			return cand.has(id)
		}
		seen.set(id)
		n := &t.nodes[id]
		clean := true
		var buf [4]NodeID
		for _, ch := range n.children(buf[:0]) {
			if !visit(ch) {
				clean = false
			}
		}
		if clean && policy(n) {
			cand.set(id)
			return true
		}
		return false
	}
	visit(root)
	return cand
}

func evalSafely(t *Tree, id NodeID) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.evalDetached(id)
}

func (p *printer) mustRender(id NodeID) string {
	s, err := p.render(id)
	if err != nil {
		return "?"
	}
	return s
}
