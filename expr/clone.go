package expr

// cloner copies the reachable part of a source tree into a destination tree.
// Each source node is copied at most once, so shared subtrees stay shared.
type cloner struct {
	src, dst *Tree
	memo     []NodeID

	// pre may replace a source node outright; the replacement is memoized.
	pre func(src NodeID) (NodeID, bool)
	// post may edit the copy of a node after its operands were cloned.
	post func(src NodeID, n *Node)
}

func newCloner(src *Tree) *cloner { return newClonerInto(src, &Tree{}) }

func newClonerInto(src, dst *Tree) *cloner {
	memo := make([]NodeID, len(src.nodes))
	for i := range memo {
		memo[i] = NoNode
	}
	return &cloner{src: src, dst: dst, memo: memo}
}

func (c *cloner) clone(id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}
	if out := c.memo[id]; out != NoNode {
		return out
	}
	if c.pre != nil {
		if out, ok := c.pre(id); ok {
			c.memo[id] = out
			return out
		}
	}
	n := c.src.nodes[id]
	n.X = c.clone(n.X)
	n.Y = c.clone(n.Y)
	n.Z = c.clone(n.Z)
	if len(n.Args) > 0 {
		args := make([]NodeID, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.clone(a)
		}
		n.Args = args
	}
	if c.post != nil {
		c.post(id, &n)
	}
	out := c.dst.add(n)
	c.memo[id] = out
	return out
}

func (c *cloner) lambda(l *Lambda) *Lambda {
	param := c.clone(l.param)
	body := c.clone(l.body)
	return &Lambda{tree: c.dst, param: param, body: body}
}
