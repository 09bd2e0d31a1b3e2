// Package provenance records the transformations applied to a sequence as a
// DAG of labeled nodes. Nodes live in an arena and refer to each other by
// NodeID; each node counts references to its direct successors so that
// replaced or merged nodes drop out of the rendered history.
package provenance

import (
	"fmt"
	"slices"
	"strings"
)

// NodeID addresses a node inside an Arena.
type NodeID int

// Root is the NodeID of every arena's root node.
const Root NodeID = 0

// Range is a half-open index range into a parent sequence.
type Range struct {
	Start, End int
}

// Node is one transformation.
type Node struct {
	Label   string
	Step    int
	Parents []NodeID
	Slices  []Range // set on slice and join nodes

	children map[NodeID]int
}

// Children returns the reference count of the direct successor id.
func (n *Node) Children(id NodeID) int {
	return n.children[id]
}

// Arena owns the nodes of one provenance DAG. It assumes a single writer.
type Arena struct {
	nodes []*Node
}

func newArena() *Arena {
	return &Arena{nodes: []*Node{{Label: "root()", children: map[NodeID]int{}}}}
}

// Node returns the node with the given id.
func (a *Arena) Node(id NodeID) *Node {
	return a.nodes[id]
}

// Len returns the number of nodes ever created, including the root.
func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) add(label string, slices []Range) NodeID {
	a.nodes = append(a.nodes, &Node{Label: label, Slices: slices, children: map[NodeID]int{}})
	return NodeID(len(a.nodes) - 1)
}

func (a *Arena) link(parent, child NodeID) {
	p, c := a.nodes[parent], a.nodes[child]
	p.children[child]++
	c.Parents = append(c.Parents, parent)
	c.Step = p.Step + 1
}

func (a *Arena) unlink(parent, child NodeID) {
	p := a.nodes[parent]
	if p.children[child] > 0 {
		p.children[child]--
	}
}

func (a *Arena) merge(x, y NodeID) NodeID {
	nx, ny := a.nodes[x], a.nodes[y]
	if len(nx.Slices) > 0 && len(ny.Slices) > 0 &&
		len(nx.Parents) > 0 && len(nx.Parents) == len(ny.Parents) &&
		nx.Parents[0] == ny.Parents[0] {
		ranges := slices.Concat(nx.Slices, ny.Slices)
		parent := nx.Parents[0]
		a.unlink(parent, x)
		a.unlink(parent, y)
		id := a.add(JoinLabel(ranges), ranges)
		a.link(parent, id)
		return id
	}

	id := a.add(fmt.Sprintf("concat(step%d,step%d)", nx.Step, ny.Step), nil)
	a.link(x, id)
	a.link(y, id)
	a.nodes[id].Step = max(nx.Step, ny.Step) + 1
	return id
}

// live returns the ids reachable from the root through counted edges, in
// creation order.
func (a *Arena) live() []NodeID {
	seen := make(map[NodeID]bool, len(a.nodes))
	stack := []NodeID{Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for child, n := range a.nodes[id].children {
			if n > 0 && !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	ids := make([]NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// graft copies the live part of src (plus srcTip) into a, rooted at a's
// root, and returns the new id of srcTip.
func (a *Arena) graft(src *Arena, srcTip NodeID) NodeID {
	ids := src.live()
	if srcTip != Root && !slices.Contains(ids, srcTip) {
		ids = append(ids, srcTip)
		slices.Sort(ids)
	}

	remap := map[NodeID]NodeID{Root: Root}
	for _, id := range ids {
		n := src.nodes[id]
		remap[id] = a.add(n.Label, slices.Clone(n.Slices))
	}
	for _, id := range ids {
		n := src.nodes[id]
		dst := a.nodes[remap[id]]
		dst.Step = n.Step
		for _, p := range n.Parents {
			if np, ok := remap[p]; ok {
				dst.Parents = append(dst.Parents, np)
			}
		}
	}
	for _, id := range append([]NodeID{Root}, ids...) {
		for child, n := range src.nodes[id].children {
			if nc, ok := remap[child]; ok && n > 0 {
				a.nodes[remap[id]].children[nc] += n
			}
		}
	}
	return remap[srcTip]
}

func (a *Arena) clone() *Arena {
	c := &Arena{nodes: make([]*Node, len(a.nodes))}
	for i, n := range a.nodes {
		cn := *n
		cn.Parents = slices.Clone(n.Parents)
		cn.Slices = slices.Clone(n.Slices)
		cn.children = make(map[NodeID]int, len(n.children))
		for k, v := range n.children {
			cn.children[k] = v
		}
		c.nodes[i] = &cn
	}
	return c
}

// SliceLabel renders one range as "slice(a,b)" and several as a join.
func SliceLabel(ranges []Range) string {
	if len(ranges) == 1 {
		return fmt.Sprintf("slice(%d,%d)", ranges[0].Start, ranges[0].End)
	}
	return JoinLabel(ranges)
}

// JoinLabel renders ranges as "join(a..b,c..d)".
func JoinLabel(ranges []Range) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%d..%d", r.Start, r.End)
	}
	return "join(" + strings.Join(parts, ",") + ")"
}
