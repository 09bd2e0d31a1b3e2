package provenance

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Log is a handle on the tip of a provenance DAG. Logs are values; every
// operation returns a new Log and leaves the receiver pointing at its old
// tip. Logs sharing an arena must be used from one goroutine; call Fork
// before handing one to another goroutine.
type Log struct {
	arena *Arena
	tip   NodeID
}

// New creates a log holding only the root node.
func New() Log {
	return Log{arena: newArena(), tip: Root}
}

func (l Log) ensure() Log {
	if l.arena == nil {
		return New()
	}
	return l
}

// Arena returns the arena backing the log.
func (l Log) Arena() *Arena {
	return l.ensure().arena
}

// TipID returns the id of the last node.
func (l Log) TipID() NodeID {
	return l.tip
}

// Tip returns the last node.
func (l Log) Tip() *Node {
	l = l.ensure()
	return l.arena.nodes[l.tip]
}

// Push appends a node one step deeper than the current tip.
func (l Log) Push(label string, ranges ...Range) Log {
	l = l.ensure()
	id := l.arena.add(label, ranges)
	l.arena.link(l.tip, id)
	return Log{arena: l.arena, tip: id}
}

// ReplaceLast re-parents a new node onto the parents of the current tip,
// detaching the tip from them. On a bare root it behaves as Push.
func (l Log) ReplaceLast(label string, ranges ...Range) Log {
	l = l.ensure()
	last := l.arena.nodes[l.tip]
	if len(last.Parents) == 0 {
		return l.Push(label, ranges...)
	}
	id := l.arena.add(label, ranges)
	for _, p := range last.Parents {
		l.arena.unlink(p, l.tip)
		l.arena.link(p, id)
	}
	return Log{arena: l.arena, tip: id}
}

// Merge joins two chains. Sibling slice nodes of one parent fold into a
// single join node; anything else gets a concat node one step deeper than
// the deeper input. A log from another arena is grafted first.
func (l Log) Merge(other Log) Log {
	l = l.ensure()
	other = other.ensure()
	otherTip := other.tip
	if other.arena != l.arena {
		otherTip = l.arena.graft(other.arena, other.tip)
	}
	return Log{arena: l.arena, tip: l.arena.merge(l.tip, otherTip)}
}

// Fork returns a log over a private copy of the arena.
func (l Log) Fork() Log {
	l = l.ensure()
	return Log{arena: l.arena.clone(), tip: l.tip}
}

// Group is the set of live nodes at one step.
type Group struct {
	Step  int
	Nodes []*Node
}

// Groups returns every node reachable from the root, excluding the root,
// grouped by step in ascending order.
func (l Log) Groups() []Group {
	l = l.ensure()
	var groups []Group
	byStep := map[int]int{}
	for _, id := range l.arena.live() {
		n := l.arena.nodes[id]
		gi, ok := byStep[n.Step]
		if !ok {
			gi = len(groups)
			byStep[n.Step] = gi
			groups = append(groups, Group{Step: n.Step})
		}
		groups[gi].Nodes = append(groups[gi].Nodes, n)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(a.Step, b.Step)
	})
	return groups
}

// String renders the log as "step:label,label|step:label".
func (l Log) String() string {
	groups := l.Groups()
	parts := make([]string, len(groups))
	for i, g := range groups {
		labels := make([]string, len(g.Nodes))
		for j, n := range g.Nodes {
			labels[j] = n.Label
		}
		parts[i] = fmt.Sprintf("%d:%s", g.Step, strings.Join(labels, ","))
	}
	return strings.Join(parts, "|")
}
