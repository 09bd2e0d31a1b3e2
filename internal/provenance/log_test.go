package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	l := New().Push("m1")

	assert.Equal(t, "1:m1", l.String())
	assert.Equal(t, 1, l.Tip().Step)

	groups := l.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Step)
	assert.Equal(t, "m1", groups[0].Nodes[0].Label)
}

func TestNew_RendersEmpty(t *testing.T) {
	assert.Equal(t, "", New().String())
	assert.Equal(t, "", Log{}.String())
}

func TestPush_Chain(t *testing.T) {
	l := New().Push("a").Push("b").Push("c")
	assert.Equal(t, "1:a|2:b|3:c", l.String())
}

func TestReplaceLast(t *testing.T) {
	l := New().Push("m1")
	l2 := l.ReplaceLast("m2")

	assert.Equal(t, "m2", l2.Tip().Label)
	require.Len(t, l2.Tip().Parents, 1)
	parent := l2.Arena().Node(l2.Tip().Parents[0])
	assert.Equal(t, 1, parent.Children(l2.TipID()))
	assert.Equal(t, 0, parent.Children(l.TipID()))
	assert.Equal(t, "1:m2", l2.String())
}

func TestReplaceLast_OnRootPushes(t *testing.T) {
	l := New().ReplaceLast("m1")
	assert.Equal(t, "1:m1", l.String())
}

func TestMerge_SiblingSlicesJoin(t *testing.T) {
	root := New()
	a := root.Push("slice(0,1)", Range{0, 1})
	b := root.Push("slice(1,2)", Range{1, 2})

	merged := a.Merge(b)

	assert.Equal(t, "join(0..1,1..2)", merged.Tip().Label)
	assert.Equal(t, []Range{{0, 1}, {1, 2}}, merged.Tip().Slices)
	rootNode := merged.Arena().Node(Root)
	assert.Equal(t, 0, rootNode.Children(a.TipID()))
	assert.Equal(t, 0, rootNode.Children(b.TipID()))
	assert.Equal(t, 1, rootNode.Children(merged.TipID()))
	assert.Equal(t, "1:join(0..1,1..2)", merged.String())
}

func TestMerge_Concat(t *testing.T) {
	root := New()
	a := root.Push("a").Push("b")
	c := root.Push("c")

	merged := a.Merge(c)

	assert.Equal(t, "concat(step2,step1)", merged.Tip().Label)
	assert.Equal(t, 3, merged.Tip().Step)
	assert.Equal(t, "1:a,c|2:b|3:concat(step2,step1)", merged.String())
}

func TestMerge_ForeignArena(t *testing.T) {
	left := New().Push("left")
	right := New().Push("right")

	merged := left.Merge(right)

	assert.Equal(t, "concat(step1,step1)", merged.Tip().Label)
	assert.Equal(t, "1:left,right|2:concat(step1,step1)", merged.String())
	// the foreign arena is untouched
	assert.Equal(t, "1:right", right.String())
}

func TestFork(t *testing.T) {
	base := New().Push("load")
	fork := base.Fork()

	fork.Push("other")
	base.Push("mine")

	assert.Equal(t, 3, base.Arena().Len())
	assert.Equal(t, 3, fork.Arena().Len())
	assert.Equal(t, "1:load|2:mine", base.String())
	assert.Equal(t, "1:load|2:other", fork.String())
}

func TestSliceLabel(t *testing.T) {
	assert.Equal(t, "slice(2,6)", SliceLabel([]Range{{2, 6}}))
	assert.Equal(t, "join(0..2,4..6)", SliceLabel([]Range{{0, 2}, {4, 6}}))
}
