package objtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Object layout mirrors scenario S1: Hazard(0) -> Trap(1) -> Spike(2),
// Trap -> Snare(3); a sibling root Decoration(4) with no children.
func buildSample() *Tree {
	t := New()
	t.Build(map[int32]int32{
		0: -1, // Hazard (root)
		1: 0,  // Trap, child of Hazard
		2: 1,  // Spike, child of Trap
		3: 1,  // Snare, child of Trap
		4: -1, // Decoration (root, no relation to Hazard)
	})
	return t
}

func TestDirectChildren(t *testing.T) {
	tree := buildSample()
	assert.Equal(t, []int32{1}, tree.DirectChildren(0))
	assert.ElementsMatch(t, []int32{2, 3}, tree.DirectChildren(1))
	assert.Empty(t, tree.DirectChildren(2))
}

// TestTransitiveDescendantsIsClosure asserts invariant 3: the descendant
// set of an ancestor equals the full transitive closure under the
// parent-of relation, not merely the direct children.
func TestTransitiveDescendantsIsClosure(t *testing.T) {
	tree := buildSample()
	descendants := tree.TransitiveDescendants(0)
	assert.ElementsMatch(t, []int32{1, 2, 3}, descendants)

	depth, ok := tree.DepthOf(0, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, depth)

	depth, ok = tree.DepthOf(0, 2)
	assert.True(t, ok)
	assert.Equal(t, 2, depth)

	_, ok = tree.DepthOf(0, 4)
	assert.False(t, ok, "Decoration must not appear under Hazard's closure")
}

// TestScenarioS1ChildAtDepthOne checks the spec's worked example: a newly
// looked-up object one level below the ancestor is reported at depth 1.
func TestScenarioS1ChildAtDepthOne(t *testing.T) {
	tree := buildSample()
	depth, ok := tree.DepthOf(0, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, depth)
}

func TestIsAncestor(t *testing.T) {
	tree := buildSample()
	assert.True(t, tree.IsAncestor(0, 0))
	assert.True(t, tree.IsAncestor(0, 2))
	assert.True(t, tree.IsAncestor(1, 3))
	assert.False(t, tree.IsAncestor(1, 4))
	assert.False(t, tree.IsAncestor(4, 0))
}

func TestParentOf(t *testing.T) {
	tree := buildSample()
	assert.Equal(t, int32(-1), tree.ParentOf(0))
	assert.Equal(t, int32(0), tree.ParentOf(1))
	assert.Equal(t, int32(1), tree.ParentOf(2))
	assert.Equal(t, int32(-1), tree.ParentOf(99), "unknown object reports -1")
}

func TestAddObjectIncrementalMatchesBuild(t *testing.T) {
	incremental := New()
	incremental.AddObject(0, -1)
	incremental.AddObject(1, 0)
	incremental.AddObject(2, 1)
	incremental.AddObject(3, 1)
	incremental.AddObject(4, -1)

	built := buildSample()

	assert.ElementsMatch(t, built.TransitiveDescendants(0), incremental.TransitiveDescendants(0))
	assert.ElementsMatch(t, built.DirectChildren(1), incremental.DirectChildren(1))
}
