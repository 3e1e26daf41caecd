package aer

// DirectChildren returns the direct children of parentIdx in registration
// order (spec.md §4.3 "Object tree").
func DirectChildren(parentIdx int32) []int32 {
	e, ok := guardEngine()
	if !ok {
		return nil
	}
	return e.Tree.DirectChildren(parentIdx)
}

// TransitiveDescendants returns every transitive descendant of
// ancestorIdx in DFS insertion order (spec.md §4.3, invariant 3).
func TransitiveDescendants(ancestorIdx int32) []int32 {
	e, ok := guardEngine()
	if !ok {
		return nil
	}
	return e.Tree.TransitiveDescendants(ancestorIdx)
}

// ParentOf returns the parent index of objIdx, or -1 for a root object.
func ParentOf(objIdx int32) int32 {
	e, ok := guardEngine()
	if !ok {
		return -1
	}
	return e.Tree.ParentOf(objIdx)
}
