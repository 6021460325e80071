package bvh

import "fmt"

// Reorder a per-triangle attribute slice so that it matches the BVH leaf
// layout described by triangleIndices (see Bvh.TriangleIndices).
func ReorderAttributes[T any](attributes []T, triangleIndices []uint32) []T {
	if len(attributes) != len(triangleIndices) {
		panic(fmt.Sprintf("bvh: cannot reorder %d attributes using %d triangle indices", len(attributes), len(triangleIndices)))
	}

	reordered := make([]T, len(attributes))
	for newIdx, srcIdx := range triangleIndices {
		reordered[newIdx] = attributes[srcIdx]
	}
	return reordered
}
