package bvh

import (
	"fmt"

	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/types"
)

// Validate checks the structural invariants of a built BVH: every triangle
// slot is referenced by exactly one leaf, TriangleIndices is a permutation,
// child offsets are well formed and every node AABB contains the AABBs of its
// children and leaf triangles.
func (b *Bvh) Validate() error {
	return ValidateNodes(b.Nodes, b.Positions, b.TriangleIndices)
}

// ValidateNodes runs the checks of Bvh.Validate on a node list and the
// ordered triangles it references.
func ValidateNodes(nodes []scene.BvhNode, positions []types.Positions, triangleIndices []uint32) error {
	if len(nodes) == 0 {
		return fmt.Errorf("bvh: empty node list")
	}
	if len(triangleIndices) != len(positions) {
		return fmt.Errorf("bvh: %d triangle indices for %d triangles", len(triangleIndices), len(positions))
	}

	seenSrc := make([]bool, len(triangleIndices))
	for slot, srcIdx := range triangleIndices {
		if int(srcIdx) >= len(seenSrc) || seenSrc[srcIdx] {
			return fmt.Errorf("bvh: triangle index %d at slot %d is out of range or duplicated", srcIdx, slot)
		}
		seenSrc[srcIdx] = true
	}

	covered := make([]bool, len(positions))
	visited := make([]bool, len(nodes))
	stack := []uint32{0}
	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if int(nodeIdx) >= len(nodes) {
			return fmt.Errorf("bvh: node index %d out of range", nodeIdx)
		}
		if visited[nodeIdx] {
			return fmt.Errorf("bvh: node %d is referenced more than once", nodeIdx)
		}
		visited[nodeIdx] = true

		node := &nodes[nodeIdx]
		nodeAabb := node.AABB()

		if node.IsLeaf() {
			if node.SplitAxis != scene.LeafSplitAxis || node.SecondChildOffset != 0 {
				return fmt.Errorf("bvh: leaf node %d has interior node fields set", nodeIdx)
			}
			first, last := int(node.TrianglesOffset), int(uint64(node.TrianglesOffset)+uint64(node.TriangleCount))
			if last > len(positions) {
				return fmt.Errorf("bvh: leaf node %d triangle range [%d, %d) out of bounds", nodeIdx, first, last)
			}
			for slot := first; slot < last; slot++ {
				if covered[slot] {
					return fmt.Errorf("bvh: triangle slot %d is referenced by more than one leaf", slot)
				}
				covered[slot] = true
				if !nodeAabb.Contains(positions[slot].Bounds()) {
					return fmt.Errorf("bvh: leaf node %d does not contain triangle slot %d", nodeIdx, slot)
				}
			}
			continue
		}

		if node.SplitAxis > 2 {
			return fmt.Errorf("bvh: interior node %d has invalid split axis %d", nodeIdx, node.SplitAxis)
		}
		firstChild, secondChild := nodeIdx+1, node.SecondChildOffset
		if secondChild <= firstChild || int(secondChild) >= len(nodes) {
			return fmt.Errorf("bvh: interior node %d has invalid second child offset %d", nodeIdx, secondChild)
		}
		for _, childIdx := range []uint32{firstChild, secondChild} {
			if !nodeAabb.Contains(nodes[childIdx].AABB()) {
				return fmt.Errorf("bvh: node %d does not contain child node %d", nodeIdx, childIdx)
			}
		}
		stack = append(stack, secondChild, firstChild)
	}

	for slot, ok := range covered {
		if !ok {
			return fmt.Errorf("bvh: triangle slot %d is not referenced by any leaf", slot)
		}
	}
	for nodeIdx, ok := range visited {
		if !ok {
			return fmt.Errorf("bvh: node %d is unreachable", nodeIdx)
		}
	}
	return nil
}
