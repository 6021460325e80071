package tracer

import (
	"github.com/Nelarius/rayfinder-sub000/asset/compiler/bvh"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/types"
)

// Initial capacity of the traversal stack. The stack grows on demand so
// arbitrarily deep trees are supported.
const traversalStackSize = 64

// Traversal statistics for a single ray.
type BvhStats struct {
	// Number of nodes popped during traversal, including the ones whose
	// AABB was missed.
	NodesVisited uint32
}

// Find the closest intersection between ray and the triangles referenced by
// the BVH nodes. The triangles slice must be in BVH leaf order. Only hits
// with Epsilon < t < tMax are reported. If stats is not nil it receives the
// number of visited nodes.
//
// IntersectBvh never mutates its inputs and can be called concurrently.
func IntersectBvh(ray types.Ray, nodes []scene.BvhNode, triangles []types.Positions, tMax float32, stats *BvhStats) (Intersection, bool) {
	if len(nodes) == 0 {
		if stats != nil {
			stats.NodesVisited = 0
		}
		return Intersection{}, false
	}

	intersector := NewRayAabbIntersector(ray)

	var (
		closest      Intersection
		didIntersect bool
		nodesVisited uint32
		nodeIdx      uint32
	)
	closestT := tMax
	toVisit := make([]uint32, 0, traversalStackSize)

	for {
		nodesVisited++
		node := &nodes[nodeIdx]

		if RayIntersectAabb(&intersector, node.AABB(), closestT) {
			if node.IsLeaf() {
				last := node.TrianglesOffset + node.TriangleCount
				for triIdx := node.TrianglesOffset; triIdx < last; triIdx++ {
					if hit, ok := RayIntersectTriangle(ray, triangles[triIdx], closestT); ok {
						closest = hit
						closestT = hit.T
						didIntersect = true
					}
				}
			} else {
				// Visit the child closer to the ray origin first.
				if intersector.DirNeg[node.SplitAxis] == 1 {
					toVisit = append(toVisit, nodeIdx+1)
					nodeIdx = node.SecondChildOffset
				} else {
					toVisit = append(toVisit, node.SecondChildOffset)
					nodeIdx = nodeIdx + 1
				}
				continue
			}
		}

		if len(toVisit) == 0 {
			break
		}
		nodeIdx = toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
	}

	if stats != nil {
		stats.NodesVisited = nodesVisited
	}

	return closest, didIntersect
}

// Find the closest intersection between ray and the triangles of a BVH
// returned by bvh.Build.
func IntersectNearest(ray types.Ray, b *bvh.Bvh, tMax float32, stats *BvhStats) (Intersection, bool) {
	return IntersectBvh(ray, b.Nodes, b.Positions, tMax, stats)
}

// Find the closest intersection between ray and the triangles of a compiled
// scene.
func IntersectScene(ray types.Ray, sc *scene.Scene, tMax float32, stats *BvhStats) (Intersection, bool) {
	return IntersectBvh(ray, sc.BvhNodes, sc.BvhPositions, tMax, stats)
}

// Find the closest intersection by testing every triangle. Used as a
// reference when validating BVH traversal.
func IntersectBruteForce(ray types.Ray, triangles []types.Positions, tMax float32) (Intersection, bool) {
	var (
		closest      Intersection
		didIntersect bool
	)
	for _, tri := range triangles {
		if hit, ok := RayIntersectTriangle(ray, tri, tMax); ok {
			closest = hit
			tMax = hit.T
			didIntersect = true
		}
	}
	return closest, didIntersect
}
