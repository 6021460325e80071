package bvh

import (
	"fmt"
	"math"
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/log"
	"github.com/Nelarius/rayfinder-sub000/types"
)

const (
	// Nodes with more triangles than this are always split regardless of
	// the SAH cost estimate.
	maxTrianglesInLeaf = 255

	// Number of SAH buckets along the split axis. The builder evaluates
	// numBuckets-1 split candidates per node.
	numBuckets = 12
	numSplits  = numBuckets - 1

	traversalCost    float32 = 0.5
	intersectionCost float32 = 1.0
)

// Build-time primitive record. One record is allocated per input triangle
// and partitioned in place while building.
type primitive struct {
	aabb        types.AABB
	centroid    types.Vec3
	triangleIdx uint32
}

type splitBucket struct {
	count int
	aabb  types.AABB
}

// Statistics collected while building a BVH.
type BuildStats struct {
	Nodes       int
	Leaves      int
	MaxDepth    int
	MaxLeafSize int
	BuildTime   time.Duration
}

// A BVH built over a set of triangles. The attribute slices are permutations
// of the builder inputs such that every leaf references a contiguous range.
type Bvh struct {
	Nodes []scene.BvhNode

	Positions []types.Positions
	Normals   []types.Normals
	TexCoords []types.TexCoords

	// TriangleIndices[newSlot] = originalSlot. Use ReorderAttributes to
	// bring any other per-triangle attribute in BVH order.
	TriangleIndices []uint32

	Stats BuildStats
}

type builder struct {
	logger log.Logger

	// Builder inputs.
	positions []types.Positions
	normals   []types.Normals
	texCoords []types.TexCoords

	// Primitive arena. Recursive calls operate on [start, end) ranges.
	prims []primitive

	bvh *Bvh
}

// Build a BVH for the given triangle attributes using the surface area
// heuristic (SAH) with binned split candidates.
//
// All attribute slices must be non-empty and of the same length. Violating
// this is a programming error and causes a panic.
func Build(positions []types.Positions, normals []types.Normals, texCoords []types.TexCoords) *Bvh {
	if len(positions) == 0 {
		panic("bvh: cannot build a BVH without any triangles")
	}
	if len(normals) != len(positions) || len(texCoords) != len(positions) {
		panic(fmt.Sprintf(
			"bvh: attribute count mismatch (positions: %d, normals: %d, uvs: %d)",
			len(positions), len(normals), len(texCoords),
		))
	}
	if uint64(len(positions)) >= math.MaxUint32 {
		panic(fmt.Sprintf("bvh: triangle count %d exceeds the uint32 range", len(positions)))
	}

	numTriangles := len(positions)
	b := &builder{
		logger:    log.New("bvh builder"),
		positions: positions,
		normals:   normals,
		texCoords: texCoords,
		prims:     make([]primitive, numTriangles),
		bvh: &Bvh{
			Nodes:           make([]scene.BvhNode, 0, 2*numTriangles),
			Positions:       make([]types.Positions, numTriangles),
			Normals:         make([]types.Normals, numTriangles),
			TexCoords:       make([]types.TexCoords, numTriangles),
			TriangleIndices: make([]uint32, numTriangles),
		},
	}

	for idx, tri := range positions {
		triAabb := tri.Bounds()
		b.prims[idx] = primitive{
			aabb:        triAabb,
			centroid:    triAabb.Centroid(),
			triangleIdx: uint32(idx),
		}
	}

	start := time.Now()
	b.buildRecursive(0, numTriangles, 0)
	b.bvh.Stats.Nodes = len(b.bvh.Nodes)
	b.bvh.Stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH build time: %d ms, triangles: %d, maxDepth: %d, nodes: %d, leaves: %d, maxLeafSize: %d",
		b.bvh.Stats.BuildTime.Nanoseconds()/1e6, numTriangles,
		b.bvh.Stats.MaxDepth, b.bvh.Stats.Nodes, b.bvh.Stats.Leaves, b.bvh.Stats.MaxLeafSize,
	)

	return b.bvh
}

// Build the subtree for the primitive range [start, end) and return the
// index of its root node.
func (b *builder) buildRecursive(start, end, depth int) uint32 {
	if depth > b.bvh.Stats.MaxDepth {
		b.bvh.Stats.MaxDepth = depth
	}

	// Reserve the node now; child nodes are appended after it.
	nodeIdx := uint32(len(b.bvh.Nodes))
	b.bvh.Nodes = append(b.bvh.Nodes, scene.BvhNode{})

	prims := b.prims[start:end]
	nodeAabb := types.EmptyAABB()
	centroidAabb := types.EmptyAABB()
	for _, prim := range prims {
		nodeAabb = nodeAabb.Merge(prim.aabb)
		centroidAabb = centroidAabb.MergePoint(prim.centroid)
	}
	axis := centroidAabb.MaxDimension()

	// Degenerate geometry or no way to separate the centroids.
	primCount := len(prims)
	if nodeAabb.SurfaceArea() == 0 ||
		centroidAabb.Min[axis] == centroidAabb.Max[axis] ||
		primCount == 1 {
		b.buildLeaf(nodeIdx, nodeAabb, start, end)
		return nodeIdx
	}

	var splitIdx int
	if primCount < 3 {
		// Not worth evaluating SAH; do an equal count split.
		splitIdx = primCount / 2
		selectNth(prims, splitIdx, axis)
	} else {
		splitBucketIdx, doSplit := b.selectSahSplit(prims, nodeAabb, centroidAabb, axis)
		switch {
		case doSplit:
			splitIdx = partition(prims, func(prim *primitive) bool {
				return bucketIndex(prim.centroid[axis], centroidAabb, axis) <= splitBucketIdx
			})
		case primCount > maxTrianglesInLeaf:
			// No finite SAH cost (surface areas overflow float32); the leaf
			// cap still applies so fall back to an equal count split.
			splitIdx = primCount / 2
			selectNth(prims, splitIdx, axis)
		default:
			b.buildLeaf(nodeIdx, nodeAabb, start, end)
			return nodeIdx
		}
	}

	if splitIdx <= 0 || splitIdx >= primCount {
		panic(fmt.Sprintf("bvh: invalid split index %d for %d primitives", splitIdx, primCount))
	}

	b.buildRecursive(start, start+splitIdx, depth+1)
	secondChildIdx := b.buildRecursive(start+splitIdx, end, depth+1)
	b.bvh.Nodes[nodeIdx].SetInterior(nodeAabb, axis, secondChildIdx)

	return nodeIdx
}

// Evaluate the SAH cost for each bucket split along axis. Returns the index
// of the last bucket that belongs to the first child and whether splitting
// is preferable to creating a leaf.
func (b *builder) selectSahSplit(prims []primitive, nodeAabb, centroidAabb types.AABB, axis types.Axis) (int, bool) {
	var buckets [numBuckets]splitBucket
	for idx := range buckets {
		buckets[idx].aabb = types.EmptyAABB()
	}

	for _, prim := range prims {
		bucketIdx := bucketIndex(prim.centroid[axis], centroidAabb, axis)
		buckets[bucketIdx].count++
		buckets[bucketIdx].aabb = buckets[bucketIdx].aabb.Merge(prim.aabb)
	}

	// Forward and backward sweeps accumulate the cost of both sides for
	// every split candidate.
	var costs [numSplits]float32

	countBelow := 0
	aabbBelow := types.EmptyAABB()
	for i := 0; i < numSplits; i++ {
		countBelow += buckets[i].count
		aabbBelow = aabbBelow.Merge(buckets[i].aabb)
		costs[i] += intersectionCost * float32(countBelow) * aabbBelow.SurfaceArea()
	}

	countAbove := 0
	aabbAbove := types.EmptyAABB()
	for i := numSplits; i > 0; i-- {
		countAbove += buckets[i].count
		aabbAbove = aabbAbove.Merge(buckets[i].aabb)
		costs[i-1] += intersectionCost * float32(countAbove) * aabbAbove.SurfaceArea()
	}

	minCost := float32(math.MaxFloat32)
	splitBucketIdx := -1
	for i, cost := range costs {
		if cost < minCost {
			minCost = cost
			splitBucketIdx = i
		}
	}

	// The child costs are weighted by the probability of a ray hitting
	// each child, i.e. the child/parent surface area ratio.
	leafCost := intersectionCost * float32(len(prims))
	totalCost := traversalCost + minCost/nodeAabb.SurfaceArea()

	return splitBucketIdx, splitBucketIdx >= 0 && (len(prims) > maxTrianglesInLeaf || totalCost < leafCost)
}

// Copy the attributes of the primitives in [start, end) to the ordered
// output slices and initialize the node as a leaf. Leaves are emitted in
// depth-first order so the output slot range matches the arena range.
func (b *builder) buildLeaf(nodeIdx uint32, nodeAabb types.AABB, start, end int) {
	out := b.bvh
	for slot := start; slot < end; slot++ {
		srcIdx := b.prims[slot].triangleIdx
		out.Positions[slot] = b.positions[srcIdx]
		out.Normals[slot] = b.normals[srcIdx]
		out.TexCoords[slot] = b.texCoords[srcIdx]
		out.TriangleIndices[slot] = srcIdx
	}

	count := end - start
	out.Nodes[nodeIdx].SetLeaf(nodeAabb, uint32(start), uint32(count))

	out.Stats.Leaves++
	if count > out.Stats.MaxLeafSize {
		out.Stats.MaxLeafSize = count
	}
}

// Map a centroid coordinate to its SAH bucket.
func bucketIndex(c float32, centroidAabb types.AABB, axis types.Axis) int {
	lo, hi := centroidAabb.Min[axis], centroidAabb.Max[axis]
	bucketIdx := int(numBuckets * (c - lo) / (hi - lo))
	if bucketIdx > numBuckets-1 {
		bucketIdx = numBuckets - 1
	}
	if bucketIdx < 0 {
		bucketIdx = 0
	}
	return bucketIdx
}

// Reorder prims so that all items satisfying pred precede the ones that do
// not. Returns the number of items satisfying pred.
func partition(prims []primitive, pred func(*primitive) bool) int {
	first := 0
	for first < len(prims) && pred(&prims[first]) {
		first++
	}
	for idx := first + 1; idx < len(prims); idx++ {
		if pred(&prims[idx]) {
			prims[first], prims[idx] = prims[idx], prims[first]
			first++
		}
	}
	return first
}

// Reorder prims so that the item at index n is the one that would occupy it
// if prims were sorted by centroid along axis; items before it are not
// greater and items after it are not smaller.
func selectNth(prims []primitive, n int, axis types.Axis) {
	lo, hi := 0, len(prims)-1
	for lo < hi {
		// Lomuto partition around the last item.
		pivot := prims[hi].centroid[axis]
		store := lo
		for idx := lo; idx < hi; idx++ {
			if prims[idx].centroid[axis] < pivot {
				prims[store], prims[idx] = prims[idx], prims[store]
				store++
			}
		}
		prims[store], prims[hi] = prims[hi], prims[store]

		switch {
		case store == n:
			return
		case store < n:
			lo = store + 1
		default:
			hi = store - 1
		}
	}
}
