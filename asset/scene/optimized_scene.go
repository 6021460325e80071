package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/Nelarius/rayfinder-sub000/types"
	"github.com/olekukonko/tablewriter"
)

// Split axis value stored in leaf nodes.
const LeafSplitAxis uint32 = 0xFFFFFFFF

// BvhNode is a 48 byte record shared by the CPU traversal code and the GPU
// kernels. Field order and padding are part of the binary layout.
//
// - Interior nodes have TriangleCount == 0. The first child is stored right
//   after the node and SecondChildOffset points to the second child.
// - Leaf nodes have TriangleCount > 0 and reference the triangle range
//   [TrianglesOffset, TrianglesOffset+TriangleCount). SplitAxis is set to
//   LeafSplitAxis.
type BvhNode struct {
	Min types.Vec3 // offset: 0
	_   float32    // offset: 12
	Max types.Vec3 // offset: 16
	_   float32    // offset: 28

	TrianglesOffset   uint32 // offset: 32
	SecondChildOffset uint32 // offset: 36
	TriangleCount     uint32 // offset: 40
	SplitAxis         uint32 // offset: 44
}

// Returns true if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.TriangleCount > 0
}

// Get node bounding box.
func (n *BvhNode) AABB() types.AABB {
	return types.AABB{Min: n.Min, Max: n.Max}
}

// Set bounding box.
func (n *BvhNode) SetAABB(aabb types.AABB) {
	n.Min = aabb.Min
	n.Max = aabb.Max
}

// Setup node as a leaf pointing to a contiguous triangle range.
func (n *BvhNode) SetLeaf(aabb types.AABB, trianglesOffset, count uint32) {
	n.SetAABB(aabb)
	n.TrianglesOffset = trianglesOffset
	n.TriangleCount = count
	n.SecondChildOffset = 0
	n.SplitAxis = LeafSplitAxis
}

// Setup node as an interior node. The first child is implicitly located at
// the next node index.
func (n *BvhNode) SetInterior(aabb types.AABB, axis types.Axis, secondChildOffset uint32) {
	n.SetAABB(aabb)
	n.TrianglesOffset = 0
	n.TriangleCount = 0
	n.SecondChildOffset = secondChildOffset
	n.SplitAxis = uint32(axis)
}

// Triangle positions padded for 16-byte aligned GPU access.
type PositionAttribute struct {
	P0 types.Vec3 // offset: 0
	_  float32    // offset: 12
	P1 types.Vec3 // offset: 16
	_  float32    // offset: 28
	P2 types.Vec3 // offset: 32
	_  float32    // offset: 44
}

// Triangle shading attributes consumed by the GPU.
type VertexAttributes struct {
	N0 types.Vec3 // offset: 0
	_  float32    // offset: 12
	N1 types.Vec3 // offset: 16
	_  float32    // offset: 28
	N2 types.Vec3 // offset: 32
	_  float32    // offset: 44

	UV0 types.Vec2 // offset: 48
	UV1 types.Vec2 // offset: 56
	UV2 types.Vec2 // offset: 64

	TextureIdx uint32 // offset: 72
	_          uint32 // offset: 76
}

// Build statistics persisted alongside a compiled scene.
type BuildInfo struct {
	Nodes       int
	Leaves      int
	MaxDepth    int
	MaxLeafSize int
	BuildTimeMs int64
}

// A compiled scene. All triangle arrays are stored in BVH leaf order.
type Scene struct {
	Name string

	BvhNodes []BvhNode

	// Triangle positions used by CPU traversal.
	BvhPositions []types.Positions

	// GPU-friendly triangle attributes.
	PositionAttributes []PositionAttribute
	VertexAttributes   []VertexAttributes

	// TriangleIndices[i] is the index of the triangle stored at slot i in
	// the mesh the scene was compiled from.
	TriangleIndices []uint32

	// Material names referenced by VertexAttributes.TextureIdx.
	TextureNames []string

	BuildInfo BuildInfo
}

// Get the number of triangles in the scene.
func (sc *Scene) TriangleCount() int {
	return len(sc.BvhPositions)
}

// Get the scene AABB.
func (sc *Scene) Bounds() types.AABB {
	if len(sc.BvhNodes) == 0 {
		return types.EmptyAABB()
	}
	return sc.BvhNodes[0].AABB()
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"BVH", "---", "", fmtSize(sc.BvhNodes, sc.BvhPositions)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(sc.BvhNodes)), fmtSize(sc.BvhNodes)})
	table.Append([]string{"", "Positions", fmt.Sprint(len(sc.BvhPositions)), fmtSize(sc.BvhPositions)})
	table.Append([]string{"", "Leaves", fmt.Sprint(sc.BuildInfo.Leaves), ""})
	table.Append([]string{"", "Max depth", fmt.Sprint(sc.BuildInfo.MaxDepth), ""})
	table.Append([]string{"", "Max leaf size", fmt.Sprint(sc.BuildInfo.MaxLeafSize), ""})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"GPU attributes", "---", "", fmtSize(sc.PositionAttributes, sc.VertexAttributes)})
	table.Append([]string{"", "Positions", fmt.Sprint(len(sc.PositionAttributes)), fmtSize(sc.PositionAttributes)})
	table.Append([]string{"", "Vertex attrs", fmt.Sprint(len(sc.VertexAttributes)), fmtSize(sc.VertexAttributes)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Indices", "---", "", fmtSize(sc.TriangleIndices)})
	table.Append([]string{"", "Textures", fmt.Sprint(len(sc.TextureNames)), ""})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.BvhNodes, sc.BvhPositions, sc.PositionAttributes, sc.VertexAttributes, sc.TriangleIndices), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
