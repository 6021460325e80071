package types

import "github.com/chewxy/math32"

type Axis uint32

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// An axis-aligned bounding box. A non-empty box satisfies Min[i] <= Max[i]
// for every axis.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Return the empty box. Merging it with a point or box yields that point or
// box unchanged.
func EmptyAABB() AABB {
	return AABB{
		Min: Splat3(math32.Inf(1)),
		Max: Splat3(math32.Inf(-1)),
	}
}

// Create a box spanning two corner points given in any order.
func NewAABB(p1, p2 Vec3) AABB {
	return AABB{Min: MinVec3(p1, p2), Max: MaxVec3(p1, p2)}
}

// Grow the box so it includes point p.
func (b AABB) MergePoint(p Vec3) AABB {
	return AABB{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Grow the box so it includes other.
func (b AABB) Merge(other AABB) AABB {
	return AABB{Min: MinVec3(b.Min, other.Min), Max: MaxVec3(b.Max, other.Max)}
}

func (b AABB) Centroid() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Diagonal() Vec3 {
	return b.Max.Sub(b.Min)
}

// Returns true if the box does not contain any point.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Calculate the box surface area. Empty and degenerate boxes have a zero area.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Diagonal()
	return 2.0 * (d[0]*d[1] + d[0]*d[2] + d[1]*d[2])
}

// Get the axis with the largest extent. Ties prefer Z over Y over X.
func (b AABB) MaxDimension() Axis {
	d := b.Diagonal()
	if d[0] > d[1] && d[0] > d[2] {
		return XAxis
	} else if d[1] > d[2] {
		return YAxis
	}
	return ZAxis
}

// Returns true if other lies inside (or on the boundary of) this box.
func (b AABB) Contains(other AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}
