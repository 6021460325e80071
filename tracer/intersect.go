package tracer

import (
	"github.com/Nelarius/rayfinder-sub000/types"
	"github.com/chewxy/math32"
)

// Tolerance used by the ray-triangle test for rejecting rays that are
// parallel to the triangle plane and hits too close to the ray origin.
const Epsilon float32 = 1e-5

// A ray-triangle hit.
type Intersection struct {
	// Hit point in world space.
	P types.Vec3

	// Distance along the ray direction.
	T float32
}

// Intersect a ray with a triangle using the Möller-Trumbore algorithm. A hit
// is only reported if its distance t satisfies Epsilon < t < tMax. Points on
// the triangle edges and vertices count as hits.
func RayIntersectTriangle(ray types.Ray, tri types.Positions, tMax float32) (Intersection, bool) {
	e1 := tri.V1.Sub(tri.V0)
	e2 := tri.V2.Sub(tri.V0)

	h := ray.Direction.Cross(e2)
	det := e1.Dot(h)
	if det > -Epsilon && det < Epsilon {
		return Intersection{}, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(tri.V0)
	u := invDet * s.Dot(h)
	if u < 0 || u > 1 {
		return Intersection{}, false
	}

	q := s.Cross(e1)
	v := invDet * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return Intersection{}, false
	}

	t := invDet * e2.Dot(q)
	if t <= Epsilon || t >= tMax {
		return Intersection{}, false
	}

	return Intersection{
		P: tri.V0.Add(e1.Mul(u)).Add(e2.Mul(v)),
		T: t,
	}, true
}

// Per-ray data shared by all slab tests performed while traversing a BVH.
type RayAabbIntersector struct {
	Origin types.Vec3
	InvDir types.Vec3

	// 1 if the ray direction along the axis is negative; 0 otherwise.
	DirNeg [3]uint32
}

// Create a slab test helper for the given ray.
func NewRayAabbIntersector(ray types.Ray) RayAabbIntersector {
	invDir := ray.Direction.Inv()
	intersector := RayAabbIntersector{
		Origin: ray.Origin,
		InvDir: invDir,
	}
	for axis := 0; axis < 3; axis++ {
		if invDir[axis] < 0 {
			intersector.DirNeg[axis] = 1
		}
	}
	return intersector
}

// Check whether the ray overlaps box somewhere in [0, tMax). Axes where the
// ray origin lies on a slab plane while the direction component is zero
// produce NaN distances; they are skipped instead of rejecting the box.
func RayIntersectAabb(intersector *RayAabbIntersector, box types.AABB, tMax float32) bool {
	bounds := [2]types.Vec3{box.Min, box.Max}

	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		neg := intersector.DirNeg[axis]
		t0 := (bounds[neg][axis] - intersector.Origin[axis]) * intersector.InvDir[axis]
		t1 := (bounds[1-neg][axis] - intersector.Origin[axis]) * intersector.InvDir[axis]

		if tmin > t1 || t0 > tmax {
			return false
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
	}

	return tmin < tMax && tmax > 0
}
