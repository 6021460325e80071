package types

// Triangle vertex positions.
type Positions struct {
	V0, V1, V2 Vec3
}

// Per-vertex triangle normals.
type Normals struct {
	N0, N1, N2 Vec3
}

// Per-vertex triangle texture coordinates.
type TexCoords struct {
	UV0, UV1, UV2 Vec2
}

// Calculate triangle surface area.
func (t Positions) SurfaceArea() float32 {
	return 0.5 * t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Len()
}

// Returns true if the triangle area is (nearly) zero.
func (t Positions) IsDegenerate() bool {
	return t.SurfaceArea() <= floatCmpEpsilon
}

// Get the triangle AABB.
func (t Positions) Bounds() AABB {
	return AABB{
		Min: MinVec3(MinVec3(t.V0, t.V1), t.V2),
		Max: MaxVec3(MaxVec3(t.V0, t.V1), t.V2),
	}
}

// Get the normalized face normal using the vertex winding order.
func (t Positions) FaceNormal() Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Normalize()
}

type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// Get the point along the ray at distance t.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
