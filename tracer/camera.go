package tracer

import (
	"fmt"

	"github.com/Nelarius/rayfinder-sub000/types"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// The world up vector used for building the camera basis.
var worldUp = mgl32.Vec3{0, 1, 0}

// A pinhole camera. Rays for normalized image coordinates (u, v) are
// generated by interpolating along the image plane spanned by Horizontal and
// Vertical starting from LowerLeftCorner.
type Camera struct {
	Origin          types.Vec3
	LowerLeftCorner types.Vec3
	Horizontal      types.Vec3
	Vertical        types.Vec3

	Up    types.Vec3
	Right types.Vec3

	LensRadius float32
}

// Create a camera at origin looking at lookAt. The vertical field of view is
// specified in degrees.
func NewCamera(origin, lookAt types.Vec3, aperture, focusDistance, vfov, aspectRatio float32) *Camera {
	theta := mgl32.DegToRad(vfov)
	halfHeight := focusDistance * math32.Tan(0.5*theta)
	halfWidth := aspectRatio * halfHeight

	eye := mgl32.Vec3(origin)
	forward := mgl32.Vec3(lookAt).Sub(eye).Normalize()
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	lowerLeftCorner := eye.
		Sub(right.Mul(halfWidth)).
		Sub(up.Mul(halfHeight)).
		Add(forward.Mul(focusDistance))

	return &Camera{
		Origin:          origin,
		LowerLeftCorner: types.Vec3(lowerLeftCorner),
		Horizontal:      types.Vec3(right.Mul(2.0 * halfWidth)),
		Vertical:        types.Vec3(up.Mul(2.0 * halfHeight)),
		Up:              types.Vec3(up),
		Right:           types.Vec3(right),
		LensRadius:      0.5 * aperture,
	}
}

// Create a camera that frames the given bounding box. The camera is placed
// in front of the box centroid, offset along the X and Z axes by a fraction
// of the box's largest extent.
func FrameBounds(bounds types.AABB, vfov, aspectRatio float32) *Camera {
	diagonal := bounds.Diagonal()
	centroid := bounds.Centroid()
	extent := diagonal[bounds.MaxDimension()]

	origin := centroid.Sub(types.Vec3{-0.8 * extent, 0, 0.8 * extent})
	return NewCamera(origin, centroid, 0, 1, vfov, aspectRatio)
}

// Generate a normalized camera ray for the image coordinates u, v in [0, 1].
// (0, 0) maps to the lower left image corner.
func (c *Camera) GenerateRay(u, v float32) types.Ray {
	dir := c.LowerLeftCorner.
		Add(c.Horizontal.Mul(u)).
		Add(c.Vertical.Mul(v)).
		Sub(c.Origin)

	return types.Ray{
		Origin:    c.Origin,
		Direction: dir.Normalize(),
	}
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"Camera:\nOrigin     : (%3.3f, %3.3f, %3.3f)\nLowerLeft  : (%3.3f, %3.3f, %3.3f)\nHorizontal : (%3.3f, %3.3f, %3.3f)\nVertical   : (%3.3f, %3.3f, %3.3f)",
		c.Origin[0], c.Origin[1], c.Origin[2],
		c.LowerLeftCorner[0], c.LowerLeftCorner[1], c.LowerLeftCorner[2],
		c.Horizontal[0], c.Horizontal[1], c.Horizontal[2],
		c.Vertical[0], c.Vertical[1], c.Vertical[2],
	)
}
