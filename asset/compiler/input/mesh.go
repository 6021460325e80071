package input

import (
	"fmt"

	"github.com/Nelarius/rayfinder-sub000/types"
)

// A triangle mesh whose attributes have been unrolled so that each slice
// element holds the attributes of a single triangle. All slices are index
// aligned.
type Mesh struct {
	Name string

	Positions []types.Positions
	Normals   []types.Normals
	TexCoords []types.TexCoords

	// Index into Materials for each triangle.
	MaterialIndices []uint32

	// Material names in order of first use.
	Materials []string
}

// Create a new empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:            name,
		Positions:       make([]types.Positions, 0),
		Normals:         make([]types.Normals, 0),
		TexCoords:       make([]types.TexCoords, 0),
		MaterialIndices: make([]uint32, 0),
		Materials:       make([]string, 0),
	}
}

// Append a triangle to the mesh.
func (m *Mesh) AddTriangle(pos types.Positions, normals types.Normals, uvs types.TexCoords, materialIndex uint32) {
	m.Positions = append(m.Positions, pos)
	m.Normals = append(m.Normals, normals)
	m.TexCoords = append(m.TexCoords, uvs)
	m.MaterialIndices = append(m.MaterialIndices, materialIndex)
}

// Get the number of mesh triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Positions)
}

// Get the mesh AABB.
func (m *Mesh) Bounds() types.AABB {
	bounds := types.EmptyAABB()
	for _, tri := range m.Positions {
		bounds = bounds.Merge(tri.Bounds())
	}
	return bounds
}

// Ensure that all attribute slices are index aligned and that material
// indices are in range.
func (m *Mesh) Validate() error {
	count := len(m.Positions)
	if count == 0 {
		return fmt.Errorf("mesh %q: no triangles", m.Name)
	}
	if len(m.Normals) != count || len(m.TexCoords) != count || len(m.MaterialIndices) != count {
		return fmt.Errorf(
			"mesh %q: attribute count mismatch (positions: %d, normals: %d, uvs: %d, materials: %d)",
			m.Name, count, len(m.Normals), len(m.TexCoords), len(m.MaterialIndices),
		)
	}
	for index, matIndex := range m.MaterialIndices {
		if int(matIndex) >= len(m.Materials) {
			return fmt.Errorf("mesh %q: triangle %d references unknown material %d", m.Name, index, matIndex)
		}
	}
	return nil
}
