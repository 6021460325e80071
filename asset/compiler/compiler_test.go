package compiler

import (
	"strings"
	"testing"

	"github.com/Nelarius/rayfinder-sub000/asset/compiler/bvh"
	"github.com/Nelarius/rayfinder-sub000/asset/compiler/input"
	"github.com/Nelarius/rayfinder-sub000/types"
)

func TestCompile(t *testing.T) {
	mesh := input.NewMesh("grid")
	mesh.Materials = append(mesh.Materials, "red", "green", "blue")

	// A grid of quads; each quad gets its own material index.
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			fx, fy := float32(x), float32(y)
			matIndex := uint32((x + y) % 3)
			p00, p10 := types.Vec3{fx, fy, 0}, types.Vec3{fx + 1, fy, 0}
			p01, p11 := types.Vec3{fx, fy + 1, 0}, types.Vec3{fx + 1, fy + 1, 0}
			n := types.Vec3{0, 0, 1}
			normals := types.Normals{N0: n, N1: n, N2: n}

			mesh.AddTriangle(types.Positions{V0: p00, V1: p10, V2: p11}, normals, types.TexCoords{UV0: types.Vec2{fx, fy}}, matIndex)
			mesh.AddTriangle(types.Positions{V0: p00, V1: p11, V2: p01}, normals, types.TexCoords{UV0: types.Vec2{fx, fy}}, matIndex)
		}
	}

	sc, err := Compile(mesh)
	if err != nil {
		t.Fatal(err)
	}

	count := mesh.TriangleCount()
	if sc.TriangleCount() != count || len(sc.PositionAttributes) != count || len(sc.VertexAttributes) != count {
		t.Fatalf("expected %d triangles in every attribute list; got %d, %d, %d", count, sc.TriangleCount(), len(sc.PositionAttributes), len(sc.VertexAttributes))
	}
	if len(sc.TextureNames) != 3 || sc.Name != "grid" {
		t.Fatalf("expected scene metadata to be copied; got name %q and textures %v", sc.Name, sc.TextureNames)
	}
	if err = bvh.ValidateNodes(sc.BvhNodes, sc.BvhPositions, sc.TriangleIndices); err != nil {
		t.Fatal(err)
	}
	if sc.BuildInfo.Nodes != len(sc.BvhNodes) || sc.BuildInfo.Leaves == 0 {
		t.Fatalf("unexpected build info %+v", sc.BuildInfo)
	}
	if sc.Bounds().Min != (types.Vec3{0, 0, 0}) || sc.Bounds().Max != (types.Vec3{20, 20, 0}) {
		t.Fatalf("unexpected scene bounds %v", sc.Bounds())
	}

	for slot := 0; slot < count; slot++ {
		srcIdx := sc.TriangleIndices[slot]
		if sc.BvhPositions[slot] != mesh.Positions[srcIdx] {
			t.Fatalf("slot %d: expected positions of triangle %d", slot, srcIdx)
		}

		pa := sc.PositionAttributes[slot]
		if pa.P0 != mesh.Positions[srcIdx].V0 || pa.P1 != mesh.Positions[srcIdx].V1 || pa.P2 != mesh.Positions[srcIdx].V2 {
			t.Fatalf("slot %d: position attribute does not match triangle %d", slot, srcIdx)
		}

		va := sc.VertexAttributes[slot]
		if va.TextureIdx != mesh.MaterialIndices[srcIdx] {
			t.Fatalf("slot %d: expected texture index %d; got %d", slot, mesh.MaterialIndices[srcIdx], va.TextureIdx)
		}
		if va.UV0 != mesh.TexCoords[srcIdx].UV0 || va.N2 != mesh.Normals[srcIdx].N2 {
			t.Fatalf("slot %d: vertex attributes do not match triangle %d", slot, srcIdx)
		}
	}

	if !strings.Contains(sc.Stats(), "Max leaf size") {
		t.Fatal("expected stats table to include BVH build info")
	}
}

func TestCompileInvalidMesh(t *testing.T) {
	_, err := Compile(input.NewMesh("empty"))
	if err == nil || !strings.Contains(err.Error(), "no triangles") {
		t.Fatalf("expected compile to fail for an empty mesh; got %v", err)
	}
}
