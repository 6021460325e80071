package compiler

import (
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset/compiler/bvh"
	"github.com/Nelarius/rayfinder-sub000/asset/compiler/input"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/log"
)

type sceneCompiler struct {
	mesh           *input.Mesh
	optimizedScene *scene.Scene
	logger         log.Logger

	bvh *bvh.Bvh
}

// Compile a mesh parsed by a scene reader into a GPU-friendly optimized scene
// format. All per-triangle arrays of the returned scene are stored in BVH
// leaf order.
func Compile(mesh *input.Mesh) (*scene.Scene, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	compiler := &sceneCompiler{
		mesh: mesh,
		optimizedScene: &scene.Scene{
			Name:         mesh.Name,
			TextureNames: append([]string(nil), mesh.Materials...),
		},
		logger: log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene %q", mesh.Name)

	compiler.partitionGeometry()
	compiler.packAttributes()

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Build a BVH over the mesh triangles and copy the node list and the
// reordered triangle positions to the optimized scene.
func (sc *sceneCompiler) partitionGeometry() {
	sc.logger.Infof("building BVH tree (%d triangles)", sc.mesh.TriangleCount())

	sc.bvh = bvh.Build(sc.mesh.Positions, sc.mesh.Normals, sc.mesh.TexCoords)

	stats := sc.bvh.Stats
	sc.optimizedScene.BvhNodes = sc.bvh.Nodes
	sc.optimizedScene.BvhPositions = sc.bvh.Positions
	sc.optimizedScene.TriangleIndices = sc.bvh.TriangleIndices
	sc.optimizedScene.BuildInfo = scene.BuildInfo{
		Nodes:       stats.Nodes,
		Leaves:      stats.Leaves,
		MaxDepth:    stats.MaxDepth,
		MaxLeafSize: stats.MaxLeafSize,
		BuildTimeMs: stats.BuildTime.Nanoseconds() / 1e6,
	}

	sc.logger.Infof(
		"BVH tree has %d nodes (%d leaves, max depth %d, max leaf size %d)",
		stats.Nodes, stats.Leaves, stats.MaxDepth, stats.MaxLeafSize,
	)
}

// Pack the reordered triangle attributes into the padded layout expected by
// the GPU kernels.
func (sc *sceneCompiler) packAttributes() {
	materialIndices := bvh.ReorderAttributes(sc.mesh.MaterialIndices, sc.bvh.TriangleIndices)

	count := len(sc.bvh.Positions)
	positionAttributes := make([]scene.PositionAttribute, count)
	vertexAttributes := make([]scene.VertexAttributes, count)
	for slot := 0; slot < count; slot++ {
		pos := sc.bvh.Positions[slot]
		positionAttributes[slot].P0 = pos.V0
		positionAttributes[slot].P1 = pos.V1
		positionAttributes[slot].P2 = pos.V2

		normals := sc.bvh.Normals[slot]
		uvs := sc.bvh.TexCoords[slot]
		vertexAttributes[slot].N0 = normals.N0
		vertexAttributes[slot].N1 = normals.N1
		vertexAttributes[slot].N2 = normals.N2
		vertexAttributes[slot].UV0 = uvs.UV0
		vertexAttributes[slot].UV1 = uvs.UV1
		vertexAttributes[slot].UV2 = uvs.UV2
		vertexAttributes[slot].TextureIdx = materialIndices[slot]
	}

	sc.optimizedScene.PositionAttributes = positionAttributes
	sc.optimizedScene.VertexAttributes = vertexAttributes
}
