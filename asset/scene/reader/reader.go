package reader

import (
	"fmt"
	"strings"

	"github.com/Nelarius/rayfinder-sub000/asset"
	"github.com/Nelarius/rayfinder-sub000/asset/compiler"
	"github.com/Nelarius/rayfinder-sub000/asset/compiler/input"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
)

// The MeshReader interface is implemented by readers of uncompiled geometry.
type MeshReader interface {
	// Read a triangle mesh from a resource.
	Read(*asset.Resource) (*input.Mesh, error)
}

// The SceneReader interface is implemented by readers of compiled scenes.
type SceneReader interface {
	// Read compiled scene from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read a triangle mesh from a local file, http(s) URL or s3 location.
func ReadMesh(filename string) (*input.Mesh, error) {
	if !strings.HasSuffix(filename, ".obj") {
		return nil, fmt.Errorf("readMesh: unsupported file format")
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var reader MeshReader = newWavefrontReader()
	return reader.Read(res)
}

// Read a scene. Compiled zip archives are loaded as-is while obj files are
// parsed and compiled on the fly.
func ReadScene(filename string) (*scene.Scene, error) {
	switch {
	case strings.HasSuffix(filename, ".obj"):
		mesh, err := ReadMesh(filename)
		if err != nil {
			return nil, err
		}
		return compiler.Compile(mesh)
	case strings.HasSuffix(filename, ".zip"):
		res, err := asset.NewResource(filename, nil)
		if err != nil {
			return nil, err
		}
		defer res.Close()

		var reader SceneReader = newZipSceneReader()
		return reader.Read(res)
	}
	return nil, fmt.Errorf("readScene: unsupported file format")
}
