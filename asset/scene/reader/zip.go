package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset"
	"github.com/Nelarius/rayfinder-sub000/asset/compiler/bvh"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/log"
)

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader.
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read compiled scene from a zip archive.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(sceneRes)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zipSceneReader: %s", err.Error())
	}

	sc := &scene.Scene{}
	blobs := make(map[string]interface{})
	for _, entry := range sc.BlobEntries() {
		blobs[entry.Name] = entry.Data
	}

	var hasMetadata bool
	for _, f := range zr.File {
		target, isBlob := blobs[f.Name]
		if !isBlob && f.Name != scene.ArchiveMetadata {
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zipSceneReader: failed to load %s: %s", f.Name, err.Error())
		}

		if isBlob {
			err = scene.ReadBlobLimit(rc, target, f.UncompressedSize64)
		} else {
			var md scene.Metadata
			if err = gob.NewDecoder(rc).Decode(&md); err == nil {
				sc.SetMetadata(md)
				hasMetadata = true
			}
		}
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zipSceneReader: failed to load %s: %s", f.Name, err.Error())
		}
		delete(blobs, f.Name)
	}

	if !hasMetadata {
		return nil, fmt.Errorf("zipSceneReader: missing %s", scene.ArchiveMetadata)
	}
	for _, entry := range sc.BlobEntries() {
		if _, missing := blobs[entry.Name]; missing {
			return nil, fmt.Errorf("zipSceneReader: missing %s", entry.Name)
		}
	}
	if err = p.validate(sc); err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1000000)
	return sc, nil
}

// Check that all per-triangle arrays agree on the triangle count and that the
// node list forms a well formed tree over them.
func (p *zipSceneReader) validate(sc *scene.Scene) error {
	count := len(sc.BvhPositions)
	if len(sc.PositionAttributes) != count || len(sc.VertexAttributes) != count || len(sc.TriangleIndices) != count {
		return fmt.Errorf(
			"zipSceneReader: triangle count mismatch (positions: %d, position attributes: %d, vertex attributes: %d, indices: %d)",
			count, len(sc.PositionAttributes), len(sc.VertexAttributes), len(sc.TriangleIndices),
		)
	}
	if len(sc.BvhNodes) == 0 {
		return fmt.Errorf("zipSceneReader: scene does not contain any BVH nodes")
	}
	if err := bvh.ValidateNodes(sc.BvhNodes, sc.BvhPositions, sc.TriangleIndices); err != nil {
		return fmt.Errorf("zipSceneReader: %s", err.Error())
	}
	return nil
}
