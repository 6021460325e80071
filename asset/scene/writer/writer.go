package writer

import (
	"strings"

	"github.com/Nelarius/rayfinder-sub000/asset/scene"
)

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write compiled scene.
	Write(*scene.Scene) error
}

// Write scene to a zip archive. The target may be a local path or an
// s3://bucket/key location.
func WriteScene(sc *scene.Scene, target string) error {
	var writer Writer
	if strings.HasPrefix(target, "s3://") {
		writer = newS3SceneWriter(target)
	} else {
		writer = newZipSceneWriter(target)
	}
	return writer.Write(sc)
}
