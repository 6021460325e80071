package writer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/log"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene to a local zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}

	err = encodeScene(zipFile, sc)
	if closeErr := zipFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1000000)
	return nil
}

type s3SceneWriter struct {
	logger   log.Logger
	location string
	s3Config asset.S3Config
}

// Create a writer that uploads the zip archive to an s3://bucket/key location.
func newS3SceneWriter(location string) *s3SceneWriter {
	return &s3SceneWriter{
		logger:   log.New("s3 writer"),
		location: location,
		s3Config: asset.S3ConfigFromEnv(),
	}
}

// Encode the scene in memory and upload it.
func (w *s3SceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("uploading compressed scene to %s", w.location)
	start := time.Now()

	var buf bytes.Buffer
	if err := encodeScene(&buf, sc); err != nil {
		return err
	}

	err := asset.PutS3Object(context.Background(), w.s3Config, w.location, buf.Bytes(), "application/zip")
	if err != nil {
		return err
	}

	w.logger.Noticef("uploaded %d bytes in %d ms", buf.Len(), time.Since(start).Nanoseconds()/1000000)
	return nil
}

// Encode scene blobs and metadata as a zip archive.
func encodeScene(out io.Writer, sc *scene.Scene) error {
	zw := zip.NewWriter(out)

	for _, entry := range sc.BlobEntries() {
		cw, err := zw.Create(entry.Name)
		if err != nil {
			return err
		}
		if err = scene.WriteBlob(cw, entry.Data); err != nil {
			return fmt.Errorf("zipSceneWriter: failed to write %s: %s", entry.Name, err.Error())
		}
	}

	cw, err := zw.Create(scene.ArchiveMetadata)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(sc.Metadata()); err != nil {
		return fmt.Errorf("zipSceneWriter: failed to write %s: %s", scene.ArchiveMetadata, err.Error())
	}

	return zw.Close()
}
