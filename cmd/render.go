package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"

	"github.com/Nelarius/rayfinder-sub000/asset"
	"github.com/Nelarius/rayfinder-sub000/asset/scene/reader"
	"github.com/Nelarius/rayfinder-sub000/renderer"
	"github.com/Nelarius/rayfinder-sub000/tracer"
	"github.com/disintegration/imaging"
	"github.com/urfave/cli"
)

// Render a BVH traversal-cost heatmap for a scene.
func RenderHeatmap(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	if ctx.Int("width") <= 0 || ctx.Int("height") <= 0 {
		return errors.New("frame width and height must be positive")
	}
	if ctx.Float64("fov") <= 0 || ctx.Float64("fov") >= 180 {
		return errors.New("vertical fov must be in the (0, 180) degree range")
	}

	opts := renderer.Options{
		FrameW:     uint32(ctx.Int("width")),
		FrameH:     uint32(ctx.Int("height")),
		NodeScale:  float32(ctx.Float64("scale")),
		NumTracers: ctx.Int("tracers"),
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	camera := tracer.FrameBounds(sc.Bounds(), float32(ctx.Float64("fov")), float32(opts.FrameW)/float32(opts.FrameH))
	logger.Infof("camera: %s", camera)

	r, err := renderer.NewDefault(sc, camera, tracer.NewPerfectScheduler(), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	err = r.Render()
	if err != nil {
		return err
	}

	// Display stats
	stats := r.Stats()
	logger.Noticef("frame statistics:\n%s", stats.Table())

	var frame image.Image = r.Frame()
	if upscale := ctx.Int("upscale"); upscale > 1 {
		frame = imaging.Resize(frame, int(opts.FrameW)*upscale, int(opts.FrameH)*upscale, imaging.NearestNeighbor)
	}
	return saveFrame(frame, ctx.String("out"))
}

// Save frame as a PNG to a local file or an s3://bucket/key location.
func saveFrame(frame image.Image, out string) error {
	if !strings.HasPrefix(out, "s3://") {
		logger.Noticef("saving frame to %s", out)
		return imaging.Save(frame, out)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.PNG); err != nil {
		return err
	}
	logger.Noticef("uploading frame to %s", out)
	return asset.PutS3Object(context.Background(), asset.S3ConfigFromEnv(), out, buf.Bytes(), "image/png")
}
