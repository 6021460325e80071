package cmd

import (
	"errors"
	"strings"

	"github.com/Nelarius/rayfinder-sub000/asset/compiler/bvh"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/asset/scene/reader"
	"github.com/Nelarius/rayfinder-sub000/asset/scene/writer"
	"github.com/urfave/cli"
)

// Compile obj meshes into zip scene archives.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing obj file argument")
	}
	out := ctx.String("out")
	if out != "" && ctx.NArg() > 1 {
		return errors.New("the --out flag can only be used when compiling a single file")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile)
		if err != nil {
			return err
		}

		if ctx.Bool("validate") {
			if err = validateScene(sc); err != nil {
				return err
			}
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())

		zipFile := out
		if zipFile == "" {
			zipFile = strings.TrimSuffix(sceneFile, ".obj") + ".zip"
		}
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			return err
		}
	}

	return nil
}

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".zip") && !strings.HasSuffix(sceneFile, ".obj") {
		return errors.New("only scene files with a .zip or .obj extension are supported")
	}

	sc, err := reader.ReadScene(sceneFile)
	if err != nil {
		return err
	}

	if ctx.Bool("validate") {
		if err = validateScene(sc); err != nil {
			return err
		}
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())
	return nil
}

func validateScene(sc *scene.Scene) error {
	err := bvh.ValidateNodes(sc.BvhNodes, sc.BvhPositions, sc.TriangleIndices)
	if err != nil {
		return err
	}
	logger.Noticef("validated BVH with %d nodes and %d triangles", len(sc.BvhNodes), sc.TriangleCount())
	return nil
}
