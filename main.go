package main

import (
	"fmt"
	"os"

	"github.com/Nelarius/rayfinder-sub000/cmd"
	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

func main() {
	// Settings such as S3 credentials may live in a .env file next to the
	// scenes; variables already present in the environment take precedence.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "could not load .env file: %s\n", err)
	}

	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "rayfinder"
	app.Usage = "build and inspect bounding volume hierarchies for triangle meshes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile wavefront obj meshes into a binary compressed format",
			Description: `
Parse a triangle mesh from a wavefront obj file, build a BVH tree using the
surface area heuristic and package the reordered triangles in a GPU-friendly
format.

The optimized scene data is written to a zip archive (a local file or an
s3://bucket/key location) which can be supplied as an argument to the info
and visualize commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output archive; defaults to the input path with a .zip extension",
				},
				cli.BoolFlag{
					Name:  "validate",
					Usage: "verify BVH containment and triangle coverage before writing",
				},
			},
			Action: cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print scene and BVH statistics",
			ArgsUsage: "scene_file.zip",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "validate",
					Usage: "verify BVH containment and triangle coverage",
				},
			},
			Action: cmd.ShowSceneInfo,
		},
		{
			Name:  "visualize",
			Usage: "render a heatmap of BVH nodes visited per primary ray",
			Description: `
Trace one primary ray per pixel from a camera framing the scene bounds and
write a grayscale image where brighter pixels visited more BVH nodes.`,
			ArgsUsage: "scene_file.zip",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 70,
					Usage: "vertical field of view in degrees",
				},
				cli.IntFlag{
					Name:  "tracers",
					Value: 0,
					Usage: "number of cpu tracers; 0 uses one tracer per cpu",
				},
				cli.Float64Flag{
					Name:  "scale",
					Value: 0.01,
					Usage: "gray level increment per visited node",
				},
				cli.IntFlag{
					Name:  "upscale",
					Value: 1,
					Usage: "integer upscale factor applied to the saved image",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "heatmap.png",
					Usage: "image filename (or s3://bucket/key) for the rendered frame",
				},
			},
			Action: cmd.RenderHeatmap,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
