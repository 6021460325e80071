package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/urfave/cli"
)

const cubeObj = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
usemtl side
f 1 2 3 4
f 5 8 7 6
f 1 4 8 5
f 2 6 7 3
usemtl cap
f 1 5 6 2
f 4 3 7 8
`

func TestCompileInfoVisualize(t *testing.T) {
	dir := t.TempDir()
	objFile := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(objFile, []byte(cubeObj), 0644); err != nil {
		t.Fatal(err)
	}

	// Default output path replaces the extension
	err := CompileScene(newContext(t, map[string]string{"validate": "true"}, objFile))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(filepath.Join(dir, "cube.zip")); err != nil {
		t.Fatalf("expected compiled archive next to the obj file; got %v", err)
	}

	zipFile := filepath.Join(dir, "compiled.zip")
	err = CompileScene(newContext(t, map[string]string{"out": zipFile}, objFile))
	if err != nil {
		t.Fatal(err)
	}

	if err = ShowSceneInfo(newContext(t, map[string]string{"validate": "true"}, zipFile)); err != nil {
		t.Fatal(err)
	}

	pngFile := filepath.Join(dir, "heatmap.png")
	err = RenderHeatmap(newContext(t, map[string]string{
		"width":   "16",
		"height":  "8",
		"fov":     "60",
		"tracers": "2",
		"scale":   "0.1",
		"upscale": "2",
		"out":     pngFile,
	}, zipFile))
	if err != nil {
		t.Fatal(err)
	}

	img, err := imaging.Open(pngFile)
	if err != nil {
		t.Fatal(err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 32 || bounds.Dy() != 16 {
		t.Fatalf("expected a 32x16 image; got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()

	type spec struct {
		action   func(*cli.Context) error
		flags    map[string]string
		args     []string
		expError string
	}
	specs := []spec{
		{CompileScene, nil, nil, "missing obj file argument"},
		{CompileScene, map[string]string{"out": "out.zip"}, []string{"a.obj", "b.obj"}, "the --out flag can only be used when compiling a single file"},
		{CompileScene, nil, []string{filepath.Join(dir, "missing.obj")}, "no such file or directory"},
		{ShowSceneInfo, nil, nil, "missing scene file argument"},
		{ShowSceneInfo, nil, []string{"scene.gltf"}, "only scene files with a .zip or .obj extension are supported"},
		{RenderHeatmap, nil, nil, "missing scene file argument"},
		{RenderHeatmap, map[string]string{"width": "0"}, []string{"scene.zip"}, "frame width and height must be positive"},
		{RenderHeatmap, map[string]string{"fov": "180"}, []string{"scene.zip"}, "vertical fov must be in the (0, 180) degree range"},
	}

	for index, s := range specs {
		err := s.action(newContext(t, s.flags, s.args...))
		if err == nil || !strings.Contains(err.Error(), s.expError) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expError, err)
		}
	}
}

// Create a cli context exposing the flags used by the scene commands.
func newContext(t *testing.T, flags map[string]string, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.Bool("v", false, "")
	set.Bool("vv", false, "")
	set.String("out", "", "")
	set.Bool("validate", false, "")
	set.Int("width", 64, "")
	set.Int("height", 64, "")
	set.Float64("fov", 70, "")
	set.Int("tracers", 1, "")
	set.Float64("scale", 0.01, "")
	set.Int("upscale", 1, "")

	for name, value := range flags {
		if err := set.Set(name, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(nil, set, nil)
}
