package tracer

import (
	"testing"
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset/compiler"
	"github.com/Nelarius/rayfinder-sub000/asset/compiler/input"
	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/types"
	"github.com/chewxy/math32"
)

func TestCpuTracerTraceBlock(t *testing.T) {
	const (
		frameW    = 32
		frameH    = 24
		nodeScale = 0.01
	)

	sc := compileTestScene(t)
	camera := FrameBounds(sc.Bounds(), 70, float32(frameW)/float32(frameH))

	tr := NewCpuTracer("cpu-0")
	defer tr.Close()

	frameBuffer := make([]uint8, 4*frameW*frameH)
	if err := tr.Setup(frameW, frameH, frameBuffer); err != nil {
		t.Fatal(err)
	}
	tr.AppendChange(SetScene, sc)
	tr.AppendChange(UpdateCamera, camera)
	if err := tr.ApplyPendingChanges(); err != nil {
		t.Fatal(err)
	}

	// Trace the frame in two blocks.
	doneChan := make(chan uint32, 2)
	errChan := make(chan error, 2)
	tr.Enqueue(BlockRequest{BlockY: 0, BlockH: 10, NodeScale: nodeScale, DoneChan: doneChan, ErrChan: errChan})
	waitForBlock(t, doneChan, errChan, 10)
	tr.Enqueue(BlockRequest{BlockY: 10, BlockH: frameH - 10, NodeScale: nodeScale, DoneChan: doneChan, ErrChan: errChan})
	waitForBlock(t, doneChan, errChan, frameH-10)

	stats := tr.Stats()
	if stats.BlockH != frameH-10 || stats.NodesVisited == 0 {
		t.Fatalf("unexpected tracer stats %+v", stats)
	}

	var bvhStats BvhStats
	for y := 0; y < frameH; y++ {
		for x := 0; x < frameW; x++ {
			u := float32(x) / float32(frameW)
			v := 1.0 - float32(y+1)/float32(frameH)
			IntersectScene(camera.GenerateRay(u, v), sc, math32.MaxFloat32, &bvhStats)
			expP := uint8(math32.Min(nodeScale*float32(bvhStats.NodesVisited), 1.0) * 255.0)

			offset := 4 * (y*frameW + x)
			pixel := frameBuffer[offset : offset+4]
			if pixel[0] != expP || pixel[1] != expP || pixel[2] != expP || pixel[3] != 255 {
				t.Fatalf("pixel (%d, %d): expected gray value %d; got %v", x, y, expP, pixel)
			}
		}
	}
}

func TestCpuTracerErrors(t *testing.T) {
	tr := NewCpuTracer("cpu-0")
	defer tr.Close()

	if err := tr.Setup(4, 4, make([]uint8, 10)); err == nil {
		t.Fatal("expected Setup to fail for a short frame buffer")
	}
	if err := tr.Setup(4, 4, make([]uint8, 64)); err != nil {
		t.Fatal(err)
	}

	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(BlockRequest{BlockY: 0, BlockH: 4, DoneChan: doneChan, ErrChan: errChan})
	if err := waitForError(t, doneChan, errChan); err != ErrSceneNotDefined {
		t.Fatalf("expected error %v; got %v", ErrSceneNotDefined, err)
	}

	tr.AppendChange(SetScene, compileTestScene(t))
	if err := tr.ApplyPendingChanges(); err != nil {
		t.Fatal(err)
	}
	tr.Enqueue(BlockRequest{BlockY: 0, BlockH: 4, DoneChan: doneChan, ErrChan: errChan})
	if err := waitForError(t, doneChan, errChan); err != ErrCameraNotDefined {
		t.Fatalf("expected error %v; got %v", ErrCameraNotDefined, err)
	}

	tr.AppendChange(UpdateCamera, "not a camera")
	if err := tr.ApplyPendingChanges(); err == nil {
		t.Fatal("expected ApplyPendingChanges to reject invalid camera data")
	}
}

func TestCpuTracerCloseIsIdempotent(t *testing.T) {
	tr := NewCpuTracer("cpu-0")
	tr.Close()
	tr.Close()
}

func compileTestScene(t *testing.T) *scene.Scene {
	mesh := input.NewMesh("sphere")
	mesh.Materials = append(mesh.Materials, "default")
	for _, tri := range sphereMesh(types.Vec3{0, 0, 0}, 2, 12, 24) {
		n := tri.FaceNormal()
		mesh.AddTriangle(tri, types.Normals{N0: n, N1: n, N2: n}, types.TexCoords{}, 0)
	}

	sc, err := compiler.Compile(mesh)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func waitForBlock(t *testing.T, doneChan <-chan uint32, errChan <-chan error, expRows uint32) {
	select {
	case rows := <-doneChan:
		if rows != expRows {
			t.Fatalf("expected %d completed rows; got %d", expRows, rows)
		}
	case err := <-errChan:
		t.Fatal(err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for block to complete")
	}
}

func waitForError(t *testing.T, doneChan <-chan uint32, errChan <-chan error) error {
	select {
	case <-doneChan:
		t.Fatal("expected block to fail")
	case err := <-errChan:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for block error")
	}
	return nil
}
