package tracer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/log"
	"github.com/chewxy/math32"
)

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// Frame dimensions and the RGBA frame buffer shared with the renderer.
	// Each tracer only writes to the rows of the blocks it is assigned.
	frameW      uint32
	frameH      uint32
	frameBuffer []uint8

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[ChangeType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last traced block.
	stats *Stats

	sceneData *scene.Scene
	camera    *Camera
}

// Create a tracer that traces blocks on the CPU using a dedicated
// go-routine.
func NewCpuTracer(id string) Tracer {
	tr := &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		blockReqChan: make(chan BlockRequest),
		updateBuffer: make(map[ChangeType]interface{}),
		stats:        &Stats{},
	}
	tr.startWorker()
	return tr
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers run on a single core.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1.0
}

// Setup the tracer frame buffer.
func (tr *cpuTracer) Setup(frameW, frameH uint32, frameBuffer []uint8) error {
	tr.Lock()
	defer tr.Unlock()

	if frameW == 0 || frameH == 0 {
		return fmt.Errorf("tracer: invalid frame dimensions %dx%d", frameW, frameH)
	}
	if expLen := int(4 * frameW * frameH); len(frameBuffer) != expLen {
		return fmt.Errorf("tracer: expected frame buffer of %d bytes; got %d", expLen, len(frameBuffer))
	}

	tr.frameW = frameW
	tr.frameH = frameH
	tr.frameBuffer = frameBuffer
	return nil
}

// Shutdown the tracer worker.
func (tr *cpuTracer) Close() {
	tr.Lock()
	closeChan := tr.closeChan
	tr.closeChan = nil
	tr.Unlock()

	if closeChan == nil {
		return
	}

	closeChan <- struct{}{}
	tr.wg.Wait()
	close(closeChan)

	tr.Lock()
	tr.sceneData = nil
	tr.camera = nil
	tr.Unlock()
}

// Enqueue block request. The call blocks until the worker picks up the
// request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	tr.blockReqChan <- blockReq
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) AppendChange(changeType ChangeType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()

	tr.updateBuffer[changeType] = data
}

// Apply all pending changes from the update buffer.
func (tr *cpuTracer) ApplyPendingChanges() error {
	tr.Lock()
	defer tr.Unlock()

	for changeType, data := range tr.updateBuffer {
		switch changeType {
		case SetScene:
			sc, ok := data.(*scene.Scene)
			if !ok {
				return fmt.Errorf("tracer: expected *scene.Scene for scene change; got %T", data)
			}
			tr.sceneData = sc
		case UpdateCamera:
			camera, ok := data.(*Camera)
			if !ok {
				return fmt.Errorf("tracer: expected *tracer.Camera for camera change; got %T", data)
			}
			tr.camera = camera
		default:
			return fmt.Errorf("tracer: unsupported change type %d", changeType)
		}
	}

	tr.updateBuffer = make(map[ChangeType]interface{})
	return nil
}

// Retrieve last frame statistics.
func (tr *cpuTracer) Stats() *Stats {
	return tr.stats
}

// Spawn a go-routine to process block trace requests.
func (tr *cpuTracer) startWorker() {
	closeChan := make(chan struct{})
	tr.closeChan = closeChan

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-tr.blockReqChan:
				startTime := time.Now()
				nodesVisited, err := tr.traceBlock(&blockReq)
				if err != nil {
					tr.logger.Errorf("failed to trace block [%d, %d): %s", blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, err)
					blockReq.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.BlockTime = time.Since(startTime).Nanoseconds()
				tr.stats.NodesVisited = nodesVisited

				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Trace a block of rows and write the BVH traversal cost of each pixel as
// a grayscale value to the frame buffer.
func (tr *cpuTracer) traceBlock(blockReq *BlockRequest) (uint64, error) {
	tr.Lock()
	sc, camera := tr.sceneData, tr.camera
	frameW, frameH, frameBuffer := tr.frameW, tr.frameH, tr.frameBuffer
	tr.Unlock()

	switch {
	case sc == nil:
		return 0, ErrSceneNotDefined
	case camera == nil:
		return 0, ErrCameraNotDefined
	case frameBuffer == nil:
		return 0, ErrNotSetup
	case blockReq.BlockY+blockReq.BlockH > frameH:
		return 0, fmt.Errorf("tracer: block [%d, %d) exceeds frame height %d", blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, frameH)
	}

	var (
		stats        BvhStats
		nodesVisited uint64
	)
	for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
		v := 1.0 - float32(y+1)/float32(frameH)
		offset := 4 * y * frameW
		for x := uint32(0); x < frameW; x++ {
			u := float32(x) / float32(frameW)
			ray := camera.GenerateRay(u, v)
			IntersectScene(ray, sc, math32.MaxFloat32, &stats)
			nodesVisited += uint64(stats.NodesVisited)

			p := uint8(math32.Min(blockReq.NodeScale*float32(stats.NodesVisited), 1.0) * 255.0)
			frameBuffer[offset+0] = p
			frameBuffer[offset+1] = p
			frameBuffer[offset+2] = p
			frameBuffer[offset+3] = 255
			offset += 4
		}
	}

	return nodesVisited, nil
}
