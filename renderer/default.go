package renderer

import (
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/Nelarius/rayfinder-sub000/asset/scene"
	"github.com/Nelarius/rayfinder-sub000/log"
	"github.com/Nelarius/rayfinder-sub000/tracer"
)

// The default renderer splits each frame into row blocks and traces them in
// parallel using a pool of cpu tracers. Each pixel encodes the number of BVH
// nodes visited by its primary ray.
type defaultRenderer struct {
	logger log.Logger

	// Frame buffer shared by all tracers (RGBA, 4 bytes per pixel).
	frame *image.NRGBA

	tracers   []tracer.Tracer
	scheduler tracer.BlockScheduler
	options   Options

	// Channels for block completion signals.
	doneChan chan uint32
	errChan  chan error

	stats FrameStats
}

// Create a new renderer for the given scene and camera.
func NewDefault(sc *scene.Scene, camera *tracer.Camera, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	switch {
	case sc == nil || len(sc.BvhNodes) == 0:
		return nil, ErrSceneNotDefined
	case camera == nil:
		return nil, ErrCameraNotDefined
	case opts.FrameW == 0 || opts.FrameH == 0:
		return nil, ErrInvalidFrameDims
	}

	numTracers := opts.NumTracers
	if numTracers < 1 {
		numTracers = runtime.NumCPU()
	}
	if numTracers > int(opts.FrameH) {
		numTracers = int(opts.FrameH)
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		frame:     image.NewNRGBA(image.Rect(0, 0, int(opts.FrameW), int(opts.FrameH))),
		scheduler: scheduler,
		options:   opts,
		doneChan:  make(chan uint32, numTracers),
		errChan:   make(chan error, numTracers),
	}

	for idx := 0; idx < numTracers; idx++ {
		tr := tracer.NewCpuTracer(fmt.Sprintf("cpu-%d", idx))
		r.tracers = append(r.tracers, tr)

		err := tr.Setup(opts.FrameW, opts.FrameH, r.frame.Pix)
		if err != nil {
			r.Close()
			return nil, err
		}

		tr.AppendChange(tracer.SetScene, sc)
		tr.AppendChange(tracer.UpdateCamera, camera)
		err = tr.ApplyPendingChanges()
		if err != nil {
			r.Close()
			return nil, err
		}
	}

	r.logger.Infof("attached %d cpu tracers", len(r.tracers))
	return r, nil
}

// Render frame.
func (r *defaultRenderer) Render() error {
	if len(r.tracers) == 0 {
		return ErrNoTracers
	}

	start := time.Now()
	blockAssignment := r.scheduler.Schedule(r.tracers, r.options.FrameH)

	var blockY uint32 = 0
	pending := 0
	for idx, tr := range r.tracers {
		if blockAssignment[idx] == 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			BlockY:    blockY,
			BlockH:    blockAssignment[idx],
			NodeScale: r.options.NodeScale,
			DoneChan:  r.doneChan,
			ErrChan:   r.errChan,
		})
		blockY += blockAssignment[idx]
		pending++
	}

	// Wait for all tracers to finish
	var err error
	for ; pending > 0; pending-- {
		select {
		case <-r.doneChan:
		case blockErr := <-r.errChan:
			if err == nil {
				err = blockErr
			}
		}
	}
	if err != nil {
		return err
	}

	r.updateStats(blockAssignment, time.Since(start))
	return nil
}

// Get the last rendered frame.
func (r *defaultRenderer) Frame() *image.NRGBA {
	return r.frame
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

func (r *defaultRenderer) updateStats(blockAssignment []uint32, renderTime time.Duration) {
	r.stats.RenderTime = renderTime
	r.stats.Tracers = make([]TracerStat, len(r.tracers))
	for idx, tr := range r.tracers {
		stats := tr.Stats()
		r.stats.Tracers[idx] = TracerStat{
			Id:           tr.Id(),
			BlockH:       blockAssignment[idx],
			FramePercent: 100.0 * float32(blockAssignment[idx]) / float32(r.options.FrameH),
		}
		if blockAssignment[idx] != 0 {
			r.stats.Tracers[idx].NodesVisited = stats.NodesVisited
			r.stats.Tracers[idx].RenderTime = time.Duration(stats.BlockTime)
		}
	}
}
