package tracer

import "errors"

type ChangeType uint8

const (
	SetScene ChangeType = iota
	UpdateCamera
)

var (
	ErrSceneNotDefined  = errors.New("tracer: no scene defined")
	ErrCameraNotDefined = errors.New("tracer: no camera defined")
	ErrNotSetup         = errors.New("tracer: frame buffer not set up")
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// Pixel intensity contributed by each visited BVH node. The traced
	// pixel value is min(NodeScale * nodesVisited, 1).
	NodeScale float32

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The traced block height
	BlockH uint32

	// The time for tracing this block (in nanoseconds)
	BlockTime int64

	// Total number of BVH nodes visited while tracing the block.
	NodesVisited uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline (single core) implementation.
	SpeedEstimate() float32

	// Setup the tracer. The frame buffer stores 4 bytes (RGBA) per pixel.
	Setup(frameW, frameH uint32, frameBuffer []uint8) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Append a change to the tracer's update buffer.
	AppendChange(ChangeType, interface{})

	// Apply all pending changes from the update buffer.
	ApplyPendingChanges() error

	// Retrieve last frame statistics.
	Stats() *Stats
}
