package renderer

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Pixel intensity contributed by each visited BVH node.
	NodeScale float32

	// Number of cpu tracers. Values < 1 select one tracer per CPU.
	NumTracers int
}
