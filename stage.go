package rendergraph

// Stage is a pluggable unit of image processing scheduled by a Graph.
//
// A Stage receives its input buffers and output target from the Graph on
// every frame, immediately before Render is invoked. Implementations must
// not retain the input slice past the Render call: the Graph recycles
// pooled inputs once the stage has executed.
//
// Stages are driven from a single thread (see package documentation) and
// need no internal locking.
type Stage interface {
	// Init prepares the stage for rendering (shader compilation, lookup
	// tables). Called once per stage by Graph.Init before the first frame.
	Init() error

	// Update delivers per-frame parameters and reports whether the stage
	// needs to re-render with them. The data map may be nil.
	Update(data map[string]any) bool

	// SetInputs hands the stage its input buffers for the current frame,
	// in the order its predecessors produced them.
	SetInputs(bufs []Buffer)

	// SetOutput hands the stage the buffer it must render into.
	// A nil output is allowed: the stage may render to its own target.
	SetOutput(buf Buffer)

	// Render executes the stage against the current inputs and output.
	Render() error

	// Output returns the buffer produced by the last Render,
	// or nil if the stage produced nothing.
	Output() Buffer

	// Release frees resources held by the stage. Called once per stage by
	// Graph.Release; the stage must not be used afterwards.
	Release() error
}

// OutputSizer is an optional Stage interface for stages whose output
// dimensions differ from their input (resamplers, croppers). When a stage
// implements it, the Graph sizes the pooled output buffer from OutputSize
// instead of from the first input.
type OutputSizer interface {
	// OutputSize returns the output dimensions for the given input dimensions.
	OutputSize(width, height int) (int, int)
}

// OutputForwarder is an optional Stage interface for stages that emit one of
// their input buffers as their output instead of rendering into a fresh
// target. The Graph does not obtain a pooled buffer for a forwarding interior
// stage; its SetOutput receives nil. A forwarding stage must IncreaseRef(1)
// the buffer it forwards, because the Graph still releases one reference per
// consumed input after the stage has rendered.
type OutputForwarder interface {
	// ForwardsOutput reports whether the stage emits an input buffer as its
	// output for the current frame.
	ForwardsOutput() bool
}

// Buffer is an image resource routed between stages. Implementations are
// typically GPU textures or CPU pixmaps owned by a BufferPool; the Graph
// only holds transient references during a frame.
type Buffer interface {
	// Width returns the buffer width in pixels.
	Width() int

	// Height returns the buffer height in pixels.
	Height() int

	// IncreaseRef adds n to the buffer's outstanding-consumer count.
	// The Graph calls this on fan-out so the buffer is not reclaimed
	// while any downstream consumer still needs it.
	IncreaseRef(n int)
}

// Recyclable is an optional Buffer interface implemented by pooled buffers.
// The Graph calls DecreaseRef(1) on each consumed input after the consuming
// stage has rendered; a pooled buffer returns to its pool when the count
// reaches zero. Externally owned buffers simply do not implement it.
type Recyclable interface {
	// DecreaseRef removes n from the buffer's outstanding-consumer count.
	DecreaseRef(n int)
}

// BufferPool allocates and recycles Buffers by dimension. The Graph obtains
// one intermediate buffer per interior stage per frame; a pool that recycles
// (keyed by width and height) keeps steady-state frames allocation-free.
//
// Pools are consumed from the render thread only and need no locking for
// Graph use, though implementations in this module are safe for concurrent
// use anyway.
type BufferPool interface {
	// Obtain returns a buffer with exactly the given dimensions, reusing a
	// recycled buffer when one is available.
	Obtain(width, height int) (Buffer, error)
}
