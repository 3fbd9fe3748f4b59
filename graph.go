package rendergraph

import (
	"errors"
	"fmt"
	"log/slog"
)

// Graph owns a DAG of stages and executes them in dependency order on each
// frame. Build the graph once with SetRoot and Connect, broadcast Init, then
// drive frames with SetInput, Update, Render, and Output. Release tears the
// stages down.
//
// Topology is frozen by the first Render: builder calls and frame execution
// must not interleave. All methods must be invoked from the single thread
// that owns the GPU execution context (see package documentation).
type Graph struct {
	pool   BufferPool
	logger *slog.Logger // nil means the package logger

	root *node
	// nodes maps Stage identity to its node. Identity keyed: two
	// structurally identical stages are distinct nodes.
	nodes map[Stage]*node
	// order records node creation order for deterministic traversal.
	order []*node

	inputs []Buffer
	output Buffer
}

// New creates an empty Graph that draws intermediate buffers from pool.
// The pool may be nil for graphs with no interior stages (a single sink
// renders straight into the frame output); Render fails with ErrNilPool
// the first time an interior stage actually needs one.
func New(pool BufferPool, opts ...Option) *Graph {
	var o graphOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph{
		pool:   pool,
		logger: o.logger,
		nodes:  make(map[Stage]*node),
	}
}

// log returns the graph's logger, falling back to the package logger.
func (g *Graph) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return Logger()
}

// SetRoot registers stage as the graph's root at layer 0. It must be called
// exactly once, before any Connect call.
func (g *Graph) SetRoot(stage Stage) error {
	if stage == nil {
		return ErrNilStage
	}
	if g.root != nil {
		return ErrRootAlreadySet
	}
	n := newNode(stage, 0)
	g.root = n
	g.register(stage, n)
	return nil
}

// Connect adds the edge pre -> next. The source must already be part of the
// graph (as root or as an earlier destination); the destination's node is
// created at pre.layer+1 or, if it exists, raised to at least that layer.
// Connecting the same pair twice is a no-op. Edges that would close a cycle
// are rejected with ErrCycleDetected.
func (g *Graph) Connect(pre, next Stage) error {
	if g.root == nil {
		return ErrMissingRoot
	}
	if pre == nil || next == nil {
		return ErrNilStage
	}
	src, ok := g.nodes[pre]
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnconnectedSource, pre)
	}

	dst, ok := g.nodes[next]
	if !ok {
		dst = newNode(next, src.layer+1)
		g.register(next, dst)
	} else {
		if dst.reaches(src) {
			return fmt.Errorf("%w: %T -> %T", ErrCycleDetected, pre, next)
		}
		// Layers never decrease; a new parent can only push the
		// destination (and its subtree) deeper.
		dst.raiseLayer(src.layer + 1)
	}

	if src.hasEdge(dst) {
		return nil
	}
	src.downstream = append(src.downstream, dst)
	dst.expected++

	g.log().Debug("edge added",
		"from", fmt.Sprintf("%T", pre), "to", fmt.Sprintf("%T", next),
		"layer", dst.layer)
	return nil
}

// register records a new node in the identity map and traversal order.
func (g *Graph) register(stage Stage, n *node) {
	g.nodes[stage] = n
	g.order = append(g.order, n)
}

// SetInput replaces the external input buffers for the next frame. They are
// delivered to the root stage, in order, when Render runs.
func (g *Graph) SetInput(bufs ...Buffer) {
	g.inputs = append(g.inputs[:0], bufs...)
}

// SetOutput sets the buffer sink stages render into. A nil output is
// allowed; sinks then render to their own targets.
func (g *Graph) SetOutput(buf Buffer) {
	g.output = buf
}

// Output returns the buffer produced by the last Render, or nil if no frame
// has been rendered.
func (g *Graph) Output() Buffer {
	return g.output
}

// Init calls Init on every reachable stage, exactly once each, and stops at
// the first failure.
func (g *Graph) Init() error {
	if g.root == nil {
		return ErrMissingRoot
	}
	for _, n := range g.reachable() {
		if err := n.stage.Init(); err != nil {
			return fmt.Errorf("init stage %T: %w", n.stage, err)
		}
	}
	return nil
}

// Update delivers per-frame parameters to every reachable stage, exactly
// once each, and reports whether any stage needs to re-render with them.
func (g *Graph) Update(data map[string]any) (bool, error) {
	if g.root == nil {
		return false, ErrMissingRoot
	}
	needs := false
	for _, n := range g.reachable() {
		n.needsRender = n.stage.Update(data)
		needs = needs || n.needsRender
	}
	return needs, nil
}

// Release calls Release on every reachable stage, exactly once each. All
// stages are released even when some fail; the failures are joined into the
// returned error.
func (g *Graph) Release() error {
	if g.root == nil {
		return ErrMissingRoot
	}
	var errs []error
	for _, n := range g.reachable() {
		if err := n.stage.Release(); err != nil {
			g.log().Warn("stage release failed",
				"stage", fmt.Sprintf("%T", n.stage), "error", err)
			errs = append(errs, fmt.Errorf("release stage %T: %w", n.stage, err))
		}
	}
	return errors.Join(errs...)
}

// Render executes one frame: it seeds the root with the frame inputs, runs
// every reachable stage in non-decreasing layer order, routes each produced
// buffer to the stage's successors, and leaves the final output in Output.
//
// Interior stages render into pooled buffers sized from their first input
// (or from OutputSize when the stage implements OutputSizer); sink stages
// render directly into the frame output buffer; forwarding stages (see
// OutputForwarder) emit an input buffer and get no pooled target. A produced
// buffer feeding n
// successors gets IncreaseRef(n-1) before any successor runs, and each
// consumed pooled input gets DecreaseRef(1) once its consumer has rendered.
//
// A reachable stage with no pending inputs at its turn is a fatal
// ErrMissingInput. Stage render errors propagate unchanged.
func (g *Graph) Render() error {
	if g.root == nil {
		return ErrMissingRoot
	}

	reach := g.reachable()
	for _, n := range reach {
		n.resetFrame()
	}
	// The root has no predecessors; it is seeded from the frame inputs.
	g.root.pendingInputs = append(g.root.pendingInputs, g.inputs...)
	if len(g.root.pendingInputs) > 0 {
		g.root.state = stateArmed
	}

	var last Buffer
	for _, batch := range layerBatches(reach) {
		for _, n := range batch {
			out, err := g.execute(n)
			if err != nil {
				return err
			}
			if out != nil {
				last = out
			}
		}
	}
	if last != nil {
		g.output = last
	}
	return nil
}

// execute runs one stage and routes its output to the node's successors.
func (g *Graph) execute(n *node) (Buffer, error) {
	if len(n.pendingInputs) == 0 {
		return nil, fmt.Errorf("%w: %T at layer %d", ErrMissingInput, n.stage, n.layer)
	}
	if n.received < n.expected {
		// A predecessor produced no output. Proceed with what arrived;
		// sizing below only needs the first input.
		g.log().Debug("partial inputs",
			"stage", fmt.Sprintf("%T", n.stage),
			"received", n.received, "expected", n.expected)
	}
	n.state = stateExecuting

	n.stage.SetInputs(n.pendingInputs)
	target, err := g.target(n)
	if err != nil {
		return nil, err
	}
	n.stage.SetOutput(target)

	if err := n.stage.Render(); err != nil {
		return nil, err
	}
	out := n.stage.Output()

	consumed := n.pendingInputs
	n.pendingInputs = nil
	if out != nil {
		if fan := len(n.downstream); fan > 1 {
			out.IncreaseRef(fan - 1)
		}
		for _, d := range n.downstream {
			d.deliver(out)
		}
	}
	for _, in := range consumed {
		if r, ok := in.(Recyclable); ok {
			r.DecreaseRef(1)
		}
	}
	n.state = stateDone

	g.log().Debug("stage executed",
		"stage", fmt.Sprintf("%T", n.stage),
		"layer", n.layer, "fanout", len(n.downstream))
	return out, nil
}

// target picks the buffer a stage renders into: the frame output for sinks,
// a pooled buffer for interior stages. Forwarding stages emit an input
// buffer instead, so interior ones get no pooled target.
func (g *Graph) target(n *node) (Buffer, error) {
	if len(n.downstream) == 0 {
		return g.output, nil
	}
	if f, ok := n.stage.(OutputForwarder); ok && f.ForwardsOutput() {
		return nil, nil
	}
	if g.pool == nil {
		return nil, ErrNilPool
	}
	w, h := n.pendingInputs[0].Width(), n.pendingInputs[0].Height()
	if sizer, ok := n.stage.(OutputSizer); ok {
		w, h = sizer.OutputSize(w, h)
	}
	buf, err := g.pool.Obtain(w, h)
	if err != nil {
		return nil, fmt.Errorf("obtain %dx%d buffer for %T: %w", w, h, n.stage, err)
	}
	return buf, nil
}

// reachable returns the nodes reachable from the root, in creation order.
// Every node created by SetRoot/Connect is reachable by construction, but
// the walk guards against future detached nodes all the same.
func (g *Graph) reachable() []*node {
	seen := make(map[*node]bool, len(g.order))
	seen[g.root] = true
	queue := []*node{g.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range n.downstream {
			if !seen[d] {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}
	out := make([]*node, 0, len(seen))
	for _, n := range g.order {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// layerBatches groups nodes by layer, ascending. Within a layer, nodes keep
// their creation order, so execution order is deterministic.
func layerBatches(nodes []*node) [][]*node {
	max := 0
	for _, n := range nodes {
		if n.layer > max {
			max = n.layer
		}
	}
	batches := make([][]*node, max+1)
	for _, n := range nodes {
		batches[n.layer] = append(batches[n.layer], n)
	}
	return batches
}
