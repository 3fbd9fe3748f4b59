package rendergraph

import "fmt"

// nodeState tracks where a node is in the current frame.
type nodeState uint8

const (
	// stateIdle means the node has received no inputs this frame.
	stateIdle nodeState = iota

	// stateArmed means the node has at least one pending input but has not
	// yet reached its layer's turn.
	stateArmed

	// stateExecuting means the node's stage is currently rendering.
	stateExecuting

	// stateDone means the node has produced its output, cleared its inputs,
	// and notified its successors. Reset to stateIdle at the next frame.
	stateDone
)

// String returns the state name.
func (s nodeState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateArmed:
		return "Armed"
	case stateExecuting:
		return "Executing"
	case stateDone:
		return "Done"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// node is a graph vertex wrapping one Stage plus scheduling metadata.
// Nodes are created by SetRoot and Connect and live as long as the Graph;
// only the per-frame fields below the divider mutate after construction.
type node struct {
	stage Stage

	// layer is the topological depth: the root is 0 and every edge
	// parent->child satisfies child.layer >= parent.layer+1. Layers only
	// ever increase as edges are added.
	layer int

	// downstream holds outgoing edges in insertion order, deduplicated so a
	// repeated Connect cannot double-deliver buffers.
	downstream []*node

	// expected is the in-degree: how many predecessors deliver a buffer to
	// this node each frame.
	expected int

	// Per-frame state.
	pendingInputs []Buffer
	received      int
	needsRender   bool
	state         nodeState
}

func newNode(stage Stage, layer int) *node {
	return &node{stage: stage, layer: layer}
}

// hasEdge reports whether dst is already a direct successor.
func (n *node) hasEdge(dst *node) bool {
	for _, d := range n.downstream {
		if d == dst {
			return true
		}
	}
	return false
}

// reaches reports whether dst is reachable from n via downstream edges.
func (n *node) reaches(dst *node) bool {
	if n == dst {
		return true
	}
	for _, d := range n.downstream {
		if d.reaches(dst) {
			return true
		}
	}
	return false
}

// raiseLayer lifts the node to at least the given layer and cascades the
// raise through its successors so the layering invariant keeps holding.
// Called only on acyclic graphs, so it terminates.
func (n *node) raiseLayer(layer int) {
	if n.layer >= layer {
		return
	}
	n.layer = layer
	for _, d := range n.downstream {
		d.raiseLayer(layer + 1)
	}
}

// resetFrame clears the per-frame state ahead of a render pass.
func (n *node) resetFrame() {
	n.pendingInputs = n.pendingInputs[:0]
	n.received = 0
	n.state = stateIdle
}

// deliver appends a predecessor's output for the current frame.
func (n *node) deliver(buf Buffer) {
	n.pendingInputs = append(n.pendingInputs, buf)
	n.received++
	if n.state == stateIdle {
		n.state = stateArmed
	}
}
