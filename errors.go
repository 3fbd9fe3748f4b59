package rendergraph

import "errors"

// Graph construction and execution errors.
//
// These are structural misuse errors: the graph is a build-once, long-lived
// structure, so every one of them indicates a programming mistake in pipeline
// assembly rather than a transient condition. They are detected eagerly at
// the point of violation and never retried or recovered internally.
var (
	// ErrMissingRoot is returned by builder or execution calls made before
	// SetRoot has completed.
	ErrMissingRoot = errors.New("rendergraph: root stage not set")

	// ErrRootAlreadySet is returned when SetRoot is called more than once.
	ErrRootAlreadySet = errors.New("rendergraph: root stage already set")

	// ErrNilStage is returned when a nil Stage is passed to SetRoot or Connect.
	ErrNilStage = errors.New("rendergraph: stage is nil")

	// ErrNilPool is returned by Render when an interior stage needs a
	// pooled buffer but the graph was created without a pool.
	ErrNilPool = errors.New("rendergraph: buffer pool is nil")

	// ErrUnconnectedSource is returned by Connect when the source stage has
	// no registered node: it was never passed to SetRoot or used as a
	// Connect destination.
	ErrUnconnectedSource = errors.New("rendergraph: source stage is not connected to the graph")

	// ErrCycleDetected is returned by Connect when adding the edge would
	// make the destination reachable from itself.
	ErrCycleDetected = errors.New("rendergraph: edge would create a cycle")

	// ErrMissingInput is returned by Render when a stage comes up for
	// execution with no pending input buffers, so its output cannot be sized.
	ErrMissingInput = errors.New("rendergraph: stage has no pending inputs")
)
