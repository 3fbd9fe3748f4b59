// Package rendergraph schedules a pipeline of image-processing stages
// connected into a directed acyclic graph and executes them in dependency
// order on each frame.
//
// # Overview
//
// rendergraph is a small frame scheduler for the GoGPU ecosystem. Stages
// (filters, blends, resamplers) are wired into a DAG once; every frame the
// graph routes buffers between stages, executing each stage after all of
// its predecessors. Intermediate buffers come from an injected pool and are
// reference counted so fan-out edges never see a reclaimed buffer.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/rendergraph"
//	    "github.com/gogpu/rendergraph/stage"
//	)
//
//	pool := rendergraph.NewPixmapPool(0)
//	g := rendergraph.New(pool)
//
//	bright := stage.NewBrightness(1.2)
//	blur := stage.NewBlur(4)
//
//	g.SetRoot(bright)
//	g.Connect(bright, blur)
//	g.Init()
//
//	// Per frame:
//	g.SetInput(in)
//	g.SetOutput(out)
//	g.Update(nil)
//	g.Render()
//	result := g.Output()
//
// # Architecture
//
// The library is organized into:
//   - Root package: Graph, Stage/Buffer/BufferPool contracts, CPU pixmap pool
//   - stage: concrete CPU stages (color matrix, blur, resize, blend)
//   - gpu: texture-backed buffers and a budgeted texture pool over gogpu/wgpu
//
// # Concurrency
//
// Graph construction, lifecycle broadcasts, and Render are single-threaded
// and synchronous: the whole API must be driven from the thread that owns
// the GPU context. No two frames may be in flight against the same Graph.
package rendergraph

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
