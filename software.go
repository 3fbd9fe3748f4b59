package rendergraph

import (
	"errors"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
)

// ErrInvalidDimensions is returned when obtaining a buffer with
// non-positive width or height.
var ErrInvalidDimensions = errors.New("rendergraph: invalid buffer dimensions")

// PixmapBuffer is a CPU-resident Buffer over an RGBA pixmap. It implements
// Buffer and Recyclable; buffers obtained from a PixmapPool return to the
// pool's free list when their reference count reaches zero.
type PixmapBuffer struct {
	img  *image.RGBA
	refs atomic.Int32
	pool *PixmapPool // nil for standalone buffers
}

// NewPixmapBuffer creates a standalone buffer not owned by any pool.
// Standalone buffers never recycle; their reference count is tracked but
// reaching zero has no effect. Returns nil for non-positive dimensions.
func NewPixmapBuffer(width, height int) *PixmapBuffer {
	if width <= 0 || height <= 0 {
		return nil
	}
	b := &PixmapBuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	b.refs.Store(1)
	return b
}

// FromImage creates a standalone buffer holding a copy of img.
func FromImage(img image.Image) *PixmapBuffer {
	bounds := img.Bounds()
	b := NewPixmapBuffer(bounds.Dx(), bounds.Dy())
	if b == nil {
		return nil
	}
	draw.Draw(b.img, b.img.Bounds(), img, bounds.Min, draw.Src)
	return b
}

// Width returns the buffer width in pixels.
func (b *PixmapBuffer) Width() int { return b.img.Bounds().Dx() }

// Height returns the buffer height in pixels.
func (b *PixmapBuffer) Height() int { return b.img.Bounds().Dy() }

// Image returns the underlying pixmap. Stages read and write it directly;
// the returned image is only valid until the buffer recycles.
func (b *PixmapBuffer) Image() *image.RGBA { return b.img }

// Refs returns the current reference count.
func (b *PixmapBuffer) Refs() int { return int(b.refs.Load()) }

// IncreaseRef adds n to the buffer's outstanding-consumer count.
func (b *PixmapBuffer) IncreaseRef(n int) {
	b.refs.Add(int32(n))
}

// DecreaseRef removes n from the outstanding-consumer count. A pooled
// buffer whose count reaches zero returns to its pool's free list and must
// not be used afterwards.
func (b *PixmapBuffer) DecreaseRef(n int) {
	if b.refs.Add(-int32(n)) <= 0 && b.pool != nil {
		b.pool.recycle(b)
	}
}

// PixmapPool allocates and recycles PixmapBuffers keyed by dimension.
// After warmup a steady pipeline renders frames without pixmap allocations.
//
// PixmapPool is safe for concurrent use, though a Graph drives it from a
// single thread.
type PixmapPool struct {
	mu   sync.Mutex
	free map[[2]int][]*PixmapBuffer

	// maxPerSize bounds each free list; surplus recycled buffers are
	// dropped for the garbage collector. Zero means DefaultMaxPerSize.
	maxPerSize int

	allocs int
	reuses int
}

// DefaultMaxPerSize is the default cap on free buffers retained per
// dimension key.
const DefaultMaxPerSize = 8

// NewPixmapPool creates a pool retaining at most maxPerSize free buffers
// per dimension key. Pass 0 for DefaultMaxPerSize.
func NewPixmapPool(maxPerSize int) *PixmapPool {
	if maxPerSize <= 0 {
		maxPerSize = DefaultMaxPerSize
	}
	return &PixmapPool{
		free:       make(map[[2]int][]*PixmapBuffer),
		maxPerSize: maxPerSize,
	}
}

// Obtain returns a buffer with exactly the given dimensions, reusing a
// recycled one when available. The buffer starts with a reference count of
// one (the implicit owner reference).
func (p *PixmapPool) Obtain(width, height int) (Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	key := [2]int{width, height}

	p.mu.Lock()
	list := p.free[key]
	if n := len(list); n > 0 {
		b := list[n-1]
		p.free[key] = list[:n-1]
		p.reuses++
		p.mu.Unlock()
		b.refs.Store(1)
		return b, nil
	}
	p.allocs++
	p.mu.Unlock()

	b := NewPixmapBuffer(width, height)
	b.pool = p
	b.refs.Store(1)
	return b, nil
}

// recycle returns a zero-ref buffer to the free list. Pixel contents are
// not cleared; the next Obtain hands them out as-is.
func (p *PixmapPool) recycle(b *PixmapBuffer) {
	key := [2]int{b.Width(), b.Height()}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[key]) >= p.maxPerSize {
		return
	}
	p.free[key] = append(p.free[key], b)
}

// PoolStats reports pool activity counters.
type PoolStats struct {
	// Allocs is the number of buffers created.
	Allocs int

	// Reuses is the number of Obtain calls served from the free list.
	Reuses int

	// Free is the total number of buffers currently on free lists.
	Free int
}

// Stats returns a snapshot of pool activity.
func (p *PixmapPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := 0
	for _, list := range p.free {
		free += len(list)
	}
	return PoolStats{Allocs: p.allocs, Reuses: p.reuses, Free: free}
}
