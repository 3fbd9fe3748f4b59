package gpu

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendergraph"
	"github.com/gogpu/wgpu/hal"
)

// Pool errors.
var (
	// ErrBudgetExceeded is returned when an allocation cannot be satisfied
	// even after evicting every idle texture.
	ErrBudgetExceeded = errors.New("gpu: texture memory budget exceeded")

	// ErrPoolClosed is returned when obtaining from a closed pool.
	ErrPoolClosed = errors.New("gpu: texture pool closed")
)

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default texture memory budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the minimum allowed memory budget (16 MB).
	MinMemoryMB = 16
)

// DefaultUsage is the usage for pooled textures created without specific
// flags: sampled by downstream stages and rendered to by their producer.
const DefaultUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageCopySrc

// PoolConfig holds configuration for creating a TexturePool.
type PoolConfig struct {
	// Device is the hal device textures are created on. A nil device puts
	// the pool in stub mode: logical textures without GPU resources.
	Device hal.Device

	// Format is the pixel format for all pooled textures.
	// Defaults to FormatRGBA8.
	Format Format

	// Usage flags for created textures. Defaults to DefaultUsage.
	Usage gputypes.TextureUsage

	// MaxMemoryMB is the texture memory budget in megabytes.
	// Defaults to DefaultMaxMemoryMB if below MinMemoryMB.
	MaxMemoryMB int
}

// TexturePool allocates and recycles Textures keyed by dimension, enforcing
// a byte budget with eviction of idle textures. It implements
// rendergraph.BufferPool.
//
// TexturePool is safe for concurrent use, though a Graph drives it from the
// single thread owning the GPU context.
type TexturePool struct {
	mu sync.Mutex

	device hal.Device
	format Format
	usage  gputypes.TextureUsage

	budgetBytes uint64
	usedBytes   uint64

	// free holds idle textures by dimension; idle holds the same textures
	// in recycle order (front = longest idle) for eviction.
	free map[[2]int][]*Texture
	idle *list.List

	evictions uint64
	allocs    uint64
	reuses    uint64
	nextID    uint64

	closed bool
}

// NewTexturePool creates a texture pool with the given configuration.
func NewTexturePool(config PoolConfig) *TexturePool {
	maxMB := config.MaxMemoryMB
	if maxMB < MinMemoryMB {
		maxMB = DefaultMaxMemoryMB
	}
	usage := config.Usage
	if usage == 0 {
		usage = DefaultUsage
	}
	return &TexturePool{
		device:      config.Device,
		format:      config.Format,
		usage:       usage,
		budgetBytes: uint64(maxMB) * 1024 * 1024,
		free:        make(map[[2]int][]*Texture),
		idle:        list.New(),
	}
}

// NewTexturePoolFromProvider creates a texture pool on the device exposed by
// the host's DeviceHandle, overriding config.Device. Providers with direct
// HAL access (HalDevice() any returning a hal.Device) give GPU-backed
// textures; any other provider, NullDeviceHandle included, puts the pool in
// stub mode.
func NewTexturePoolFromProvider(handle DeviceHandle, config PoolConfig) *TexturePool {
	config.Device = halDeviceOf(handle)
	return NewTexturePool(config)
}

// Obtain returns a texture with exactly the given dimensions, reusing an
// idle texture when one matches. The texture starts with a reference count
// of one (the implicit owner reference).
//
// When the budget would be exceeded, idle textures are evicted longest-idle
// first; if that is not enough the call fails with ErrBudgetExceeded.
func (p *TexturePool) Obtain(width, height int) (rendergraph.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	key := [2]int{width, height}
	if listForKey := p.free[key]; len(listForKey) > 0 {
		t := listForKey[len(listForKey)-1]
		p.free[key] = listForKey[:len(listForKey)-1]
		p.removeIdleLocked(t)
		p.reuses++
		t.refs.Store(1)
		return t, nil
	}

	requiredBytes := uint64(width) * uint64(height) * uint64(p.format.BytesPerPixel())
	if requiredBytes > p.budgetBytes {
		return nil, fmt.Errorf("%w: texture %dx%d needs %d bytes, budget is %d",
			ErrBudgetExceeded, width, height, requiredBytes, p.budgetBytes)
	}
	if err := p.evictLocked(requiredBytes); err != nil {
		return nil, err
	}

	t, err := p.createLocked(width, height, requiredBytes)
	if err != nil {
		return nil, err
	}
	p.usedBytes += requiredBytes
	p.allocs++
	return t, nil
}

// createLocked allocates a texture, creating hal resources when a device is
// present.
func (p *TexturePool) createLocked(width, height int, sizeBytes uint64) (*Texture, error) {
	p.nextID++
	t := &Texture{
		width:     width,
		height:    height,
		format:    p.format,
		sizeBytes: sizeBytes,
		label:     fmt.Sprintf("rendergraph_pooled_%d", p.nextID),
		pool:      p,
	}
	t.refs.Store(1)

	if p.device == nil {
		return t, nil
	}

	tex, err := p.device.CreateTexture(textureDescriptor(t.label, width, height, p.format, p.usage))
	if err != nil {
		return nil, fmt.Errorf("create pooled texture: %w", err)
	}
	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: t.label + "_view",
	})
	if err != nil {
		p.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create pooled texture view: %w", err)
	}
	t.tex = tex
	t.view = view
	return t, nil
}

// evictLocked destroys idle textures, longest idle first, until required
// bytes fit in the budget.
func (p *TexturePool) evictLocked(requiredBytes uint64) error {
	for p.usedBytes+requiredBytes > p.budgetBytes {
		front := p.idle.Front()
		if front == nil {
			return fmt.Errorf("%w: %d bytes used, %d requested, nothing idle to evict",
				ErrBudgetExceeded, p.usedBytes, requiredBytes)
		}
		t := front.Value.(*Texture)
		p.idle.Remove(front)
		p.removeFreeLocked(t)
		if t.destroy(p.device) {
			p.usedBytes -= t.sizeBytes
		}
		p.evictions++
	}
	return nil
}

// recycle returns a zero-ref texture to the free list.
func (p *TexturePool) recycle(t *Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || t.IsReleased() {
		if t.destroy(p.device) {
			p.usedBytes -= t.sizeBytes
		}
		return
	}
	key := [2]int{t.width, t.height}
	p.free[key] = append(p.free[key], t)
	p.idle.PushBack(t)
}

// removeIdleLocked drops t from the idle eviction list.
func (p *TexturePool) removeIdleLocked(t *Texture) {
	for e := p.idle.Front(); e != nil; e = e.Next() {
		if e.Value.(*Texture) == t {
			p.idle.Remove(e)
			return
		}
	}
}

// removeFreeLocked drops t from its dimension free list.
func (p *TexturePool) removeFreeLocked(t *Texture) {
	key := [2]int{t.width, t.height}
	listForKey := p.free[key]
	for i, cand := range listForKey {
		if cand == t {
			p.free[key] = append(listForKey[:i], listForKey[i+1:]...)
			return
		}
	}
}

// Close destroys all idle textures and marks the pool closed. Textures
// still held by stages are destroyed as they are recycled.
func (p *TexturePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for e := p.idle.Front(); e != nil; e = e.Next() {
		t := e.Value.(*Texture)
		if t.destroy(p.device) {
			p.usedBytes -= t.sizeBytes
		}
	}
	p.idle.Init()
	p.free = make(map[[2]int][]*Texture)
}

// Stats contains texture pool usage statistics.
type Stats struct {
	// BudgetBytes is the total memory budget in bytes.
	BudgetBytes uint64

	// UsedBytes is the memory held by live textures (busy and idle).
	UsedBytes uint64

	// IdleCount is the number of textures currently on free lists.
	IdleCount int

	// Allocs is the number of textures created.
	Allocs uint64

	// Reuses is the number of Obtain calls served from the free list.
	Reuses uint64

	// Evictions is the number of idle textures destroyed for budget.
	Evictions uint64
}

// String returns a human-readable summary of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("TexturePool[%d/%d MB used, %d idle, %d allocs, %d reuses, %d evictions]",
		s.UsedBytes/(1024*1024), s.BudgetBytes/(1024*1024),
		s.IdleCount, s.Allocs, s.Reuses, s.Evictions)
}

// Stats returns a snapshot of pool usage.
func (p *TexturePool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		BudgetBytes: p.budgetBytes,
		UsedBytes:   p.usedBytes,
		IdleCount:   p.idle.Len(),
		Allocs:      p.allocs,
		Reuses:      p.reuses,
		Evictions:   p.evictions,
	}
}
