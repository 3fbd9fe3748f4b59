package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture errors.
var (
	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrInvalidDimensions is returned for non-positive texture dimensions.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")
)

// Format represents the pixel format of a pooled texture.
type Format uint8

const (
	// FormatRGBA8 is the standard RGBA format with 8 bits per channel.
	FormatRGBA8 Format = iota

	// FormatBGRA8 is BGRA format, often used for surface presentation.
	FormatBGRA8

	// FormatR8 is single-channel 8-bit format, used for masks.
	FormatR8
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatR8:
		return "R8"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatR8:
		return 1
	default:
		return 4
	}
}

// ToWGPUFormat converts to the wgpu gputypes.TextureFormat.
func (f Format) ToWGPUFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatR8:
		return gputypes.TextureFormatR8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// Texture is a GPU-resident buffer routed between pipeline stages. It
// implements rendergraph.Buffer and rendergraph.Recyclable: when the
// reference count reaches zero the texture returns to its pool's free list
// rather than being destroyed.
//
// In stub mode (pool without a device) the hal handles are nil and only the
// logical texture is tracked.
type Texture struct {
	tex  hal.Texture
	view hal.TextureView

	width  int
	height int
	format Format

	sizeBytes uint64
	label     string

	refs     atomic.Int32
	released atomic.Bool

	pool *TexturePool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texture pixel format.
func (t *Texture) Format() Format { return t.format }

// SizeBytes returns the texture size in bytes.
func (t *Texture) SizeBytes() uint64 { return t.sizeBytes }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Handle returns the underlying hal texture, or nil in stub mode.
func (t *Texture) Handle() hal.Texture { return t.tex }

// View returns the texture view, or nil in stub mode.
func (t *Texture) View() hal.TextureView { return t.view }

// Refs returns the current reference count.
func (t *Texture) Refs() int { return int(t.refs.Load()) }

// IsReleased returns true if the texture's GPU resources were destroyed.
func (t *Texture) IsReleased() bool { return t.released.Load() }

// IncreaseRef adds n to the texture's outstanding-consumer count.
func (t *Texture) IncreaseRef(n int) {
	t.refs.Add(int32(n))
}

// DecreaseRef removes n from the outstanding-consumer count. At zero the
// texture returns to its pool; it must not be used afterwards.
func (t *Texture) DecreaseRef(n int) {
	if t.refs.Add(-int32(n)) <= 0 && t.pool != nil {
		t.pool.recycle(t)
	}
}

// destroy releases the hal resources and reports whether this call did the
// releasing. Safe to call in stub mode and more than once; repeat calls
// return false so byte accounting happens exactly once per texture.
func (t *Texture) destroy(device hal.Device) bool {
	if t.released.Swap(true) {
		return false
	}
	if device == nil {
		return true
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
	return true
}
