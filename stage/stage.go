package stage

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/rendergraph"
)

// Stage errors.
var (
	// ErrUnsupportedBuffer is returned when a stage receives a Buffer that
	// is not a rendergraph.PixmapBuffer.
	ErrUnsupportedBuffer = errors.New("stage: buffer is not a PixmapBuffer")

	// ErrNilOutput is returned when a stage is rendered without an output
	// buffer. Stages in this package always render into their target.
	ErrNilOutput = errors.New("stage: output buffer is nil")

	// ErrMissingInput is returned when a stage is rendered with fewer
	// inputs than it consumes.
	ErrMissingInput = errors.New("stage: missing input buffer")
)

// base carries the input/output plumbing shared by every stage in this
// package. Stages embed it and implement Update and Render.
type base struct {
	inputs []rendergraph.Buffer
	output rendergraph.Buffer
}

// Init is a no-op; stages with setup work override it.
func (b *base) Init() error { return nil }

// SetInputs stores the frame's input buffers.
func (b *base) SetInputs(bufs []rendergraph.Buffer) { b.inputs = bufs }

// SetOutput stores the frame's output target.
func (b *base) SetOutput(buf rendergraph.Buffer) { b.output = buf }

// Output returns the buffer the stage last rendered into.
func (b *base) Output() rendergraph.Buffer { return b.output }

// Release is a no-op; stages holding resources override it.
func (b *base) Release() error { return nil }

// srcImage returns the pixmap behind input i.
func (b *base) srcImage(i int) (*image.RGBA, error) {
	if i >= len(b.inputs) {
		return nil, fmt.Errorf("%w: input %d of %d", ErrMissingInput, i, len(b.inputs))
	}
	pb, ok := b.inputs[i].(*rendergraph.PixmapBuffer)
	if !ok {
		return nil, fmt.Errorf("%w: input %d is %T", ErrUnsupportedBuffer, i, b.inputs[i])
	}
	return pb.Image(), nil
}

// dstImage returns the pixmap behind the output buffer.
func (b *base) dstImage() (*image.RGBA, error) {
	if b.output == nil {
		return nil, ErrNilOutput
	}
	pb, ok := b.output.(*rendergraph.PixmapBuffer)
	if !ok {
		return nil, fmt.Errorf("%w: output is %T", ErrUnsupportedBuffer, b.output)
	}
	return pb.Image(), nil
}

// clampUint8 clamps a float32 to the [0, 255] byte range.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// overlap returns the pixel region covered by both images.
func overlap(a, b *image.RGBA) (w, h int) {
	w = a.Bounds().Dx()
	if bw := b.Bounds().Dx(); bw < w {
		w = bw
	}
	h = a.Bounds().Dy()
	if bh := b.Bounds().Dy(); bh < h {
		h = bh
	}
	return w, h
}

// Copy is an identity stage: it copies its first input into the output.
// Useful as a pipeline root that normalizes externally owned input into a
// pooled buffer, or as a cheap tap in front of a fan-out.
type Copy struct {
	base
}

// NewCopy creates an identity stage.
func NewCopy() *Copy { return &Copy{} }

// Update implements rendergraph.Stage. Copy has no parameters.
func (s *Copy) Update(map[string]any) bool { return false }

// Render copies the first input into the output over their common region.
func (s *Copy) Render() error {
	src, err := s.srcImage(0)
	if err != nil {
		return err
	}
	dst, err := s.dstImage()
	if err != nil {
		return err
	}
	w, h := overlap(src, dst)
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		copy(dstRow, srcRow)
	}
	return nil
}
