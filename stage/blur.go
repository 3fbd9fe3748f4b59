package stage

import (
	"image"
	"math"
	"sync"
)

// RadiusKey is the Update data key carrying a float64 blur radius override
// applied to both axes.
const RadiusKey = "blurRadius"

// Blur applies separable Gaussian blur to its input. The separable
// algorithm processes horizontal and vertical passes independently,
// achieving O(w*h*(rx+ry)) complexity instead of O(w*h*rx*ry).
type Blur struct {
	base

	// RadiusX is the horizontal blur radius in pixels.
	RadiusX float64

	// RadiusY is the vertical blur radius in pixels.
	RadiusY float64
}

// NewBlur creates a blur stage with equal radius in both directions.
func NewBlur(radius float64) *Blur {
	return &Blur{RadiusX: radius, RadiusY: radius}
}

// NewBlurXY creates a blur stage with different X and Y radii, for
// anisotropic (directional) blur effects.
func NewBlurXY(radiusX, radiusY float64) *Blur {
	return &Blur{RadiusX: radiusX, RadiusY: radiusY}
}

// Update accepts a radius override under RadiusKey and reports whether the
// stage needs to re-render with new parameters.
func (s *Blur) Update(data map[string]any) bool {
	r, ok := data[RadiusKey].(float64)
	if !ok || (r == s.RadiusX && r == s.RadiusY) {
		return false
	}
	s.RadiusX, s.RadiusY = r, r
	return true
}

// Render blurs the first input into the output with two 1D convolution
// passes: horizontal into a temporary float buffer, then vertical into the
// output. Edges are clamped (edge extension).
func (s *Blur) Render() error {
	src, err := s.srcImage(0)
	if err != nil {
		return err
	}
	dst, err := s.dstImage()
	if err != nil {
		return err
	}
	w, h := overlap(src, dst)
	if w == 0 || h == 0 {
		return nil
	}

	if s.RadiusX <= 0 && s.RadiusY <= 0 {
		copyRegion(src, dst, w, h)
		return nil
	}

	temp := getTempBuffer(w * h * 4)
	defer putTempBuffer(temp)

	if s.RadiusX > 0 {
		blurHorizontal(src, temp, w, h, gaussianKernel(s.RadiusX))
	} else {
		spreadToTemp(src, temp, w, h)
	}
	if s.RadiusY > 0 {
		blurVertical(temp, dst, w, h, gaussianKernel(s.RadiusY))
	} else {
		gatherFromTemp(temp, dst, w, h)
	}
	return nil
}

// gaussianKernel generates a normalized 1D Gaussian kernel with the given
// radius as sigma. Kernel size is 2*ceil(sigma*3)+1.
func gaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1.0}
	}

	sigma := radius
	halfSize := int(math.Ceil(sigma * 3))
	size := halfSize*2 + 1

	kernel := make([]float32, size)

	// G(x) = exp(-x^2/(2*sigma^2)); the constant factor drops out because
	// the kernel is normalized to sum to 1 below.
	twoSigmaSq := 2 * sigma * sigma
	sum := float64(0)

	for i := 0; i < size; i++ {
		x := float64(i - halfSize)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	if sum > 0 {
		invSum := float32(1.0 / sum)
		for i := range kernel {
			kernel[i] *= invSum
		}
	}

	return kernel
}

// blurHorizontal applies 1D horizontal convolution from src into the
// float32 temp buffer.
func blurHorizontal(src *image.RGBA, temp []float32, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < width; x++ {
			var r, g, b, a float32

			for k := 0; k < kernelSize; k++ {
				kx := x + k - halfKernel

				// Clamp to bounds (edge extension).
				if kx < 0 {
					kx = 0
				} else if kx >= width {
					kx = width - 1
				}

				i := kx * 4
				weight := kernel[k]

				r += float32(row[i+0]) * weight
				g += float32(row[i+1]) * weight
				b += float32(row[i+2]) * weight
				a += float32(row[i+3]) * weight
			}

			ti := (y*width + x) * 4
			temp[ti+0] = r
			temp[ti+1] = g
			temp[ti+2] = b
			temp[ti+3] = a
		}
	}
}

// blurVertical applies 1D vertical convolution from the temp buffer into dst.
func blurVertical(temp []float32, dst *image.RGBA, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < width; x++ {
			var r, g, b, a float32

			for k := 0; k < kernelSize; k++ {
				ky := y + k - halfKernel

				if ky < 0 {
					ky = 0
				} else if ky >= height {
					ky = height - 1
				}

				ti := (ky*width + x) * 4
				weight := kernel[k]

				r += temp[ti+0] * weight
				g += temp[ti+1] * weight
				b += temp[ti+2] * weight
				a += temp[ti+3] * weight
			}

			i := x * 4
			dstRow[i+0] = clampUint8(r)
			dstRow[i+1] = clampUint8(g)
			dstRow[i+2] = clampUint8(b)
			dstRow[i+3] = clampUint8(a)
		}
	}
}

// spreadToTemp copies src bytes into the float temp buffer unchanged.
func spreadToTemp(src *image.RGBA, temp []float32, width, height int) {
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < width*4; x++ {
			temp[y*width*4+x] = float32(row[x])
		}
	}
}

// gatherFromTemp copies the float temp buffer back into dst bytes.
func gatherFromTemp(temp []float32, dst *image.RGBA, width, height int) {
	for y := 0; y < height; y++ {
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < width*4; x++ {
			dstRow[x] = clampUint8(temp[y*width*4+x])
		}
	}
}

// copyRegion copies the common region of src into dst unmodified.
func copyRegion(src, dst *image.RGBA, width, height int) {
	for y := 0; y < height; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+width*4],
			src.Pix[y*src.Stride:y*src.Stride+width*4])
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

// tempPool recycles the intermediate float buffers used between blur passes.
var tempPool = sync.Pool{
	New: func() any { return &floatBuffer{} },
}

// getTempBuffer retrieves a temporary buffer with at least size elements.
// The contents are undefined; both passes fully overwrite their region.
func getTempBuffer(size int) []float32 {
	wrapper := tempPool.Get().(*floatBuffer)
	if len(wrapper.data) < size {
		wrapper.data = make([]float32, size)
	}
	return wrapper.data[:size]
}

// putTempBuffer returns a buffer for reuse by a later blur pass.
func putTempBuffer(buf []float32) {
	tempPool.Put(&floatBuffer{data: buf})
}
