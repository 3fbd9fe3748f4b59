package stage

import "math"

// MatrixKey is the Update data key carrying a [20]float32 matrix override.
const MatrixKey = "colorMatrix"

// ColorMatrix applies a 4x5 color transformation matrix to its input.
// The transformation is:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column provides bias/offset values. Color values are in
// [0, 255] range during transformation, then clamped back to valid range.
type ColorMatrix struct {
	base

	// Matrix is the 4x5 transformation matrix in row-major order.
	// [0-4] = row 0 (R), [5-9] = row 1 (G), [10-14] = row 2 (B), [15-19] = row 3 (A)
	Matrix [20]float32
}

// NewColorMatrix creates a color matrix stage with the given matrix.
func NewColorMatrix(matrix [20]float32) *ColorMatrix {
	return &ColorMatrix{Matrix: matrix}
}

// NewIdentity creates a color matrix stage that passes colors through unchanged.
func NewIdentity() *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			1, 0, 0, 0, 0, // R
			0, 1, 0, 0, 0, // G
			0, 0, 1, 0, 0, // B
			0, 0, 0, 1, 0, // A
		},
	}
}

// NewBrightness creates a stage that adjusts brightness.
// factor: 0.0 = black, 1.0 = unchanged, 2.0 = twice as bright
func NewBrightness(factor float32) *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			factor, 0, 0, 0, 0,
			0, factor, 0, 0, 0,
			0, 0, factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewContrast creates a stage that adjusts contrast.
// factor: 0.0 = gray, 1.0 = unchanged, 2.0 = high contrast
func NewContrast(factor float32) *ColorMatrix {
	// Contrast adjustment: (color - 128) * factor + 128 in 0-255 range.
	offset := 128 * (1 - factor)
	return &ColorMatrix{
		Matrix: [20]float32{
			factor, 0, 0, 0, offset,
			0, factor, 0, 0, offset,
			0, 0, factor, 0, offset,
			0, 0, 0, 1, 0,
		},
	}
}

// NewSaturation creates a stage that adjusts color saturation.
// factor: 0.0 = grayscale, 1.0 = unchanged, 2.0 = oversaturated
func NewSaturation(factor float32) *ColorMatrix {
	// Luminance weights (Rec. 709)
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)

	// Saturation matrix blends between luminance (0) and identity (1)
	invFactor := 1 - factor

	return &ColorMatrix{
		Matrix: [20]float32{
			lumR*invFactor + factor, lumG * invFactor, lumB * invFactor, 0, 0,
			lumR * invFactor, lumG*invFactor + factor, lumB * invFactor, 0, 0,
			lumR * invFactor, lumG * invFactor, lumB*invFactor + factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewGrayscale creates a stage that converts to grayscale.
// Uses Rec. 709 luminance weights.
func NewGrayscale() *ColorMatrix {
	return NewSaturation(0)
}

// NewSepia creates a stage that applies a sepia tone effect.
func NewSepia() *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			0.393, 0.769, 0.189, 0, 0,
			0.349, 0.686, 0.168, 0, 0,
			0.272, 0.534, 0.131, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewInvert creates a stage that inverts colors.
func NewInvert() *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			-1, 0, 0, 0, 255,
			0, -1, 0, 0, 255,
			0, 0, -1, 0, 255,
			0, 0, 0, 1, 0,
		},
	}
}

// NewHueRotate creates a stage that rotates hue by the given angle (in degrees).
func NewHueRotate(degrees float32) *ColorMatrix {
	rad := float64(degrees) * math.Pi / 180

	cos := float32(math.Cos(rad))
	sin := float32(math.Sin(rad))

	// Hue rotation matrix (approximation), rotating in YIQ color space.
	const (
		lumR = 0.213
		lumG = 0.715
		lumB = 0.072
	)

	return &ColorMatrix{
		Matrix: [20]float32{
			lumR + cos*(1-lumR) + sin*(-lumR), lumG + cos*(-lumG) + sin*(-lumG), lumB + cos*(-lumB) + sin*(1-lumB), 0, 0,
			lumR + cos*(-lumR) + sin*(0.143), lumG + cos*(1-lumG) + sin*(0.140), lumB + cos*(-lumB) + sin*(-0.283), 0, 0,
			lumR + cos*(-lumR) + sin*(-(1 - lumR)), lumG + cos*(-lumG) + sin*(lumG), lumB + cos*(1-lumB) + sin*(lumB), 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// Update accepts a matrix override under MatrixKey and reports whether the
// stage needs to re-render with new parameters.
func (s *ColorMatrix) Update(data map[string]any) bool {
	m, ok := data[MatrixKey].([20]float32)
	if !ok || m == s.Matrix {
		return false
	}
	s.Matrix = m
	return true
}

// Render applies the matrix to the first input over the region both the
// input and the output cover.
func (s *ColorMatrix) Render() error {
	src, err := s.srcImage(0)
	if err != nil {
		return err
	}
	dst, err := s.dstImage()
	if err != nil {
		return err
	}

	w, h := overlap(src, dst)
	m := &s.Matrix

	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride:]
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4

			// Read premultiplied RGBA bytes.
			pr := float32(srcRow[i+0])
			pg := float32(srcRow[i+1])
			pb := float32(srcRow[i+2])
			a := float32(srcRow[i+3])

			// Un-premultiply to straight-alpha [0-255] for the transform.
			// The matrix coefficients assume straight-alpha color values.
			var r, g, b float32
			if a > 0 {
				r = pr * 255 / a
				g = pg * 255 / a
				b = pb * 255 / a
			}

			newR := m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]
			newG := m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]
			newB := m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]
			newA := m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]

			// Re-premultiply for storage.
			if newA > 0 {
				factor := newA / 255
				newR *= factor
				newG *= factor
				newB *= factor
			} else {
				newR, newG, newB = 0, 0, 0
			}

			dstRow[i+0] = clampUint8(newR)
			dstRow[i+1] = clampUint8(newG)
			dstRow[i+2] = clampUint8(newB)
			dstRow[i+3] = clampUint8(newA)
		}
	}
	return nil
}
