package stage

import "fmt"

// OpacityKey is the Update data key carrying a float64 opacity override for
// the overlay input of a Blend stage.
const OpacityKey = "blendOpacity"

// BlendMode selects how a Blend stage composites its overlay input onto its
// base input. All modes work with premultiplied alpha values in 0-255.
type BlendMode uint8

const (
	// BlendSourceOver composites the overlay over the base: S + D*(1-Sa).
	BlendSourceOver BlendMode = iota

	// BlendPlus adds the two inputs, clamped to 255: S + D.
	BlendPlus

	// BlendModulate multiplies the two inputs: S*D/255.
	BlendModulate
)

// String returns the blend mode name.
func (m BlendMode) String() string {
	switch m {
	case BlendSourceOver:
		return "SourceOver"
	case BlendPlus:
		return "Plus"
	case BlendModulate:
		return "Modulate"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// Blend composites its second input (the overlay) onto its first input (the
// base) into the output. It is the canonical two-predecessor stage: wire two
// upstream stages into it with Connect and it receives both outputs, in
// connection order, each frame.
type Blend struct {
	base

	// Mode selects the compositing operator.
	Mode BlendMode

	// Opacity scales the overlay's contribution, 0.0 to 1.0.
	Opacity float64
}

// NewBlend creates a source-over blend stage at full opacity.
func NewBlend() *Blend {
	return &Blend{Mode: BlendSourceOver, Opacity: 1.0}
}

// NewBlendMode creates a blend stage with the given mode and opacity.
func NewBlendMode(mode BlendMode, opacity float64) *Blend {
	return &Blend{Mode: mode, Opacity: clampF(opacity, 0, 1)}
}

// Update accepts an opacity override under OpacityKey and reports whether
// the stage needs to re-render with new parameters.
func (s *Blend) Update(data map[string]any) bool {
	o, ok := data[OpacityKey].(float64)
	if !ok {
		return false
	}
	o = clampF(o, 0, 1)
	if o == s.Opacity {
		return false
	}
	s.Opacity = o
	return true
}

// Render composites input 1 onto input 0 over the region all three images
// cover. With a single input the stage degrades to a copy of the base.
func (s *Blend) Render() error {
	dstBase, err := s.srcImage(0)
	if err != nil {
		return err
	}
	out, err := s.dstImage()
	if err != nil {
		return err
	}

	w, h := overlap(dstBase, out)

	if len(s.inputs) < 2 {
		copyRegion(dstBase, out, w, h)
		return nil
	}
	overlayImg, err := s.srcImage(1)
	if err != nil {
		return err
	}
	if ow := overlayImg.Bounds().Dx(); ow < w {
		w = ow
	}
	if oh := overlayImg.Bounds().Dy(); oh < h {
		h = oh
	}

	// Opacity scales the premultiplied overlay uniformly.
	op := uint32(s.Opacity * 255)

	for y := 0; y < h; y++ {
		baseRow := dstBase.Pix[y*dstBase.Stride:]
		overRow := overlayImg.Pix[y*overlayImg.Stride:]
		outRow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4

			sr := mulDiv255(overRow[i+0], byte(op))
			sg := mulDiv255(overRow[i+1], byte(op))
			sb := mulDiv255(overRow[i+2], byte(op))
			sa := mulDiv255(overRow[i+3], byte(op))

			dr, dg, db, da := baseRow[i+0], baseRow[i+1], baseRow[i+2], baseRow[i+3]

			var r, g, b, a byte
			switch s.Mode {
			case BlendPlus:
				r, g, b, a = clampAdd(sr, dr), clampAdd(sg, dg), clampAdd(sb, db), clampAdd(sa, da)
			case BlendModulate:
				r, g, b, a = mulDiv255(sr, dr), mulDiv255(sg, dg), mulDiv255(sb, db), mulDiv255(sa, da)
			default:
				// Source over: S + D*(1-Sa)
				invSa := 255 - sa
				r = clampAdd(sr, mulDiv255(dr, invSa))
				g = clampAdd(sg, mulDiv255(dg, invSa))
				b = clampAdd(sb, mulDiv255(db, invSa))
				a = clampAdd(sa, mulDiv255(da, invSa))
			}

			outRow[i+0] = r
			outRow[i+1] = g
			outRow[i+2] = b
			outRow[i+3] = a
		}
	}
	return nil
}

// mulDiv255 multiplies two byte values and divides by 255 with rounding.
func mulDiv255(a, b byte) byte {
	return byte((uint32(a)*uint32(b) + 127) / 255)
}

// clampAdd adds two byte values with clamping to 255.
func clampAdd(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

// clampF clamps v to [lo, hi].
func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
