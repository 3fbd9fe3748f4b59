package stage

import "golang.org/x/image/draw"

// Resize scales its input to fixed target dimensions. It implements
// rendergraph.OutputSizer, so the graph sizes its pooled output buffer to
// the target dimensions rather than to the input.
type Resize struct {
	base

	width  int
	height int
	interp draw.Interpolator
}

// NewResize creates a resize stage targeting the given dimensions, using
// Catmull-Rom resampling. Returns nil for non-positive dimensions.
func NewResize(width, height int) *Resize {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Resize{width: width, height: height, interp: draw.CatmullRom}
}

// SetInterpolator replaces the resampling kernel. Useful choices are
// draw.NearestNeighbor (fast, blocky), draw.ApproxBiLinear (balanced), and
// draw.CatmullRom (slow, sharp). A nil interpolator is ignored.
func (s *Resize) SetInterpolator(q draw.Interpolator) {
	if q != nil {
		s.interp = q
	}
}

// OutputSize implements rendergraph.OutputSizer.
func (s *Resize) OutputSize(int, int) (int, int) {
	return s.width, s.height
}

// Update implements rendergraph.Stage. The target dimensions are fixed at
// construction; there are no per-frame parameters.
func (s *Resize) Update(map[string]any) bool { return false }

// Render scales the first input into the whole output buffer. The output's
// own dimensions define the scale target, so the stage also works when it
// is a sink rendering into an externally sized frame output.
func (s *Resize) Render() error {
	src, err := s.srcImage(0)
	if err != nil {
		return err
	}
	dst, err := s.dstImage()
	if err != nil {
		return err
	}
	s.interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return nil
}
