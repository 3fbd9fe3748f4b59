package stage

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/rendergraph"
)

// solidBuffer creates a pixmap buffer filled with an opaque color.
func solidBuffer(t *testing.T, w, h int, c color.RGBA) *rendergraph.PixmapBuffer {
	t.Helper()
	b := rendergraph.NewPixmapBuffer(w, h)
	if b == nil {
		t.Fatalf("NewPixmapBuffer(%d, %d) returned nil", w, h)
	}
	img := b.Image()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return b
}

// runStage drives a stage directly: one input, one output, one render.
func runStage(t *testing.T, s rendergraph.Stage, in, out rendergraph.Buffer) {
	t.Helper()
	s.SetInputs([]rendergraph.Buffer{in})
	s.SetOutput(out)
	if err := s.Render(); err != nil {
		t.Fatalf("Render() = %v", err)
	}
}

// within reports whether got is within tol of want.
func within(got, want uint8, tol int) bool {
	d := int(got) - int(want)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestColorMatrix_Grayscale(t *testing.T) {
	in := solidBuffer(t, 4, 4, color.RGBA{R: 255, A: 255})
	out := solidBuffer(t, 4, 4, color.RGBA{})

	runStage(t, NewGrayscale(), in, out)

	// Pure red through Rec. 709 weights: 0.2126 * 255 ~ 54.
	px := out.Image().RGBAAt(2, 2)
	if !within(px.R, 54, 1) || px.R != px.G || px.G != px.B {
		t.Errorf("grayscale pixel = %+v, want R=G=B~54", px)
	}
	if px.A != 255 {
		t.Errorf("alpha = %d, want 255", px.A)
	}
}

func TestColorMatrix_Brightness(t *testing.T) {
	in := solidBuffer(t, 2, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	out := solidBuffer(t, 2, 2, color.RGBA{})

	runStage(t, NewBrightness(2.0), in, out)

	px := out.Image().RGBAAt(0, 0)
	want := color.RGBA{R: 20, G: 40, B: 60, A: 255}
	if !within(px.R, want.R, 1) || !within(px.G, want.G, 1) || !within(px.B, want.B, 1) {
		t.Errorf("brightness pixel = %+v, want ~%+v", px, want)
	}
}

func TestColorMatrix_Invert(t *testing.T) {
	in := solidBuffer(t, 2, 2, color.RGBA{R: 255, G: 0, B: 200, A: 255})
	out := solidBuffer(t, 2, 2, color.RGBA{})

	runStage(t, NewInvert(), in, out)

	px := out.Image().RGBAAt(1, 1)
	if !within(px.R, 0, 1) || !within(px.G, 255, 1) || !within(px.B, 55, 1) {
		t.Errorf("invert pixel = %+v, want ~{0 255 55 255}", px)
	}
}

func TestColorMatrix_IdentityPassThrough(t *testing.T) {
	in := solidBuffer(t, 3, 3, color.RGBA{R: 12, G: 34, B: 56, A: 255})
	out := solidBuffer(t, 3, 3, color.RGBA{})

	runStage(t, NewIdentity(), in, out)

	if got, want := out.Image().RGBAAt(1, 1), in.Image().RGBAAt(1, 1); got != want {
		t.Errorf("identity pixel = %+v, want %+v", got, want)
	}
}

func TestColorMatrix_Update(t *testing.T) {
	s := NewIdentity()

	if s.Update(nil) {
		t.Error("Update(nil) = true, want false")
	}
	if s.Update(map[string]any{MatrixKey: s.Matrix}) {
		t.Error("Update with unchanged matrix = true, want false")
	}

	sepia := NewSepia().Matrix
	if !s.Update(map[string]any{MatrixKey: sepia}) {
		t.Error("Update with new matrix = false, want true")
	}
	if s.Matrix != sepia {
		t.Error("matrix override not applied")
	}
}

func TestColorMatrix_Errors(t *testing.T) {
	s := NewIdentity()

	s.SetInputs(nil)
	s.SetOutput(solidBuffer(t, 2, 2, color.RGBA{}))
	if err := s.Render(); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Render without inputs = %v, want ErrMissingInput", err)
	}

	s.SetInputs([]rendergraph.Buffer{solidBuffer(t, 2, 2, color.RGBA{})})
	s.SetOutput(nil)
	if err := s.Render(); !errors.Is(err, ErrNilOutput) {
		t.Errorf("Render without output = %v, want ErrNilOutput", err)
	}

	s.SetInputs([]rendergraph.Buffer{otherBuffer{}})
	s.SetOutput(solidBuffer(t, 2, 2, color.RGBA{}))
	if err := s.Render(); !errors.Is(err, ErrUnsupportedBuffer) {
		t.Errorf("Render with foreign buffer = %v, want ErrUnsupportedBuffer", err)
	}
}

// otherBuffer is a Buffer that is not a PixmapBuffer.
type otherBuffer struct{}

func (otherBuffer) Width() int      { return 1 }
func (otherBuffer) Height() int     { return 1 }
func (otherBuffer) IncreaseRef(int) {}
