// Package stage provides CPU image-processing stages for rendergraph
// pipelines: color matrix transforms, separable Gaussian blur, resampling,
// and two-input blending.
//
// All stages in this package operate on [rendergraph.PixmapBuffer] inputs
// and outputs; handing them any other Buffer implementation fails with
// ErrUnsupportedBuffer. GPU-backed stages live in the gpu package.
package stage
