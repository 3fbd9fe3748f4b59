package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatRGBA8, "RGBA8"},
		{FormatBGRA8, "BGRA8"},
		{FormatR8, "R8"},
		{Format(42), "Unknown(42)"},
	}
	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_BytesPerPixel(t *testing.T) {
	if got := FormatRGBA8.BytesPerPixel(); got != 4 {
		t.Errorf("RGBA8 bytes per pixel = %d, want 4", got)
	}
	if got := FormatR8.BytesPerPixel(); got != 1 {
		t.Errorf("R8 bytes per pixel = %d, want 1", got)
	}
}

func TestFormat_ToWGPUFormat(t *testing.T) {
	tests := []struct {
		format Format
		want   gputypes.TextureFormat
	}{
		{FormatRGBA8, gputypes.TextureFormatRGBA8Unorm},
		{FormatBGRA8, gputypes.TextureFormatBGRA8Unorm},
		{FormatR8, gputypes.TextureFormatR8Unorm},
	}
	for _, tt := range tests {
		if got := tt.format.ToWGPUFormat(); got != tt.want {
			t.Errorf("ToWGPUFormat(%v) = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestTexture_StubAccessors(t *testing.T) {
	p := NewTexturePool(PoolConfig{})
	buf, err := p.Obtain(128, 64)
	if err != nil {
		t.Fatalf("Obtain() = %v", err)
	}
	tex := buf.(*Texture)

	if tex.Width() != 128 || tex.Height() != 64 {
		t.Errorf("dimensions = %dx%d, want 128x64", tex.Width(), tex.Height())
	}
	if tex.Format() != FormatRGBA8 {
		t.Errorf("format = %v, want RGBA8", tex.Format())
	}
	if want := uint64(128 * 64 * 4); tex.SizeBytes() != want {
		t.Errorf("size = %d, want %d", tex.SizeBytes(), want)
	}
	if tex.Label() == "" {
		t.Error("pooled texture has no label")
	}
	// Stub mode: no hal handles.
	if tex.Handle() != nil || tex.View() != nil {
		t.Error("stub texture should have nil hal handles")
	}
	if tex.Refs() != 1 {
		t.Errorf("initial refs = %d, want 1", tex.Refs())
	}
	if tex.IsReleased() {
		t.Error("fresh texture reports released")
	}
}
