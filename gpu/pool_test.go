package gpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/rendergraph"
)

// All pool tests run in stub mode (nil device): the pool tracks logical
// textures and budget without touching a GPU.

func TestTexturePool_ObtainInvalidDimensions(t *testing.T) {
	p := NewTexturePool(PoolConfig{})
	if _, err := p.Obtain(0, 64); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Obtain(0, 64) = %v, want ErrInvalidDimensions", err)
	}
	if _, err := p.Obtain(64, -1); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Obtain(64, -1) = %v, want ErrInvalidDimensions", err)
	}
}

func TestTexturePool_ReusesByDimension(t *testing.T) {
	p := NewTexturePool(PoolConfig{})

	buf, err := p.Obtain(64, 64)
	if err != nil {
		t.Fatalf("Obtain() = %v", err)
	}
	first := buf.(*Texture)
	first.DecreaseRef(1)

	// Same dimensions come back from the free list.
	buf, err = p.Obtain(64, 64)
	if err != nil {
		t.Fatalf("second Obtain() = %v", err)
	}
	if buf.(*Texture) != first {
		t.Error("expected idle texture to be reused")
	}
	if buf.(*Texture).Refs() != 1 {
		t.Errorf("reused texture refs = %d, want 1", buf.(*Texture).Refs())
	}

	// Different dimensions allocate fresh.
	other, err := p.Obtain(32, 32)
	if err != nil {
		t.Fatalf("Obtain(32, 32) = %v", err)
	}
	if other.(*Texture) == first {
		t.Error("texture of different dimensions must not be reused")
	}

	stats := p.Stats()
	if stats.Allocs != 2 || stats.Reuses != 1 {
		t.Errorf("stats = %d allocs, %d reuses, want 2 and 1", stats.Allocs, stats.Reuses)
	}
}

func TestTexturePool_BudgetEvictsLongestIdle(t *testing.T) {
	// 16 MB budget, 4 MB per 1024x1024 RGBA8 texture.
	p := NewTexturePool(PoolConfig{MaxMemoryMB: 16})

	texs := make([]*Texture, 4)
	for i := range texs {
		buf, err := p.Obtain(1024, 1024)
		if err != nil {
			t.Fatalf("Obtain #%d = %v", i, err)
		}
		texs[i] = buf.(*Texture)
	}
	// Recycle in order: texs[0] becomes the longest idle.
	for _, tex := range texs {
		tex.DecreaseRef(1)
	}

	// An 8 MB texture forces eviction of the two longest-idle 4 MB ones.
	if _, err := p.Obtain(2048, 1024); err != nil {
		t.Fatalf("Obtain(2048, 1024) = %v", err)
	}

	stats := p.Stats()
	if stats.Evictions != 2 {
		t.Errorf("evictions = %d, want 2", stats.Evictions)
	}
	if !texs[0].IsReleased() || !texs[1].IsReleased() {
		t.Error("longest-idle textures should have been destroyed")
	}
	if texs[2].IsReleased() || texs[3].IsReleased() {
		t.Error("recently idle textures should have survived")
	}
}

func TestTexturePool_BudgetExceeded(t *testing.T) {
	p := NewTexturePool(PoolConfig{MaxMemoryMB: 16})

	// Single allocation larger than the whole budget.
	if _, err := p.Obtain(4096, 4096); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("oversized Obtain = %v, want ErrBudgetExceeded", err)
	}

	// Fill the budget with busy textures; nothing is idle to evict.
	for i := 0; i < 4; i++ {
		if _, err := p.Obtain(1024, 1024); err != nil {
			t.Fatalf("Obtain #%d = %v", i, err)
		}
	}
	if _, err := p.Obtain(1024, 1024); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("Obtain over busy budget = %v, want ErrBudgetExceeded", err)
	}
}

func TestTexturePool_Close(t *testing.T) {
	p := NewTexturePool(PoolConfig{})

	idle, err := p.Obtain(64, 64)
	if err != nil {
		t.Fatalf("Obtain() = %v", err)
	}
	busy, err := p.Obtain(64, 64)
	if err != nil {
		t.Fatalf("Obtain() = %v", err)
	}
	idle.(*Texture).DecreaseRef(1)

	p.Close()

	if !idle.(*Texture).IsReleased() {
		t.Error("idle texture should be destroyed on Close")
	}
	if _, err := p.Obtain(64, 64); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Obtain after Close = %v, want ErrPoolClosed", err)
	}

	// Busy textures are destroyed as they come back, and their bytes leave
	// the accounting.
	busy.(*Texture).DecreaseRef(1)
	if !busy.(*Texture).IsReleased() {
		t.Error("texture recycled into a closed pool should be destroyed")
	}
	if used := p.Stats().UsedBytes; used != 0 {
		t.Errorf("used bytes after all textures destroyed = %d, want 0", used)
	}

	// A second recycle of the same texture must not double-subtract.
	busy.(*Texture).DecreaseRef(1)
	if used := p.Stats().UsedBytes; used != 0 {
		t.Errorf("used bytes after repeat recycle = %d, want 0", used)
	}

	p.Close() // idempotent
}

func TestTexturePool_FanOutRefCounting(t *testing.T) {
	p := NewTexturePool(PoolConfig{})

	buf, err := p.Obtain(64, 64)
	if err != nil {
		t.Fatalf("Obtain() = %v", err)
	}
	tex := buf.(*Texture)

	// Two extra consumers beyond the implicit owner reference.
	tex.IncreaseRef(2)
	tex.DecreaseRef(1)
	tex.DecreaseRef(1)
	if p.Stats().IdleCount != 0 {
		t.Fatal("texture recycled while references remain")
	}
	tex.DecreaseRef(1)
	if p.Stats().IdleCount != 1 {
		t.Fatal("texture not recycled at zero references")
	}
}

func TestTexturePool_StatsString(t *testing.T) {
	p := NewTexturePool(PoolConfig{MaxMemoryMB: 32})
	if _, err := p.Obtain(64, 64); err != nil {
		t.Fatalf("Obtain() = %v", err)
	}
	s := p.Stats().String()
	if !strings.Contains(s, "32 MB") || !strings.Contains(s, "1 allocs") {
		t.Errorf("unexpected stats string: %s", s)
	}
}

// Compile-time interface checks.
var (
	_ rendergraph.BufferPool = (*TexturePool)(nil)
	_ rendergraph.Buffer     = (*Texture)(nil)
	_ rendergraph.Recyclable = (*Texture)(nil)
)
