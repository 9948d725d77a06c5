package voxelvk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestViewportState(t *testing.T) {
	v := NewViewportState(mgl32.Vec2{2.5, 3.9}, mgl32.Vec2{799.7, 600.2})

	vp := v.Viewport()
	if vp.X != 2.5 || vp.Y != 3.9 || vp.Width != 799.7 || vp.Height != 600.2 {
		t.Errorf("viewport = %v,%v %vx%v", vp.X, vp.Y, vp.Width, vp.Height)
	}
	if vp.MinDepth != 0 || vp.MaxDepth != 1 {
		t.Errorf("depth range = %v..%v, want 0..1", vp.MinDepth, vp.MaxDepth)
	}

	sc := v.Scissor()
	if sc.Offset.X != 2 || sc.Offset.Y != 3 || sc.Extent.Width != 799 || sc.Extent.Height != 600 {
		t.Errorf("scissor = %d,%d %dx%d, want 2,3 799x600", sc.Offset.X, sc.Offset.Y, sc.Extent.Width, sc.Extent.Height)
	}
}

func TestViewportEmpty(t *testing.T) {
	tests := []struct {
		extent mgl32.Vec2
		empty  bool
	}{
		{mgl32.Vec2{0, 0}, true},
		{mgl32.Vec2{800, 0}, true},
		{mgl32.Vec2{0.5, 600}, true},
		{mgl32.Vec2{-10, 600}, true},
		{mgl32.Vec2{1, 1}, false},
	}
	for _, test := range tests {
		v := NewViewportState(mgl32.Vec2{}, test.extent)
		if v.Empty() != test.empty {
			t.Errorf("Empty(%v) = %v, want %v", test.extent, v.Empty(), test.empty)
		}
	}
}

func TestViewportAspect(t *testing.T) {
	if got := NewViewportState(mgl32.Vec2{}, mgl32.Vec2{800, 600}).Aspect(); mgl32.Abs(got-4.0/3.0) > 1e-6 {
		t.Errorf("aspect = %v, want 4/3", got)
	}
	if got := NewViewportState(mgl32.Vec2{}, mgl32.Vec2{800, 0}).Aspect(); got != 1 {
		t.Errorf("zero height aspect = %v, want 1", got)
	}
}
