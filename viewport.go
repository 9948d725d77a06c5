package voxelvk

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// ViewportState is the dynamic viewport and scissor every frame records. It
// does not depend on the swapchain image count.
type ViewportState struct {
	Offset mgl32.Vec2
	Extent mgl32.Vec2
}

func NewViewportState(offset, extent mgl32.Vec2) ViewportState {
	return ViewportState{Offset: offset, Extent: extent}
}

func (v ViewportState) Viewport() vk.Viewport {
	return vk.Viewport{
		X:        v.Offset.X(),
		Y:        v.Offset.Y(),
		Width:    v.Extent.X(),
		Height:   v.Extent.Y(),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

// Scissor floors the viewport to whole pixels.
func (v ViewportState) Scissor() vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{
			X: int32(math.Floor(float64(v.Offset.X()))),
			Y: int32(math.Floor(float64(v.Offset.Y()))),
		},
		Extent: v.SurfaceExtent(),
	}
}

// SurfaceExtent is the floored extent, negative sizes clamp to zero.
func (v ViewportState) SurfaceExtent() vk.Extent2D {
	return vk.Extent2D{
		Width:  floorUint32(v.Extent.X()),
		Height: floorUint32(v.Extent.Y()),
	}
}

// Empty is true for minimized windows. Nothing can be presented then.
func (v ViewportState) Empty() bool {
	extent := v.SurfaceExtent()
	return extent.Width == 0 || extent.Height == 0
}

func (v ViewportState) Aspect() float32 {
	if v.Extent.Y() <= 0 {
		return 1
	}
	return v.Extent.X() / v.Extent.Y()
}

func floorUint32(f float32) uint32 {
	if f <= 0 {
		return 0
	}
	return uint32(math.Floor(float64(f)))
}
