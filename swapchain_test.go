package voxelvk

import (
	"strings"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max uint32
		want     uint32
	}{
		{2, 8, 3},
		{2, 0, 3}, // no upper bound
		{3, 3, 3},
		{1, 2, 2},
	}
	for _, test := range tests {
		caps := vk.SurfaceCapabilities{MinImageCount: test.min, MaxImageCount: test.max}
		if got := chooseImageCount(caps); got != test.want {
			t.Errorf("chooseImageCount(min=%d, max=%d) = %d, want %d", test.min, test.max, got, test.want)
		}
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	if _, err := chooseSurfaceFormat(nil); err != ErrNoSurfaceFormat {
		t.Errorf("no formats: err = %v, want ErrNoSurfaceFormat", err)
	}

	format, err := chooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}})
	if err != nil {
		t.Fatal(err)
	}
	if format.Format != vk.FormatB8g8r8a8Unorm || format.ColorSpace != vk.ColorSpaceSrgbNonlinear {
		t.Errorf("undefined format mapped to %d/%d", format.Format, format.ColorSpace)
	}

	format, err = chooseSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	})
	if err != nil {
		t.Fatal(err)
	}
	if format.Format != vk.FormatR8g8b8a8Srgb {
		t.Errorf("first format not taken, got %d", format.Format)
	}
}

func TestChooseExtent(t *testing.T) {
	defined := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 800, Height: 600},
	}
	if got := chooseExtent(defined, vk.Extent2D{Width: 1, Height: 1}); got.Width != 800 || got.Height != 600 {
		t.Errorf("defined surface extent: got %dx%d, want 800x600", got.Width, got.Height)
	}

	open := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 16, Height: 16},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 2048},
	}
	tests := []struct {
		want, got vk.Extent2D
	}{
		{vk.Extent2D{Width: 1024, Height: 768}, vk.Extent2D{Width: 1024, Height: 768}},
		{vk.Extent2D{Width: 8, Height: 4}, vk.Extent2D{Width: 16, Height: 16}},
		{vk.Extent2D{Width: 5000, Height: 3000}, vk.Extent2D{Width: 4096, Height: 2048}},
	}
	for _, test := range tests {
		got := chooseExtent(open, test.want)
		if got.Width != test.got.Width || got.Height != test.got.Height {
			t.Errorf("chooseExtent(%dx%d) = %dx%d, want %dx%d", test.want.Width, test.want.Height,
				got.Width, got.Height, test.got.Width, test.got.Height)
		}
	}
}

func TestChooseCompositeAlpha(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit | vk.CompositeAlphaPreMultipliedBit),
	}
	if got := chooseCompositeAlpha(caps); got != vk.CompositeAlphaPreMultipliedBit {
		t.Errorf("chooseCompositeAlpha = %d, want pre-multiplied", got)
	}
}

func TestChoosePreTransform(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		SupportedTransforms: vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit | vk.SurfaceTransformRotate90Bit),
		CurrentTransform:    vk.SurfaceTransformRotate90Bit,
	}
	if got := choosePreTransform(caps); got != vk.SurfaceTransformIdentityBit {
		t.Errorf("identity supported but %d chosen", got)
	}
	caps.SupportedTransforms = vk.SurfaceTransformFlags(vk.SurfaceTransformRotate90Bit)
	if got := choosePreTransform(caps); got != vk.SurfaceTransformRotate90Bit {
		t.Errorf("fallback to current transform failed, got %d", got)
	}
}

func TestFramebufferParity(t *testing.T) {
	color := vk.FormatB8g8r8a8Unorm
	if err := checkFramebufferParity(3, []vk.Format{color, color, color}, color); err != nil {
		t.Errorf("matching framebuffers rejected: %v", err)
	}

	err := checkFramebufferParity(3, []vk.Format{color, color}, color)
	if err == nil || !strings.HasPrefix(err.Error(), "framebuffer parity") {
		t.Errorf("count mismatch: err = %v", err)
	}

	err = checkFramebufferParity(2, []vk.Format{color, vk.FormatR8g8b8a8Srgb}, color)
	if err == nil || !strings.Contains(err.Error(), "framebuffer 1") {
		t.Errorf("format mismatch: err = %v", err)
	}
}

func TestRenderPassCompatible(t *testing.T) {
	a := &CoreRenderPass{color: vk.FormatB8g8r8a8Unorm, depth: depthFormat}
	b := &CoreRenderPass{color: vk.FormatB8g8r8a8Unorm, depth: depthFormat}
	c := &CoreRenderPass{color: vk.FormatR8g8b8a8Srgb, depth: depthFormat}

	if !a.Compatible(b) {
		t.Errorf("same formats should be compatible")
	}
	if a.Compatible(c) {
		t.Errorf("different color formats should not be compatible")
	}
	if a.Compatible(nil) {
		t.Errorf("nil render pass should not be compatible")
	}
}

func TestNeedsPipeline(t *testing.T) {
	bgra := &CoreRenderPass{color: vk.FormatB8g8r8a8Unorm, depth: depthFormat}
	tests := []struct {
		name      string
		old, next *CoreRenderPass
		want      bool
	}{
		{"same formats", bgra, &CoreRenderPass{color: vk.FormatB8g8r8a8Unorm, depth: depthFormat}, false},
		{"color format changed", bgra, &CoreRenderPass{color: vk.FormatR8g8b8a8Srgb, depth: depthFormat}, true},
		{"depth format changed", bgra, &CoreRenderPass{color: vk.FormatB8g8r8a8Unorm, depth: vk.FormatD32Sfloat}, true},
		{"no previous pass", nil, bgra, true},
	}
	for _, tt := range tests {
		if got := needsPipeline(tt.old, tt.next); got != tt.want {
			t.Errorf("%s: needsPipeline = %v, want %v", tt.name, got, tt.want)
		}
	}
}
