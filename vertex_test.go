package voxelvk

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

func TestVertexLayout(t *testing.T) {
	if vertexStride != 32 {
		t.Fatalf("vertex stride = %d, want 32", vertexStride)
	}
	bindings := vertexBindings()
	if len(bindings) != 1 || bindings[0].Stride != vertexStride || bindings[0].InputRate != vk.VertexInputRateVertex {
		t.Errorf("unexpected bindings")
	}

	plain := vertexAttributes(false)
	if len(plain) != 2 {
		t.Fatalf("untextured attributes = %d, want 2", len(plain))
	}
	textured := vertexAttributes(true)
	if len(textured) != 3 {
		t.Fatalf("textured attributes = %d, want 3", len(textured))
	}

	want := []struct {
		location, offset uint32
		format           vk.Format
	}{
		{0, 0, vk.FormatR32g32b32Sfloat},
		{1, 12, vk.FormatR32g32b32Sfloat},
		{2, 24, vk.FormatR32g32Sfloat},
	}
	for i, attr := range textured {
		if attr.Location != want[i].location || attr.Offset != want[i].offset || attr.Format != want[i].format {
			t.Errorf("attribute %d = location %d offset %d format %d", i, attr.Location, attr.Offset, attr.Format)
		}
	}
}

func TestVertexBytes(t *testing.T) {
	if vertexBytes(nil) != nil {
		t.Errorf("no vertices should give no bytes")
	}

	vertices := []Vertex{{
		Position: mgl32.Vec3{1, 2, 3},
		Color:    mgl32.Vec3{0.5, 0.25, 0},
		TexCoord: mgl32.Vec2{0, 1},
	}, {}}
	data := vertexBytes(vertices)
	if len(data) != 64 {
		t.Fatalf("len = %d, want 64", len(data))
	}
	floats := []float32{1, 2, 3, 0.5, 0.25, 0, 0, 1}
	for i, want := range floats {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if got != want {
			t.Errorf("float %d = %v, want %v", i, got, want)
		}
	}
}
