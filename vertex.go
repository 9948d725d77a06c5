package voxelvk

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Vertex is the interleaved layout every vertex buffer uses. The untextured
// pipeline ignores TexCoord.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

const vertexStride = uint32(unsafe.Sizeof(Vertex{}))

func vertexBindings() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    vertexStride,
		InputRate: vk.VertexInputRateVertex,
	}}
}

func vertexAttributes(textured bool) []vk.VertexInputAttributeDescription {
	attributes := []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
	if textured {
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		})
	}
	return attributes
}

// vertexBytes views the vertices as raw bytes without copying.
func vertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(vertexStride))
}
