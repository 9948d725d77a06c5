package voxelvk

import (
	"github.com/go-gl/mathgl/mgl32"
	lin "github.com/xlab/linmath"
)

// Column major fixup from GL clip space to Vulkan clip space. Y is flipped
// because X = -1, Y = -1 is top left in Vulkan, and depth is remapped from
// [-1, 1] to [0, 1].
var vulkanClip = lin.Mat4x4{
	{1, 0, 0, 0},
	{0, -1, 0, 0},
	{0, 0, 0.5, 0},
	{0, 0, 0.5, 1},
}

// VulkanProjectionMat converts an OpenGL style projection matrix to Vulkan style projection matrix.
// m may alias proj.
func VulkanProjectionMat(m *lin.Mat4x4, proj *lin.Mat4x4) {
	clip := vulkanClip
	m.Mult(&clip, proj)
}

// vulkanProjection applies VulkanProjectionMat to an mgl32 matrix.
func vulkanProjection(proj mgl32.Mat4) mgl32.Mat4 {
	gl := toLinmath(proj)
	var vulkan lin.Mat4x4
	VulkanProjectionMat(&vulkan, &gl)
	return fromLinmath(&vulkan)
}

// Both libraries store columns first, linmath as nested arrays.
func toLinmath(m mgl32.Mat4) lin.Mat4x4 {
	var out lin.Mat4x4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col][row] = m[col*4+row]
		}
	}
	return out
}

func fromLinmath(m *lin.Mat4x4) mgl32.Mat4 {
	var out mgl32.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] = m[col][row]
		}
	}
	return out
}
