package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/andewx/voxelvk"
)

type cubeFace struct {
	corners [4]mgl32.Vec3 // counter clockwise seen from outside
	color   mgl32.Vec3
}

var cubeFaces = []cubeFace{
	{[4]mgl32.Vec3{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, mgl32.Vec3{1, 0, 0}},     // front
	{[4]mgl32.Vec3{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, mgl32.Vec3{0, 1, 0}}, // back
	{[4]mgl32.Vec3{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}, mgl32.Vec3{0, 0, 1}}, // left
	{[4]mgl32.Vec3{{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}}, mgl32.Vec3{1, 1, 0}},     // right
	{[4]mgl32.Vec3{{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}}, mgl32.Vec3{1, 0, 1}},     // top
	{[4]mgl32.Vec3{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}, mgl32.Vec3{0, 1, 1}}, // bottom
}

var cornerUV = [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// Two triangles per face
var faceOrder = [6]int{0, 1, 2, 2, 3, 0}

// CubeModel is a unit cube centred on the origin, 36 vertices with a color
// per face and UVs covering each face once.
func CubeModel() []voxelvk.Vertex {
	vertices := make([]voxelvk.Vertex, 0, len(cubeFaces)*len(faceOrder))
	for _, face := range cubeFaces {
		for _, corner := range faceOrder {
			vertices = append(vertices, voxelvk.Vertex{
				Position: face.corners[corner],
				Color:    face.color,
				TexCoord: cornerUV[corner],
			})
		}
	}
	return vertices
}
