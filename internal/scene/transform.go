// Package scene holds the entity layer that feeds the renderer: entities,
// player movement and the per tick command queue.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/andewx/voxelvk"
)

// Transform places an entity. Rotation is pitch, yaw and roll in radians.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Size     mgl32.Vec3
}

func NewTransform(position mgl32.Vec3) Transform {
	return Transform{Position: position, Size: mgl32.Vec3{1, 1, 1}}
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

// Forward points where the entity looks. With zero rotation that is -Z.
func (t Transform) Forward() mgl32.Vec3 {
	sx, _ := sincos(t.Rotation.X())
	sy, cy := sincos(t.Rotation.Y())
	return mgl32.Vec3{sy, -sx, -cy}
}

func (t Transform) Right() mgl32.Vec3 {
	sy, cy := sincos(t.Rotation.Y())
	sz, cz := sincos(t.Rotation.Z())
	return mgl32.Vec3{cy * cz, sz, sy * cz}
}

func (t Transform) Up() mgl32.Vec3 {
	sx, cx := sincos(t.Rotation.X())
	sy, cy := sincos(t.Rotation.Y())
	sz, cz := sincos(t.Rotation.Z())
	return mgl32.Vec3{
		sx*sy*cz - cx*sz,
		cx*cz + sx*sy*sz,
		-sx * cy,
	}
}

// Render drops the size, the renderer only places objects by position.
func (t Transform) Render() voxelvk.Transform {
	return voxelvk.Transform{Position: t.Position, Rotation: t.Rotation}
}
