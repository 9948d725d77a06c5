package voxelvk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FramePose is where the camera sits for one frame. Rotation holds pitch, yaw
// and roll in radians.
type FramePose struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

// Transform places a render object in the world. Only the position feeds the
// model matrix.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

// Lens holds the projection parameters. Fov is vertical, in degrees.
type Lens struct {
	Fov  float32
	Near float32
	Far  float32
}

func DefaultLens() Lens {
	return Lens{Fov: 45, Near: 0.1, Far: 1000}
}

// View rotates by pitch, then yaw, then roll, after moving the world by the
// negated camera position.
func (p FramePose) View() mgl32.Mat4 {
	pitch := mgl32.HomogRotate3DX(p.Rotation.X())
	yaw := mgl32.HomogRotate3DY(p.Rotation.Y())
	roll := mgl32.HomogRotate3DZ(p.Rotation.Z())
	move := mgl32.Translate3D(-p.Position.X(), -p.Position.Y(), -p.Position.Z())
	return pitch.Mul4(yaw).Mul4(roll).Mul4(move)
}

// Projection is a perspective projection in Vulkan clip space.
func (l Lens) Projection(aspect float32) mgl32.Mat4 {
	return vulkanProjection(mgl32.Perspective(mgl32.DegToRad(l.Fov), aspect, l.Near, l.Far))
}

func viewProjection(pose FramePose, lens Lens, aspect float32) mgl32.Mat4 {
	return lens.Projection(aspect).Mul4(pose.View())
}

func (t Transform) Model() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
}
