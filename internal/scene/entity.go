package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/andewx/voxelvk"
)

// Kind is the closed set of entity kinds.
type Kind int

const (
	KindPlayer Kind = iota + 1
	KindCube
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindCube:
		return "cube"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Eye height of the player camera above its position
var eyeOffset = mgl32.Vec3{0, 1, 0}

// Entity is anything in the world. Texture is only meaningful for cubes.
type Entity struct {
	ID        voxelvk.ObjectID
	Kind      Kind
	Transform Transform
	Texture   string
}

// Visible reports whether the renderer should hold an object for e.
func (e *Entity) Visible() bool {
	switch e.Kind {
	case KindCube:
		return true
	default:
		return false
	}
}

// Camera is the pose the renderer draws from when e is the active player.
func (e *Entity) Camera() voxelvk.FramePose {
	return voxelvk.FramePose{
		Position: e.Transform.Position.Add(eyeOffset),
		Rotation: e.Transform.Rotation,
	}
}

// Model returns the vertices of a visible entity.
func (e *Entity) Model() []voxelvk.Vertex {
	switch e.Kind {
	case KindCube:
		return CubeModel()
	default:
		return nil
	}
}
