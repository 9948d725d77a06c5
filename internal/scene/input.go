package scene

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// Pitch stops short of straight up or down
const pitchLimit = 1.5

// Direction each held key pushes the player in. X is right, Y is up and Z is
// forward in the player's own frame.
var keyDirections = map[glfw.Key]mgl32.Vec3{
	glfw.KeyW:         {0, 0, 1},
	glfw.KeyA:         {-1, 0, 0},
	glfw.KeyS:         {0, 0, -1},
	glfw.KeyD:         {1, 0, 0},
	glfw.KeySpace:     {0, 1, 0},
	glfw.KeyLeftShift: {0, -1, 0},
}

// Intent is what the player asked for during one tick.
type Intent struct {
	Movement mgl32.Vec3
	Look     mgl32.Vec2 // cursor delta in pixels
}

// Input tracks held keys and the cursor between ticks.
type Input struct {
	held      map[glfw.Key]bool
	cursor    mgl32.Vec2
	hasCursor bool
	look      mgl32.Vec2
}

func NewInput() *Input {
	return &Input{held: make(map[glfw.Key]bool)}
}

// Key records a key event. Keys without a direction are ignored.
func (in *Input) Key(key glfw.Key, action glfw.Action) {
	if _, ok := keyDirections[key]; !ok {
		return
	}
	switch action {
	case glfw.Press, glfw.Repeat:
		in.held[key] = true
	case glfw.Release:
		in.held[key] = false
	}
}

// Cursor accumulates the distance moved since the last Resolve. The first
// position only sets the reference point.
func (in *Input) Cursor(x, y float64) {
	pos := mgl32.Vec2{float32(x), float32(y)}
	if in.hasCursor {
		in.look = in.look.Add(pos.Sub(in.cursor))
	}
	in.cursor = pos
	in.hasCursor = true
}

// Resolve turns the current state into an intent and clears the cursor delta.
func (in *Input) Resolve() Intent {
	var intent Intent
	for key, down := range in.held {
		if down {
			intent.Movement = intent.Movement.Add(keyDirections[key])
		}
	}
	intent.Look = in.look
	in.look = mgl32.Vec2{}
	return intent
}

// Apply moves t by intent. Translation is scaled by speed and dt, rotation by
// sensitivity only since cursor deltas are already per tick.
func Apply(t Transform, intent Intent, speed, sensitivity, dt float32) Transform {
	step := speed * dt
	delta := t.Forward().Mul(intent.Movement.Z() * step).
		Add(t.Right().Mul(intent.Movement.X() * step)).
		Add(t.Up().Mul(intent.Movement.Y() * step))
	t.Position = t.Position.Add(delta)

	t.Rotation[1] += intent.Look.X() * sensitivity
	t.Rotation[0] += intent.Look.Y() * -sensitivity
	t.Rotation[0] = mgl32.Clamp(t.Rotation[0], -pitchLimit, pitchLimit)
	return t
}
