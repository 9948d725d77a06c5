package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/andewx/voxelvk"
)

type CommandKind int

const (
	CmdSpawn CommandKind = iota + 1
	CmdDespawn
	CmdMove
	CmdSteer
)

// Command is one change to the world. Which fields matter depends on Kind:
// Spawn uses Entity, Despawn uses ID, Move uses ID and Position and Steer uses
// Intent.
type Command struct {
	Kind     CommandKind
	ID       voxelvk.ObjectID
	Entity   Entity
	Position mgl32.Vec3
	Intent   Intent
}

// Queue collects commands between ticks in the order they were issued.
type Queue struct {
	commands []Command
}

func (q *Queue) Push(cmd Command) {
	q.commands = append(q.commands, cmd)
}

func (q *Queue) Len() int {
	return len(q.commands)
}

// Drain hands out everything queued so far and leaves the queue empty.
func (q *Queue) Drain() []Command {
	out := q.commands
	q.commands = nil
	return out
}
