package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/andewx/voxelvk"
	"github.com/andewx/voxelvk/internal/config"
	"github.com/andewx/voxelvk/internal/logging"
)

// Sink receives object lifecycle changes. *voxelvk.Renderer implements it.
type Sink interface {
	CreateObject(id voxelvk.ObjectID, vertices []voxelvk.Vertex, t voxelvk.Transform) error
	CreateTexturedObject(id voxelvk.ObjectID, vertices []voxelvk.Vertex, t voxelvk.Transform, path string) error
	DeleteObject(id voxelvk.ObjectID)
}

// World owns the entities and keeps the sink in step with them. Everything
// happens in Tick, in a fixed order: queued commands and steering are resolved,
// entities updated, then the differences pushed to the sink.
type World struct {
	log         *logging.Logger
	queue       Queue
	next        voxelvk.ObjectID
	entities    map[voxelvk.ObjectID]*Entity
	rendered    map[voxelvk.ObjectID]Transform
	player      voxelvk.ObjectID
	speed       float32
	sensitivity float32
	textured    bool
}

// NewWorld creates a world holding only the player, standing at the origin.
func NewWorld(input config.InputConfig, textured bool, log *logging.Logger) *World {
	w := &World{
		log:         log,
		next:        1,
		entities:    make(map[voxelvk.ObjectID]*Entity),
		rendered:    make(map[voxelvk.ObjectID]Transform),
		speed:       input.Speed,
		sensitivity: input.Sensitivity,
		textured:    textured,
	}
	w.player = w.nextID()
	w.entities[w.player] = &Entity{
		ID:        w.player,
		Kind:      KindPlayer,
		Transform: NewTransform(mgl32.Vec3{}),
	}
	return w
}

func (w *World) nextID() voxelvk.ObjectID {
	id := w.next
	w.next++
	return id
}

// Spawn queues a new entity and returns the id it will have.
func (w *World) Spawn(kind Kind, t Transform, texture string) voxelvk.ObjectID {
	id := w.nextID()
	w.queue.Push(Command{
		Kind:   CmdSpawn,
		Entity: Entity{ID: id, Kind: kind, Transform: t, Texture: texture},
	})
	return id
}

func (w *World) Despawn(id voxelvk.ObjectID) {
	w.queue.Push(Command{Kind: CmdDespawn, ID: id})
}

func (w *World) Move(id voxelvk.ObjectID, position mgl32.Vec3) {
	w.queue.Push(Command{Kind: CmdMove, ID: id, Position: position})
}

// Steer queues player input for the next tick.
func (w *World) Steer(intent Intent) {
	w.queue.Push(Command{Kind: CmdSteer, Intent: intent})
}

func (w *World) Player() *Entity {
	return w.entities[w.player]
}

// Camera is the pose to draw the next frame from.
func (w *World) Camera() voxelvk.FramePose {
	return w.Player().Camera()
}

// Len counts entities, the player included.
func (w *World) Len() int {
	return len(w.entities)
}

// Tick applies queued commands and player steering scaled by dt, then syncs
// the sink. Sink errors are returned after the whole diff has been applied.
func (w *World) Tick(sink Sink, dt float32) error {
	var steer Intent
	for _, cmd := range w.queue.Drain() {
		switch cmd.Kind {
		case CmdSteer:
			steer.Movement = steer.Movement.Add(cmd.Intent.Movement)
			steer.Look = steer.Look.Add(cmd.Intent.Look)
		case CmdSpawn:
			e := cmd.Entity
			w.entities[e.ID] = &e
		case CmdDespawn:
			if cmd.ID == w.player {
				w.log.Warn("scene", "refusing to despawn the player")
				continue
			}
			delete(w.entities, cmd.ID)
		case CmdMove:
			if e, ok := w.entities[cmd.ID]; ok {
				e.Transform.Position = cmd.Position
			}
		}
	}

	player := w.Player()
	player.Transform = Apply(player.Transform, steer, w.speed, w.sensitivity, dt)

	return w.sync(sink)
}

func (w *World) sync(sink Sink) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	for _, id := range sortedIDs(w.rendered) {
		e, ok := w.entities[id]
		if !ok || !e.Visible() {
			sink.DeleteObject(id)
			delete(w.rendered, id)
		}
	}

	for _, id := range sortedIDs(w.entities) {
		e := w.entities[id]
		if !e.Visible() {
			continue
		}
		last, shown := w.rendered[id]
		if shown && last == e.Transform {
			continue
		}
		if shown {
			sink.DeleteObject(id)
			delete(w.rendered, id)
		}
		if err := w.create(sink, e); err != nil {
			keep(errors.Wrapf(err, "%s %d", e.Kind, id))
			continue
		}
		w.rendered[id] = e.Transform
	}
	return first
}

func (w *World) create(sink Sink, e *Entity) error {
	if w.textured && e.Texture != "" {
		return sink.CreateTexturedObject(e.ID, e.Model(), e.Transform.Render(), e.Texture)
	}
	return sink.CreateObject(e.ID, e.Model(), e.Transform.Render())
}

func sortedIDs[V any](m map[voxelvk.ObjectID]V) []voxelvk.ObjectID {
	ids := make([]voxelvk.ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
