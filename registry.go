package voxelvk

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// ObjectID is assigned by the caller and unique among live objects.
type ObjectID uint32

// VertexBuffer is GPU memory holding one object's triangles.
type VertexBuffer interface {
	Handle() vk.Buffer
	VertexCount() uint32
	Destroy()
}

type BufferAllocator interface {
	NewVertexBuffer(vertices []Vertex) (VertexBuffer, error)
}

// Material is a texture bound through a descriptor set. Release hands it
// back to its source.
type Material interface {
	DescriptorSet() vk.DescriptorSet
	Release()
}

type MaterialSource interface {
	Acquire(path string) (Material, error)
}

type RenderObject struct {
	ID        ObjectID
	Buffer    VertexBuffer
	Material  Material
	Transform Transform
}

func (obj *RenderObject) release() {
	if obj.Buffer != nil {
		obj.Buffer.Destroy()
		obj.Buffer = nil
	}
	if obj.Material != nil {
		obj.Material.Release()
		obj.Material = nil
	}
}

// ObjectRegistry maps ids to render objects and iterates them in ascending
// id order.
type ObjectRegistry struct {
	objects map[ObjectID]*RenderObject
	order   []ObjectID
}

func NewObjectRegistry() *ObjectRegistry {
	return &ObjectRegistry{objects: make(map[ObjectID]*RenderObject)}
}

// Insert stores obj and returns the object it displaced, if any. The caller
// owns the displaced object's resources.
func (r *ObjectRegistry) Insert(obj *RenderObject) *RenderObject {
	old, exists := r.objects[obj.ID]
	r.objects[obj.ID] = obj
	if exists {
		return old
	}
	i := sort.Search(len(r.order), func(i int) bool { return r.order[i] >= obj.ID })
	r.order = append(r.order, 0)
	copy(r.order[i+1:], r.order[i:])
	r.order[i] = obj.ID
	return nil
}

// Remove takes id out of the registry. Unknown ids report false.
func (r *ObjectRegistry) Remove(id ObjectID) (*RenderObject, bool) {
	obj, ok := r.objects[id]
	if !ok {
		return nil, false
	}
	delete(r.objects, id)
	i := sort.Search(len(r.order), func(i int) bool { return r.order[i] >= id })
	r.order = append(r.order[:i], r.order[i+1:]...)
	return obj, true
}

func (r *ObjectRegistry) Get(id ObjectID) (*RenderObject, bool) {
	obj, ok := r.objects[id]
	return obj, ok
}

func (r *ObjectRegistry) Len() int {
	return len(r.objects)
}

// Each visits the objects in ascending id order. fn must not mutate the registry.
func (r *ObjectRegistry) Each(fn func(obj *RenderObject)) {
	for _, id := range r.order {
		fn(r.objects[id])
	}
}

// Drain empties the registry and returns what it held, in id order.
func (r *ObjectRegistry) Drain() []*RenderObject {
	out := make([]*RenderObject, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.objects[id])
	}
	r.objects = make(map[ObjectID]*RenderObject)
	r.order = nil
	return out
}
