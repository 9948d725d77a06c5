package voxelvk

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/voxelvk/internal/config"
	"github.com/andewx/voxelvk/internal/logging"
)

// Renderer is the presentation core. It is driven from a single goroutine:
// lifecycle calls and resizes happen between frames, DrawFrame once per tick.
type Renderer struct {
	log       *logging.Logger
	presenter Presenter
	buffers   BufferAllocator
	materials MaterialSource
	objects   *ObjectRegistry
	viewport  ViewportState
	lens      Lens
	pending   bool
	closers   []func()
}

// NewRenderer wires a renderer around an already built presenter. materials
// may be nil, in which case objects are drawn without a descriptor set.
func NewRenderer(presenter Presenter, buffers BufferAllocator, materials MaterialSource,
	viewport ViewportState, lens Lens, log *logging.Logger) *Renderer {

	return &Renderer{
		log:       log,
		presenter: presenter,
		buffers:   buffers,
		materials: materials,
		objects:   NewObjectRegistry(),
		viewport:  viewport,
		lens:      lens,
		pending:   viewport.Empty(),
	}
}

// Open builds the whole device stack for window as described by cfg. On error
// everything created so far is released again.
func Open(window *glfw.Window, cfg config.Config, log *logging.Logger) (r *Renderer, err error) {
	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	instance, err := NewCoreInstance(window, cfg.Window.Title, cfg.Vulkan.Validation, cfg.Vulkan.Layers, log)
	if err != nil {
		return nil, err
	}
	closers = append(closers, instance.Destroy)

	display, err := NewCoreDisplay(window, instance.handle)
	if err != nil {
		return nil, err
	}
	closers = append(closers, display.Destroy)

	device, err := openDevice(instance.handle, display.Surface(), instance.Layers(), log)
	if err != nil {
		return nil, err
	}
	closers = append(closers, device.Destroy)

	pool, err := NewCorePool(device.handle, device.queue, device.queue_family)
	if err != nil {
		return nil, err
	}
	closers = append(closers, pool.Destroy)

	allocator := NewCoreBufferAllocator(device, pool)
	closers = append(closers, func() {
		if n := allocator.Live(); n > 0 {
			log.Warn("buffers", "%d buffers still allocated at shutdown", n)
		}
	})

	var (
		materials  MaterialSource
		setLayouts []vk.DescriptorSetLayout
	)
	if cfg.Render.Textured {
		cache, err := NewTextureCache(device, pool, allocator, cfg.Render.MaxMaterials, cfg.Render.DefaultTexture, log)
		if err != nil {
			return nil, err
		}
		closers = append(closers, cache.Destroy)
		materials = cache
		setLayouts = cache.SetLayouts()
	}

	src, err := LoadShaderSource(cfg.Vulkan.ShaderDir, cfg.Render.Textured)
	if err != nil {
		return nil, errors.Wrap(err, "load shaders")
	}
	shader, err := NewCoreShader(device.handle, src)
	if err != nil {
		return nil, err
	}

	//The render instance owns the shader from here on, including on failure
	presenter, err := NewCoreRenderInstance(device, display, shader, cfg.Render.Textured,
		setLayouts, display.FramebufferExtent(), log)
	if err != nil {
		return nil, err
	}

	width, height := window.GetFramebufferSize()
	viewport := NewViewportState(mgl32.Vec2{0, 0}, mgl32.Vec2{float32(width), float32(height)})
	lens := Lens{Fov: cfg.Camera.Fov, Near: cfg.Camera.Near, Far: cfg.Camera.Far}

	r = NewRenderer(presenter, allocator, materials, viewport, lens, log)
	r.closers = closers
	log.Info("renderer", "ready on %s, textured=%v", device.name, cfg.Render.Textured)
	return r, nil
}

// CreateObject uploads vertices and registers them under id. A live object
// with the same id is replaced and its resources freed.
func (r *Renderer) CreateObject(id ObjectID, vertices []Vertex, t Transform) error {
	if r.materials != nil {
		return r.CreateTexturedObject(id, vertices, t, "")
	}
	buffer, err := r.buffers.NewVertexBuffer(vertices)
	if err != nil {
		return errors.Wrapf(err, "create object %d", id)
	}
	r.insert(&RenderObject{ID: id, Buffer: buffer, Transform: t})
	return nil
}

// CreateTexturedObject is CreateObject with a texture bound for the object.
// An empty path selects the default texture.
func (r *Renderer) CreateTexturedObject(id ObjectID, vertices []Vertex, t Transform, path string) error {
	if r.materials == nil {
		return errors.Errorf("create object %d: renderer has no textured pipeline", id)
	}
	material, err := r.materials.Acquire(path)
	if err != nil {
		return errors.Wrapf(err, "create object %d: texture %q", id, path)
	}
	buffer, err := r.buffers.NewVertexBuffer(vertices)
	if err != nil {
		material.Release()
		return errors.Wrapf(err, "create object %d", id)
	}
	r.insert(&RenderObject{ID: id, Buffer: buffer, Material: material, Transform: t})
	return nil
}

func (r *Renderer) insert(obj *RenderObject) {
	if old := r.objects.Insert(obj); old != nil {
		r.log.Warn("registry", "duplicate id %d, replacing the live object", obj.ID)
		old.release()
	}
}

// DeleteObject frees the object's GPU memory. Unknown ids are ignored.
func (r *Renderer) DeleteObject(id ObjectID) {
	obj, ok := r.objects.Remove(id)
	if !ok {
		return
	}
	obj.release()
}

// Objects is the number of live render objects.
func (r *Renderer) Objects() int {
	return r.objects.Len()
}

// ResizeViewport records the new viewport and rebuilds the swapchain for it.
// A zero area viewport only marks the rebuild as pending; frames are skipped
// until a usable size arrives.
func (r *Renderer) ResizeViewport(offset, extent mgl32.Vec2) error {
	r.viewport = NewViewportState(offset, extent)
	if r.viewport.Empty() {
		r.pending = true
		r.log.Info("renderer", "viewport is empty, rebuild deferred")
		return nil
	}

	r.pending = true
	if err := r.presenter.Rebuild(r.viewport.SurfaceExtent()); err != nil {
		return errors.Wrap(err, "resize viewport")
	}
	r.pending = false
	return nil
}

// DrawFrame records and presents one frame seen from pose. It returns once the
// GPU has finished with the frame. Frames that fail because of the surface are
// dropped and logged, anything else panics.
func (r *Renderer) DrawFrame(pose FramePose) {
	if r.pending {
		return
	}
	viewProj := viewProjection(pose, r.lens, r.viewport.Aspect())

	image, err := r.presenter.Acquire()
	if err != nil {
		r.dropFrame(err)
		return
	}
	rec, err := r.presenter.Begin(image)
	if err != nil {
		r.dropFrame(err)
		return
	}
	assembleFrame(rec, viewProj, r.viewport, r.objects)
	if err := r.presenter.Present(image); err != nil {
		r.dropFrame(err)
	}
}

func (r *Renderer) dropFrame(err error) {
	if !isFrameLocal(err) {
		panic(errors.Wrap(err, "draw frame"))
	}
	r.log.Error("scheduler", "Failed to flush frame: %v", err)
}

// Destroy waits for the GPU, frees every object and tears the device stack
// down in reverse creation order.
func (r *Renderer) Destroy() {
	r.presenter.WaitIdle()
	for _, obj := range r.objects.Drain() {
		obj.release()
	}
	r.presenter.Destroy()
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
