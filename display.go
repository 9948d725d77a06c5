package voxelvk

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Window and the Vulkan surface created for it. The surface outlives every
//swapchain built on top of it
type CoreDisplay struct {
	window   *glfw.Window
	instance vk.Instance
	surface  vk.Surface
}

//Creates the window surface through glfw
func NewCoreDisplay(window *glfw.Window, instance vk.Instance) (*CoreDisplay, error) {
	ptr, err := window.CreateWindowSurface(instance, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return &CoreDisplay{
		window:   window,
		instance: instance,
		surface:  vk.SurfaceFromPointer(ptr),
	}, nil
}

// FramebufferExtent is the window size in pixels, which may differ from the
// window size in screen coordinates on high DPI displays.
func (core *CoreDisplay) FramebufferExtent() vk.Extent2D {
	w, h := core.window.GetFramebufferSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
}

func (core *CoreDisplay) Surface() vk.Surface {
	return core.surface
}

func (core *CoreDisplay) Destroy() {
	if core.surface != vk.NullSurface {
		vk.DestroySurface(core.instance, core.surface, nil)
		core.surface = vk.NullSurface
	}
}
