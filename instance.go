package voxelvk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/voxelvk/internal/logging"
)

// Presenter hands out swapchain images, records into them and puts them on
// screen. Present blocks until the GPU is done with the frame.
type Presenter interface {
	Acquire() (uint32, error)
	Begin(image uint32) (Recorder, error)
	Present(image uint32) error
	Rebuild(extent vk.Extent2D) error
	WaitIdle()
	Destroy()
}

//Everything that hangs off the surface: swapchain, render pass, pipeline and
//the frame scheduler. Device and display are borrowed, the shader is owned
type CoreRenderInstance struct {
	log        *logging.Logger
	device     *CoreDevice
	display    *CoreDisplay
	shader     *CoreShader
	swapchain  *CoreSwapchain
	renderpass *CoreRenderPass
	builder    *PipelineBuilder
	pipeline   *CorePipeline
	scheduler  *CoreScheduler
}

func NewCoreRenderInstance(device *CoreDevice, display *CoreDisplay, shader *CoreShader, textured bool,
	setLayouts []vk.DescriptorSetLayout, extent vk.Extent2D, log *logging.Logger) (*CoreRenderInstance, error) {

	core := &CoreRenderInstance{
		log:       log,
		device:    device,
		display:   display,
		shader:    shader,
		swapchain: NewCoreSwapchain(device, display),
		builder:   NewPipelineBuilder(shader, textured, setLayouts),
	}

	if err := core.swapchain.Init(extent); err != nil {
		core.Destroy()
		return nil, err
	}

	var err error
	core.renderpass, err = NewCoreRenderPass(device.handle, core.swapchain.ColorFormat(), depthFormat)
	if err != nil {
		core.Destroy()
		return nil, err
	}
	if err = core.swapchain.CreateFramebuffers(core.renderpass); err != nil {
		core.Destroy()
		return nil, err
	}
	if core.pipeline, err = core.builder.Build(device.handle, core.renderpass); err != nil {
		core.Destroy()
		return nil, err
	}
	if core.scheduler, err = NewCoreScheduler(device); err != nil {
		core.Destroy()
		return nil, err
	}

	log.Info("swapchain", "created %dx%d, %d images, format %d", core.swapchain.extent.Width,
		core.swapchain.extent.Height, core.swapchain.ImageCount(), core.swapchain.ColorFormat())
	return core, nil
}

func (core *CoreRenderInstance) Acquire() (uint32, error) {
	image, err := core.scheduler.Acquire(core.swapchain.handle)
	if err != nil {
		core.recover(err)
	}
	return image, err
}

func (core *CoreRenderInstance) Begin(image uint32) (Recorder, error) {
	cmd, err := core.scheduler.Begin()
	if err != nil {
		return nil, err
	}
	return &cmdRecorder{
		cmd:         cmd,
		pass:        core.renderpass.handle,
		framebuffer: core.swapchain.Framebuffer(image),
		area:        vk.Rect2D{Extent: core.swapchain.Extent()},
		pipeline:    core.pipeline,
	}, nil
}

func (core *CoreRenderInstance) Present(image uint32) error {
	err := core.scheduler.Flush(core.swapchain.handle, image)
	if err != nil {
		core.recover(err)
	}
	return err
}

// recover leaves the scheduler usable for the next frame after a frame local
// failure. Other failures are left for the caller to escalate.
func (core *CoreRenderInstance) recover(err error) {
	if !isFrameLocal(err) {
		return
	}
	if rerr := core.scheduler.Recover(); rerr != nil {
		core.log.Error("scheduler", "recreating semaphores: %v", rerr)
	}
}

// Rebuild replaces the swapchain, render pass and framebuffers. The pipeline
// survives unless the attachment formats changed.
func (core *CoreRenderInstance) Rebuild(extent vk.Extent2D) error {
	if err := core.swapchain.Rebuild(extent); err != nil {
		return err
	}

	pass, err := NewCoreRenderPass(core.device.handle, core.swapchain.ColorFormat(), depthFormat)
	if err != nil {
		return err
	}
	if needsPipeline(core.renderpass, pass) {
		pipeline, err := core.builder.Build(core.device.handle, pass)
		if err != nil {
			pass.Destroy()
			return err
		}
		core.pipeline.Destroy()
		core.pipeline = pipeline
		core.log.Info("pipeline", "rebuilt for color format %d", pass.color)
	}
	core.renderpass.Destroy()
	core.renderpass = pass

	if err := core.swapchain.CreateFramebuffers(core.renderpass); err != nil {
		return err
	}

	core.log.Info("swapchain", "rebuilt %dx%d, %d images", core.swapchain.extent.Width,
		core.swapchain.extent.Height, core.swapchain.ImageCount())
	return nil
}

//The pipeline is baked against a render pass and stays valid for any pass
//with the same attachment formats
func needsPipeline(old, next *CoreRenderPass) bool {
	return !next.Compatible(old)
}

func (core *CoreRenderInstance) WaitIdle() {
	core.device.WaitIdle()
}

func (core *CoreRenderInstance) Destroy() {
	core.device.WaitIdle()
	if core.scheduler != nil {
		core.scheduler.Destroy()
		core.scheduler = nil
	}
	if core.pipeline != nil {
		core.pipeline.Destroy()
		core.pipeline = nil
	}
	if core.renderpass != nil {
		core.renderpass.Destroy()
		core.renderpass = nil
	}
	if core.swapchain != nil {
		core.swapchain.Destroy()
		core.swapchain = nil
	}
	if core.shader != nil {
		core.shader.Destroy()
		core.shader = nil
	}
}
