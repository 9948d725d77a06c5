package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Depth attachment format. 16 bit depth is required to be supported as a
// depth attachment on every implementation.
const depthFormat = vk.FormatD16Unorm

//Swapchain, its color images and views, the shared depth buffer and one
//framebuffer per image. Replaced wholesale on resize
type CoreSwapchain struct {
	device        *CoreDevice
	display       *CoreDisplay
	handle        vk.Swapchain
	format        vk.SurfaceFormat
	extent        vk.Extent2D
	images        []vk.Image
	image_views   []vk.ImageView
	depth         *CoreImage
	framebuffers  []vk.Framebuffer
	frame_formats []vk.Format
}

func NewCoreSwapchain(device *CoreDevice, display *CoreDisplay) *CoreSwapchain {
	return &CoreSwapchain{
		device:  device,
		display: display,
		handle:  vk.NullSwapchain,
	}
}

// chooseImageCount asks for one image more than the minimum so the driver has
// a spare to hand out while we wait on the previous frame.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

//First reported format wins. An undefined format means the surface takes anything
func chooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, ErrNoSurfaceFormat
	}
	format := formats[0]
	if format.Format == vk.FormatUndefined {
		format.Format = vk.FormatB8g8r8a8Unorm
		format.ColorSpace = vk.ColorSpaceSrgbNonlinear
	}
	return format, nil
}

// chooseExtent uses the surface's current extent. Wayland style surfaces
// report MaxUint32 and let the swapchain decide, in which case the requested
// size is clamped into the supported range.
func chooseExtent(caps vk.SurfaceCapabilities, want vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(want.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(want.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func choosePreTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	identity := vk.SurfaceTransformIdentityBit
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&identity != 0 {
		return identity
	}
	return caps.CurrentTransform
}

// One of these is guaranteed to be set
func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	modes := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, mode := range modes {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(mode) != 0 {
			return mode
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// checkFramebufferParity holds after every build: one framebuffer per image,
// each built against the render pass color format.
func checkFramebufferParity(imageCount int, frameFormats []vk.Format, passColor vk.Format) error {
	if len(frameFormats) != imageCount {
		return errors.Errorf("framebuffer parity: %d framebuffers for %d images", len(frameFormats), imageCount)
	}
	for i, format := range frameFormats {
		if format != passColor {
			return errors.Errorf("framebuffer parity: framebuffer %d has color format %d, render pass expects %d", i, format, passColor)
		}
	}
	return nil
}

func (core *CoreSwapchain) probe() (vk.SurfaceCapabilities, []vk.SurfaceFormat, error) {
	gpu := core.device.gpu
	surface := core.display.surface

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)
	if isError(ret) {
		return caps, nil, errors.Wrap(NewError(ret), "surface capabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var count uint32
	ret = vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, nil)
	if isError(ret) {
		return caps, nil, errors.Wrap(NewError(ret), "surface formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	ret = vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, formats)
	if isError(ret) {
		return caps, nil, errors.Wrap(NewError(ret), "surface formats")
	}
	for i := range formats {
		formats[i].Deref()
	}
	return caps, formats, nil
}

// Init creates the swapchain, its views and the depth buffer. When a
// swapchain already exists it is handed to the driver as OldSwapchain and
// destroyed afterwards.
func (core *CoreSwapchain) Init(want vk.Extent2D) error {
	caps, formats, err := core.probe()
	if err != nil {
		return err
	}
	format, err := chooseSurfaceFormat(formats)
	if err != nil {
		return err
	}
	core.format = format
	core.extent = chooseExtent(caps, want)

	device := core.device.handle
	old := core.handle

	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          core.display.surface,
		MinImageCount:    chooseImageCount(caps),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      core.extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     choosePreTransform(caps),
		CompositeAlpha:   chooseCompositeAlpha(caps),
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentModeFifo,
		OldSwapchain:     old,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "create swapchain")
	}
	if old != vk.NullSwapchain {
		vk.DestroySwapchain(device, old, nil)
	}
	core.handle = swapchain

	var count uint32
	ret = vk.GetSwapchainImages(device, core.handle, &count, nil)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "swapchain images")
	}
	core.images = make([]vk.Image, count)
	ret = vk.GetSwapchainImages(device, core.handle, &count, core.images)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "swapchain images")
	}

	core.image_views = make([]vk.ImageView, 0, count)
	for _, image := range core.images {
		view, ret := createImageView(device, image, format.Format, vk.ImageAspectColorBit)
		if isError(ret) {
			return errors.Wrap(NewError(ret), "swapchain image view")
		}
		core.image_views = append(core.image_views, view)
	}

	core.depth, err = NewCoreImage(core.device, core.extent, depthFormat,
		vk.ImageUsageDepthStencilAttachmentBit, vk.ImageAspectDepthBit)
	if err != nil {
		return errors.Wrap(err, "depth buffer")
	}
	return nil
}

//Pairs every color view with the shared depth view
func (core *CoreSwapchain) CreateFramebuffers(pass *CoreRenderPass) error {
	core.framebuffers = make([]vk.Framebuffer, 0, len(core.image_views))
	core.frame_formats = make([]vk.Format, 0, len(core.image_views))

	for _, view := range core.image_views {
		attachments := []vk.ImageView{view, core.depth.View()}
		var framebuffer vk.Framebuffer
		ret := vk.CreateFramebuffer(core.device.handle, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      pass.handle,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           core.extent.Width,
			Height:          core.extent.Height,
			Layers:          1,
		}, nil, &framebuffer)
		if isError(ret) {
			return errors.Wrap(NewError(ret), "create framebuffer")
		}
		core.framebuffers = append(core.framebuffers, framebuffer)
		core.frame_formats = append(core.frame_formats, core.format.Format)
	}
	return checkFramebufferParity(len(core.images), core.frame_formats, pass.color)
}

// Rebuild releases everything derived from the old swapchain and builds it
// again at the new extent. The caller recreates the render pass in between
// Rebuild and CreateFramebuffers.
func (core *CoreSwapchain) Rebuild(want vk.Extent2D) error {
	vk.DeviceWaitIdle(core.device.handle)
	core.teardown()
	return core.Init(want)
}

func (core *CoreSwapchain) Framebuffer(index uint32) vk.Framebuffer {
	return core.framebuffers[index]
}

func (core *CoreSwapchain) Extent() vk.Extent2D {
	return core.extent
}

func (core *CoreSwapchain) ColorFormat() vk.Format {
	return core.format.Format
}

func (core *CoreSwapchain) ImageCount() int {
	return len(core.images)
}

// teardown keeps the swapchain handle so the next Init can recycle it.
func (core *CoreSwapchain) teardown() {
	device := core.device.handle
	for _, framebuffer := range core.framebuffers {
		vk.DestroyFramebuffer(device, framebuffer, nil)
	}
	core.framebuffers = nil
	core.frame_formats = nil
	for _, view := range core.image_views {
		vk.DestroyImageView(device, view, nil)
	}
	core.image_views = nil
	core.images = nil
	if core.depth != nil {
		core.depth.Destroy()
		core.depth = nil
	}
}

func (core *CoreSwapchain) Destroy() {
	core.teardown()
	if core.handle != vk.NullSwapchain {
		vk.DestroySwapchain(core.device.handle, core.handle, nil)
		core.handle = vk.NullSwapchain
	}
}
