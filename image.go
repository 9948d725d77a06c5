package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Device local 2D image with its own memory and a single view. Used for the
//depth attachment and for textures
type CoreImage struct {
	device vk.Device
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
	format vk.Format
	extent vk.Extent2D
}

func NewCoreImage(core *CoreDevice, extent vk.Extent2D, format vk.Format, usage vk.ImageUsageFlagBits, aspect vk.ImageAspectFlagBits) (*CoreImage, error) {
	img := &CoreImage{
		device: core.handle,
		format: format,
		extent: extent,
	}

	ret := vk.CreateImage(core.handle, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img.image)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create image")
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(core.handle, img.image, &req)
	req.Deref()

	mem_type, ok := findMemoryType(core.memory_properties, req.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if !ok {
		img.Destroy()
		return nil, errors.Wrap(ErrNoMemoryType, "image memory")
	}

	ret = vk.AllocateMemory(core.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: mem_type,
	}, nil, &img.memory)
	if isError(ret) {
		img.Destroy()
		return nil, errors.Wrap(NewError(ret), "allocate image memory")
	}
	ret = vk.BindImageMemory(core.handle, img.image, img.memory, 0)
	if isError(ret) {
		img.Destroy()
		return nil, errors.Wrap(NewError(ret), "bind image memory")
	}

	img.view, ret = createImageView(core.handle, img.image, format, aspect)
	if isError(ret) {
		img.Destroy()
		return nil, errors.Wrap(NewError(ret), "create image view")
	}
	return img, nil
}

func (img *CoreImage) View() vk.ImageView {
	return img.view
}

func (img *CoreImage) Destroy() {
	if img.view != vk.NullImageView {
		vk.DestroyImageView(img.device, img.view, nil)
		img.view = vk.NullImageView
	}
	if img.image != vk.NullImage {
		vk.DestroyImage(img.device, img.image, nil)
		img.image = vk.NullImage
	}
	if img.memory != vk.NullDeviceMemory {
		vk.FreeMemory(img.device, img.memory, nil)
		img.memory = vk.NullDeviceMemory
	}
}

func createImageView(device vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (vk.ImageView, vk.Result) {
	var view vk.ImageView
	ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	return view, ret
}
