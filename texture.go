package voxelvk

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/andewx/voxelvk/internal/logging"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

// Key of the generated 1x1 white texture used when no path is given
const whiteTextureKey = "<white>"

// decodeTexture reads any registered image format into tightly packed RGBA.
func decodeTexture(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode texture")
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// fitTexture scales img down so neither edge exceeds maxDim, keeping the
// aspect ratio. maxDim 0 means no limit.
func fitTexture(img *image.RGBA, maxDim int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	return scaled
}

func whiteTexture() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

type textureEntry struct {
	key   string
	refs  int
	image *CoreImage
}

// textureTable counts references per texture key so each file is uploaded once.
type textureTable struct {
	entries map[string]*textureEntry
}

func newTextureTable() *textureTable {
	return &textureTable{entries: make(map[string]*textureEntry)}
}

func (t *textureTable) acquire(key string, load func() (*CoreImage, error)) (*textureEntry, error) {
	if entry, ok := t.entries[key]; ok {
		entry.refs++
		return entry, nil
	}
	img, err := load()
	if err != nil {
		return nil, err
	}
	entry := &textureEntry{key: key, refs: 1, image: img}
	t.entries[key] = entry
	return entry, nil
}

// release drops one reference and reports whether it was the last.
func (t *textureTable) release(entry *textureEntry) bool {
	entry.refs--
	if entry.refs > 0 {
		return false
	}
	delete(t.entries, entry.key)
	return true
}

//Texture images shared by path, one descriptor set per object and a common sampler
type TextureCache struct {
	log             *logging.Logger
	device          *CoreDevice
	pool            *CorePool
	buffers         *CoreBufferAllocator
	sampler         vk.Sampler
	set_layout      vk.DescriptorSetLayout
	descriptor_pool vk.DescriptorPool
	textures        *textureTable
	default_path    string
}

func NewTextureCache(device *CoreDevice, pool *CorePool, buffers *CoreBufferAllocator, maxMaterials int, defaultPath string, log *logging.Logger) (*TextureCache, error) {
	c := &TextureCache{
		log:          log,
		device:       device,
		pool:         pool,
		buffers:      buffers,
		textures:     newTextureTable(),
		default_path: defaultPath,
	}

	ret := vk.CreateSampler(device.handle, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeNearest,
	}, nil, &c.sampler)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create sampler")
	}

	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	ret = vk.CreateDescriptorSetLayout(device.handle, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &c.set_layout)
	if isError(ret) {
		c.Destroy()
		return nil, errors.Wrap(NewError(ret), "create descriptor set layout")
	}

	sizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeSampledImage, DescriptorCount: uint32(maxMaterials)},
		{Type: vk.DescriptorTypeSampler, DescriptorCount: uint32(maxMaterials)},
	}
	ret = vk.CreateDescriptorPool(device.handle, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       uint32(maxMaterials),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &c.descriptor_pool)
	if isError(ret) {
		c.Destroy()
		return nil, errors.Wrap(NewError(ret), "create descriptor pool")
	}
	return c, nil
}

// SetLayouts is what the textured pipeline layout is built with.
func (c *TextureCache) SetLayouts() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{c.set_layout}
}

// Acquire returns a material for path. The empty path selects the configured
// default texture, or plain white when there is none.
func (c *TextureCache) Acquire(path string) (Material, error) {
	key := path
	if key == "" {
		key = c.default_path
	}
	if key == "" {
		key = whiteTextureKey
	}

	entry, err := c.textures.acquire(key, func() (*CoreImage, error) {
		return c.load(key)
	})
	if err != nil {
		return nil, err
	}

	set, err := c.allocateSet(entry.image)
	if err != nil {
		c.release(entry)
		return nil, err
	}
	return &textureMaterial{cache: c, entry: entry, set: set}, nil
}

func (c *TextureCache) load(key string) (*CoreImage, error) {
	var rgba *image.RGBA
	if key == whiteTextureKey {
		rgba = whiteTexture()
	} else {
		f, err := os.Open(key)
		if err != nil {
			return nil, errors.Wrap(err, "open texture")
		}
		defer f.Close()
		if rgba, err = decodeTexture(f); err != nil {
			return nil, errors.Wrapf(err, "texture %s", key)
		}
		rgba = fitTexture(rgba, int(c.device.MaxImageDimension()))
	}

	img, err := c.upload(rgba)
	if err != nil {
		return nil, errors.Wrapf(err, "upload texture %s", key)
	}
	c.log.Debug("textures", "loaded %s (%dx%d)", key, img.extent.Width, img.extent.Height)
	return img, nil
}

func (c *TextureCache) upload(rgba *image.RGBA) (*CoreImage, error) {
	extent := vk.Extent2D{Width: uint32(rgba.Bounds().Dx()), Height: uint32(rgba.Bounds().Dy())}

	staging, err := c.buffers.NewStagingBuffer(rgba.Pix)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	img, err := NewCoreImage(c.device, extent, textureFormat,
		vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit, vk.ImageAspectColorBit)
	if err != nil {
		return nil, err
	}

	err = c.pool.Submit(func(cmd vk.CommandBuffer) {
		transitionImage(cmd, img.image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		vk.CmdCopyBufferToImage(cmd, staging.handle, img.image, vk.ImageLayoutTransferDstOptimal, 1,
			[]vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
			}})
		transitionImage(cmd, img.image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		img.Destroy()
		return nil, err
	}
	return img, nil
}

// transitionImage handles the two layout changes of a texture upload.
func transitionImage(cmd vk.CommandBuffer, img vk.Image, from, to vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var src, dst vk.PipelineStageFlagBits
	if to == vk.ImageLayoutTransferDstOptimal {
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		src = vk.PipelineStageTopOfPipeBit
		dst = vk.PipelineStageTransferBit
	} else {
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		src = vk.PipelineStageTransferBit
		dst = vk.PipelineStageFragmentShaderBit
	}

	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(src), vk.PipelineStageFlags(dst), 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func (c *TextureCache) allocateSet(img *CoreImage) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(c.device.handle, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     c.descriptor_pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{c.set_layout},
	}, &set)
	if isError(ret) {
		return set, errors.Wrap(NewError(ret), "allocate descriptor set")
	}

	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			DescriptorCount: 1,
			PImageInfo: []vk.DescriptorImageInfo{{
				ImageView:   img.view,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      1,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: 1,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler: c.sampler,
			}},
		},
	}
	vk.UpdateDescriptorSets(c.device.handle, uint32(len(writes)), writes, 0, nil)
	return set, nil
}

func (c *TextureCache) release(entry *textureEntry) {
	if c.textures.release(entry) && entry.image != nil {
		entry.image.Destroy()
		c.log.Debug("textures", "released %s", entry.key)
	}
}

func (c *TextureCache) Destroy() {
	for _, entry := range c.textures.entries {
		if entry.image != nil {
			entry.image.Destroy()
		}
	}
	c.textures = newTextureTable()
	if c.descriptor_pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(c.device.handle, c.descriptor_pool, nil)
		c.descriptor_pool = vk.NullDescriptorPool
	}
	if c.set_layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(c.device.handle, c.set_layout, nil)
		c.set_layout = vk.NullDescriptorSetLayout
	}
	if c.sampler != vk.NullSampler {
		vk.DestroySampler(c.device.handle, c.sampler, nil)
		c.sampler = vk.NullSampler
	}
}

type textureMaterial struct {
	cache *TextureCache
	entry *textureEntry
	set   vk.DescriptorSet
}

func (m *textureMaterial) DescriptorSet() vk.DescriptorSet {
	return m.set
}

// Release frees the descriptor set and drops the texture reference. Only the
// first call has an effect.
func (m *textureMaterial) Release() {
	if m.cache == nil {
		return
	}
	vk.FreeDescriptorSets(m.cache.device.handle, m.cache.descriptor_pool, 1, &m.set)
	m.cache.release(m.entry)
	m.cache = nil
}
