package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Single subpass render pass with one color and one depth attachment
type CoreRenderPass struct {
	device vk.Device
	handle vk.RenderPass
	color  vk.Format
	depth  vk.Format
}

//Color is cleared and stored for presentation, depth is cleared and discarded
func NewCoreRenderPass(device vk.Device, color vk.Format, depth vk.Format) (*CoreRenderPass, error) {
	c := &CoreRenderPass{device: device, color: color, depth: depth}

	attachmentDescriptions := []vk.AttachmentDescription{
		{
			Format:         color,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         depth,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReferences,
		PDepthStencilAttachment: &depthReference,
	}}

	//Wait for the acquired image and the previous depth writes before touching the attachments
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.MaxUint32,
		DstSubpass:    0,
		SrcStageMask:  stages,
		DstStageMask:  stages,
		SrcAccessMask: 0,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}}

	res := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &c.handle)
	if isError(res) {
		return nil, errors.Wrap(NewError(res), "create render pass")
	}
	return c, nil
}

// Compatible reports whether pipelines built against other can be used with
// c. Both passes share the same attachment layout, so only formats matter.
func (c *CoreRenderPass) Compatible(other *CoreRenderPass) bool {
	return other != nil && c.color == other.color && c.depth == other.depth
}

func (c *CoreRenderPass) Destroy() {
	if c.handle != vk.NullRenderPass {
		vk.DestroyRenderPass(c.device, c.handle, nil)
		c.handle = vk.NullRenderPass
	}
}
