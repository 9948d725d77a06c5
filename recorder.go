package voxelvk

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Recorder is the slice of the command buffer API a frame needs.
type Recorder interface {
	BeginRenderPass(color [4]float32, depth float32)
	BindPipeline()
	SetViewport(viewport vk.Viewport)
	SetScissor(scissor vk.Rect2D)
	BindMaterial(set vk.DescriptorSet)
	PushConstants(mvp mgl32.Mat4)
	BindVertexBuffer(buffer vk.Buffer)
	Draw(vertexCount uint32)
	EndRenderPass()
}

// Records into a command buffer which is already in the recording state
type cmdRecorder struct {
	cmd         vk.CommandBuffer
	pass        vk.RenderPass
	framebuffer vk.Framebuffer
	area        vk.Rect2D
	pipeline    *CorePipeline
}

func (r *cmdRecorder) BeginRenderPass(color [4]float32, depth float32) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue(color[:]),
		vk.NewClearDepthStencil(depth, 0),
	}

	vk.CmdBeginRenderPass(r.cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      r.pass,
		Framebuffer:     r.framebuffer,
		RenderArea:      r.area,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
}

func (r *cmdRecorder) BindPipeline() {
	vk.CmdBindPipeline(r.cmd, vk.PipelineBindPointGraphics, r.pipeline.handle)
}

func (r *cmdRecorder) SetViewport(viewport vk.Viewport) {
	vk.CmdSetViewport(r.cmd, 0, 1, []vk.Viewport{viewport})
}

func (r *cmdRecorder) SetScissor(scissor vk.Rect2D) {
	vk.CmdSetScissor(r.cmd, 0, 1, []vk.Rect2D{scissor})
}

func (r *cmdRecorder) BindMaterial(set vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(r.cmd, vk.PipelineBindPointGraphics, r.pipeline.layout,
		0, 1, []vk.DescriptorSet{set}, 0, nil)
}

func (r *cmdRecorder) PushConstants(mvp mgl32.Mat4) {
	vk.CmdPushConstants(r.cmd, r.pipeline.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		0, mvpSize, unsafe.Pointer(&mvp[0]))
}

func (r *cmdRecorder) BindVertexBuffer(buffer vk.Buffer) {
	vk.CmdBindVertexBuffers(r.cmd, 0, 1, []vk.Buffer{buffer}, []vk.DeviceSize{0})
}

func (r *cmdRecorder) Draw(vertexCount uint32) {
	vk.CmdDraw(r.cmd, vertexCount, 1, 0, 0)
}

func (r *cmdRecorder) EndRenderPass() {
	vk.CmdEndRenderPass(r.cmd)
}
