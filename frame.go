package voxelvk

import (
	"github.com/go-gl/mathgl/mgl32"
)

var clearColor = [4]float32{0, 0, 0, 1}

const clearDepth = 1.0

// assembleFrame records one pass over every live object. Objects with a
// material bind it before their draw.
func assembleFrame(rec Recorder, viewProj mgl32.Mat4, view ViewportState, objects *ObjectRegistry) {
	rec.BeginRenderPass(clearColor, clearDepth)
	rec.BindPipeline()
	rec.SetViewport(view.Viewport())
	rec.SetScissor(view.Scissor())

	objects.Each(func(obj *RenderObject) {
		if obj.Material != nil {
			rec.BindMaterial(obj.Material.DescriptorSet())
		}
		rec.PushConstants(viewProj.Mul4(obj.Transform.Model()))
		rec.BindVertexBuffer(obj.Buffer.Handle())
		rec.Draw(obj.Buffer.VertexCount())
	})

	rec.EndRenderPass()
}
