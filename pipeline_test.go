package voxelvk

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestPipelineBuilderState(t *testing.T) {
	pb := NewPipelineBuilder(nil, false, nil)

	if pb.input_assembly.Topology != vk.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %d", pb.input_assembly.Topology)
	}
	if pb.rasterizer.CullMode != vk.CullModeFlags(vk.CullModeNone) {
		t.Errorf("culling enabled")
	}
	if pb.depth_stencil.DepthTestEnable != vk.True || pb.depth_stencil.DepthWriteEnable != vk.True ||
		pb.depth_stencil.DepthCompareOp != vk.CompareOpLess {
		t.Errorf("depth state = test %d write %d op %d", pb.depth_stencil.DepthTestEnable,
			pb.depth_stencil.DepthWriteEnable, pb.depth_stencil.DepthCompareOp)
	}
	if pb.color_blend_attachment.BlendEnable != vk.False {
		t.Errorf("blending enabled")
	}
	if len(pb.dynamic_states) != 2 || pb.dynamic_states[0] != vk.DynamicStateViewport ||
		pb.dynamic_states[1] != vk.DynamicStateScissor {
		t.Errorf("dynamic states = %v", pb.dynamic_states)
	}
	if len(pb.push_constants) != 1 {
		t.Fatalf("push constant ranges = %d", len(pb.push_constants))
	}
	pc := pb.push_constants[0]
	if pc.Offset != 0 || pc.Size != 64 || pc.StageFlags != vk.ShaderStageFlags(vk.ShaderStageVertexBit) {
		t.Errorf("push constants = offset %d size %d stages %d", pc.Offset, pc.Size, pc.StageFlags)
	}
	if len(pb.vertex_attributes) != 2 || len(pb.set_layouts) != 0 {
		t.Errorf("untextured builder has %d attributes and %d set layouts", len(pb.vertex_attributes), len(pb.set_layouts))
	}
	if len(pb.shader_stages) != 0 {
		t.Errorf("nil shader produced stages")
	}
}

func TestPipelineBuilderTextured(t *testing.T) {
	layouts := []vk.DescriptorSetLayout{vk.NullDescriptorSetLayout}
	pb := NewPipelineBuilder(nil, true, layouts)
	if len(pb.vertex_attributes) != 3 {
		t.Errorf("textured attributes = %d, want 3", len(pb.vertex_attributes))
	}
	if len(pb.set_layouts) != 1 {
		t.Errorf("set layouts = %d, want 1", len(pb.set_layouts))
	}
}

func TestFrameFencesRewind(t *testing.T) {
	f := &FrameFences{fences: make([]vk.Fence, 2), pending: 2}
	f.Rewind()
	if f.Pending() != 1 {
		t.Errorf("pending fences = %d after rewind, want 1", f.Pending())
	}
	f.Rewind()
	f.Rewind()
	if f.Pending() != 0 {
		t.Errorf("rewind went below zero")
	}
	if err := f.Wait(); err != nil {
		t.Errorf("wait with nothing pending: %v", err)
	}
}
