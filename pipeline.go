package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// One column major 4x4 float matrix
const mvpSize = 64

//Graphics pipeline and its layout
type CorePipeline struct {
	device vk.Device
	layout vk.PipelineLayout
	handle vk.Pipeline
}

func (core *CorePipeline) Destroy() {
	if core.handle != vk.NullPipeline {
		vk.DestroyPipeline(core.device, core.handle, nil)
		core.handle = vk.NullPipeline
	}
	if core.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(core.device, core.layout, nil)
		core.layout = vk.NullPipelineLayout
	}
}

//Fixed function state for the scene pipeline. Everything except the render
//pass is decided up front so the same builder can rebuild after a resize
type PipelineBuilder struct {
	shader_stages          []vk.PipelineShaderStageCreateInfo
	vertex_bindings        []vk.VertexInputBindingDescription
	vertex_attributes      []vk.VertexInputAttributeDescription
	input_assembly         vk.PipelineInputAssemblyStateCreateInfo
	rasterizer             vk.PipelineRasterizationStateCreateInfo
	multisampling          vk.PipelineMultisampleStateCreateInfo
	color_blend_attachment vk.PipelineColorBlendAttachmentState
	depth_stencil          vk.PipelineDepthStencilStateCreateInfo
	dynamic_states         []vk.DynamicState
	push_constants         []vk.PushConstantRange
	set_layouts            []vk.DescriptorSetLayout
}

//Triangle list, no culling, depth tested with less, dynamic viewport and scissor.
//setLayouts is empty for the untextured variant
func NewPipelineBuilder(shader *CoreShader, textured bool, setLayouts []vk.DescriptorSetLayout) *PipelineBuilder {
	pb := &PipelineBuilder{
		vertex_bindings:   vertexBindings(),
		vertex_attributes: vertexAttributes(textured),
		set_layouts:       setLayouts,
	}
	if shader != nil {
		pb.shader_stages = shader.Stages()
	}

	pb.input_assembly = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pb.rasterizer = vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	pb.multisampling = vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}

	pb.color_blend_attachment = vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}

	pb.depth_stencil = vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
	}

	pb.dynamic_states = []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}

	pb.push_constants = []vk.PushConstantRange{{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Offset:     0,
		Size:       mvpSize,
	}}

	return pb
}

func (p *PipelineBuilder) Build(device vk.Device, pass *CoreRenderPass) (*CorePipeline, error) {
	core := &CorePipeline{device: device}

	ret := vk.CreatePipelineLayout(device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(p.set_layouts)),
		PSetLayouts:            p.set_layouts,
		PushConstantRangeCount: uint32(len(p.push_constants)),
		PPushConstantRanges:    p.push_constants,
	}, nil, &core.layout)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create pipeline layout")
	}

	vertex_input := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(p.vertex_bindings)),
		PVertexBindingDescriptions:      p.vertex_bindings,
		VertexAttributeDescriptionCount: uint32(len(p.vertex_attributes)),
		PVertexAttributeDescriptions:    p.vertex_attributes,
	}

	//Counts only, the rectangles come from the command buffer
	viewport_state := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	blend_state := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{p.color_blend_attachment},
	}

	dynamic_state := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(p.dynamic_states)),
		PDynamicStates:    p.dynamic_states,
	}

	pipeline_info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(p.shader_stages)),
		PStages:             p.shader_stages,
		PVertexInputState:   &vertex_input,
		PInputAssemblyState: &p.input_assembly,
		PViewportState:      &viewport_state,
		PRasterizationState: &p.rasterizer,
		PMultisampleState:   &p.multisampling,
		PDepthStencilState:  &p.depth_stencil,
		PColorBlendState:    &blend_state,
		PDynamicState:       &dynamic_state,
		Layout:              core.layout,
		RenderPass:          pass.handle,
		Subpass:             0,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(device, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{pipeline_info}, nil, pipelines)
	if isError(ret) {
		core.Destroy()
		return nil, errors.Wrap(NewError(ret), "create graphics pipeline")
	}
	core.handle = pipelines[0]
	return core, nil
}
