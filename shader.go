package voxelvk

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const spirvMagic = 0x07230203

//go:embed shaders/scene.wgsl
var sceneWGSL string

//go:embed shaders/textured.wgsl
var texturedWGSL string

// ShaderSource is the SPIR-V for the vertex and fragment stage plus their
// entry points. The embedded WGSL compiles both stages into one module.
type ShaderSource struct {
	Vertex        []uint32
	Fragment      []uint32
	VertexEntry   string
	FragmentEntry string
}

// CompileWGSL turns WGSL into SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, errors.Wrap(err, "compile wgsl")
	}
	words := sliceUint32(spirv)
	if err := checkSPIRV(words); err != nil {
		return nil, err
	}
	return words, nil
}

func checkSPIRV(words []uint32) error {
	if len(words) == 0 {
		return errors.New("empty SPIR-V module")
	}
	if words[0] != spirvMagic {
		return errors.Errorf("invalid SPIR-V magic 0x%08X", words[0])
	}
	return nil
}

// LoadShaderSource compiles the embedded WGSL for the requested variant. A
// non empty dir overrides it with precompiled vert.spv and frag.spv (or
// textured_vert.spv and textured_frag.spv) whose entry points are "main".
func LoadShaderSource(dir string, textured bool) (*ShaderSource, error) {
	if dir != "" {
		prefix := ""
		if textured {
			prefix = "textured_"
		}
		vert, err := readSPIRV(filepath.Join(dir, prefix+"vert.spv"))
		if err != nil {
			return nil, err
		}
		frag, err := readSPIRV(filepath.Join(dir, prefix+"frag.spv"))
		if err != nil {
			return nil, err
		}
		return &ShaderSource{Vertex: vert, Fragment: frag, VertexEntry: "main", FragmentEntry: "main"}, nil
	}

	source := sceneWGSL
	if textured {
		source = texturedWGSL
	}
	words, err := CompileWGSL(source)
	if err != nil {
		return nil, err
	}
	return &ShaderSource{Vertex: words, Fragment: words, VertexEntry: "vs_main", FragmentEntry: "fs_main"}, nil
}

func readSPIRV(path string) ([]uint32, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	if len(buffer)%4 != 0 {
		return nil, errors.Errorf("shader %s: size %d is not a multiple of 4", path, len(buffer))
	}
	words := sliceUint32(buffer)
	if err := checkSPIRV(words); err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return words, nil
}

//Vertex and fragment shader modules ready to plug into a pipeline
type CoreShader struct {
	device         vk.Device
	vertex         vk.ShaderModule
	fragment       vk.ShaderModule
	vertex_entry   string
	fragment_entry string
}

func NewCoreShader(device vk.Device, src *ShaderSource) (*CoreShader, error) {
	core := &CoreShader{
		device:         device,
		vertex_entry:   src.VertexEntry,
		fragment_entry: src.FragmentEntry,
	}
	var err error
	if core.vertex, err = loadShaderModule(device, src.Vertex); err != nil {
		return nil, errors.Wrap(err, "vertex stage")
	}
	if core.fragment, err = loadShaderModule(device, src.Fragment); err != nil {
		core.Destroy()
		return nil, errors.Wrap(err, "fragment stage")
	}
	return core, nil
}

func loadShaderModule(device vk.Device, code []uint32) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}, nil, &module)
	if isError(ret) {
		return vk.NullShaderModule, NewError(ret)
	}
	return module, nil
}

func (core *CoreShader) Stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: core.vertex,
			PName:  safeString(core.vertex_entry),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: core.fragment,
			PName:  safeString(core.fragment_entry),
		},
	}
}

func (core *CoreShader) Destroy() {
	if core.vertex != vk.NullShaderModule {
		vk.DestroyShaderModule(core.device, core.vertex, nil)
		core.vertex = vk.NullShaderModule
	}
	if core.fragment != vk.NullShaderModule {
		vk.DestroyShaderModule(core.device, core.fragment, nil)
		core.fragment = vk.NullShaderModule
	}
}
