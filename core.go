package voxelvk

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/voxelvk/internal/logging"
)

const (
	debugReportExtension   = "VK_EXT_debug_report"
	portabilityEnumeration = "VK_KHR_portability_enumeration"

	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortability = 0x00000001
)

// LoadVulkan points the bindings at the loader glfw found. Call it once after
// glfw.Init and before anything else in this package.
func LoadVulkan() error {
	if !glfw.VulkanSupported() {
		return errors.New("glfw reports no Vulkan loader")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return errors.Wrap(vk.Init(), "init vulkan")
}

//Vulkan instance with the extensions glfw needs, plus validation layers and a
//debug report callback when asked for
type CoreInstance struct {
	log    *logging.Logger
	handle vk.Instance
	debug  vk.DebugReportCallback
	layers []string
}

func NewCoreInstance(window *glfw.Window, name string, validation bool, layers []string, log *logging.Logger) (*CoreInstance, error) {
	core := &CoreInstance{log: log}

	available, err := InstanceExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "list instance extensions")
	}
	var wanted []string
	if validation {
		wanted = append(wanted, debugReportExtension)
	}
	if runtime.GOOS == "darwin" {
		wanted = append(wanted, portabilityEnumeration)
	}
	extensions := newExtensionSet(window.GetRequiredInstanceExtensions(), wanted, available)
	if missing := extensions.Missing(); len(missing) > 0 {
		return nil, errors.Errorf("missing instance extensions %v", missing)
	}
	for _, name := range extensions.Unavailable() {
		log.Warn("instance", "extension %s is not available", name)
	}
	enabled := extensions.Enabled()

	if validation {
		present, err := ValidationLayers()
		if err != nil {
			return nil, errors.Wrap(err, "list validation layers")
		}
		layerSet := newExtensionSet(nil, layers, present)
		for _, name := range layerSet.Unavailable() {
			log.Warn("instance", "validation layer %s is not installed", name)
		}
		core.layers = layerSet.Enabled()
	}

	var flags vk.InstanceCreateFlags
	for _, name := range enabled {
		if name == portabilityEnumeration {
			flags = vk.InstanceCreateFlags(instanceCreateEnumeratePortability)
		}
	}

	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(name),
			PEngineName:        safeString("voxelvk"),
		},
		EnabledExtensionCount:   uint32(len(enabled)),
		PpEnabledExtensionNames: safeStrings(enabled),
		EnabledLayerCount:       uint32(len(core.layers)),
		PpEnabledLayerNames:     safeStrings(core.layers),
		Flags:                   flags,
	}, nil, &core.handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create instance")
	}
	if err := vk.InitInstance(core.handle); err != nil {
		vk.DestroyInstance(core.handle, nil)
		return nil, errors.Wrap(err, "init instance")
	}

	if validation && newExtensionSet(nil, nil, enabled).has(debugReportExtension) {
		ret := vk.CreateDebugReportCallback(core.handle, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: core.debugReport,
		}, nil, &core.debug)
		if isError(ret) {
			log.Warn("instance", "debug report callback unavailable: %v", NewError(ret))
		} else {
			log.Info("instance", "debug report callback enabled")
		}
	}

	log.Info("instance", "created with extensions %v and layers %v", enabled, core.layers)
	return core, nil
}

// Layers are the validation layers the instance was created with. Devices
// enable the same ones.
func (core *CoreInstance) Layers() []string {
	return core.layers
}

func (core *CoreInstance) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.log.Error("validation", "[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.log.Warn("validation", "[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.log.Warn("validation", "performance [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.log.Debug("validation", "[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

func (core *CoreInstance) Destroy() {
	if core.debug != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(core.handle, core.debug, nil)
		core.debug = vk.NullDebugReportCallback
	}
	if core.handle != nil {
		vk.DestroyInstance(core.handle, nil)
		core.handle = nil
	}
}
