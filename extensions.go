package voxelvk

import (
	vk "github.com/vulkan-go/vulkan"
)

const swapchainExtension = "VK_KHR_swapchain"

// InstanceExtensions gets a list of instance extensions available on the platform.
func InstanceExtensions() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	orPanic(NewError(ret))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateInstanceExtensionProperties("", &count, list)
	orPanic(NewError(ret))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// DeviceExtensions gets a list of extensions available on the provided physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	orPanic(NewError(ret))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)
	orPanic(NewError(ret))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// ValidationLayers gets a list of validation layers available on the platform.
func ValidationLayers() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	orPanic(NewError(ret))
	list := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, list)
	orPanic(NewError(ret))
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, err
}

// extensionSet matches what we need and what we would like against what the
// loader or a device reports. Used for instance extensions, device extensions
// and validation layers alike.
type extensionSet struct {
	required []string
	wanted   []string
	actual   []string
}

func newExtensionSet(required, wanted, actual []string) *extensionSet {
	return &extensionSet{required: required, wanted: wanted, actual: actual}
}

func (e *extensionSet) has(name string) bool {
	for _, act := range e.actual {
		if act == name {
			return true
		}
	}
	return false
}

// Missing lists required names the platform does not report.
func (e *extensionSet) Missing() []string {
	missing := []string{}
	for _, req := range e.required {
		if !e.has(req) {
			missing = append(missing, req)
		}
	}
	return missing
}

// Unavailable lists wanted names which will be skipped.
func (e *extensionSet) Unavailable() []string {
	skipped := []string{}
	for _, want := range e.wanted {
		if !e.has(want) {
			skipped = append(skipped, want)
		}
	}
	return skipped
}

// Enabled is every required name followed by the available wanted names,
// without duplicates.
func (e *extensionSet) Enabled() []string {
	seen := make(map[string]bool, len(e.required)+len(e.wanted))
	enabled := []string{}
	for _, req := range e.required {
		if !seen[req] {
			seen[req] = true
			enabled = append(enabled, req)
		}
	}
	for _, want := range e.wanted {
		if !seen[want] && e.has(want) {
			seen[want] = true
			enabled = append(enabled, want)
		}
	}
	return enabled
}

// findMemoryType returns the first memory type allowed by typeBits which has
// every flag in want.
func findMemoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < props.MemoryTypeCount && i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		memType := props.MemoryTypes[i]
		memType.Deref()
		if memType.PropertyFlags&want == want {
			return i, true
		}
	}
	return 0, false
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// sliceUint32 reinterprets little-endian SPIR-V bytes as words.
func sliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = uint32(data[i*4]) |
			uint32(data[i*4+1])<<8 |
			uint32(data[i*4+2])<<16 |
			uint32(data[i*4+3])<<24
	}
	return words
}
