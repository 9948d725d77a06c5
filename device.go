package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/voxelvk/internal/logging"
)

// Device extensions enabled when the adapter has them. Portability is needed
// on MoltenVK.
var wantedDeviceExtensions = []string{"VK_KHR_portability_subset"}

//What the selection policy needs to know about one physical device
type adapterInfo struct {
	gpu       vk.PhysicalDevice
	index     int
	name      string
	kind      vk.PhysicalDeviceType
	swapchain bool
	family    uint32
	hasFamily bool
}

//Lower is better. Discrete, integrated, virtual, cpu, then anything else
func rankDeviceType(kind vk.PhysicalDeviceType) int {
	switch kind {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 0
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 1
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 3
	}
	return 4
}

// selectAdapter drops adapters without the swapchain extension or without a
// graphics+present queue family, then takes the best ranked one. Ties keep
// enumeration order.
func selectAdapter(candidates []adapterInfo) (adapterInfo, error) {
	best := -1
	for i, c := range candidates {
		if !c.swapchain || !c.hasFamily {
			continue
		}
		if best < 0 || rankDeviceType(c.kind) < rankDeviceType(candidates[best].kind) {
			best = i
		}
	}
	if best < 0 {
		return adapterInfo{}, ErrNoAdapter
	}
	return candidates[best], nil
}

func probeAdapters(instance vk.Instance, surface vk.Surface) ([]adapterInfo, error) {
	var gpu_count uint32
	ret := vk.EnumeratePhysicalDevices(instance, &gpu_count, nil)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "enumerate physical devices")
	}
	if gpu_count == 0 {
		return nil, ErrNoAdapter
	}
	gpus := make([]vk.PhysicalDevice, gpu_count)
	ret = vk.EnumeratePhysicalDevices(instance, &gpu_count, gpus)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "enumerate physical devices")
	}

	adapters := make([]adapterInfo, 0, gpu_count)
	for index, gpu := range gpus {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &props)
		props.Deref()

		info := adapterInfo{
			gpu:   gpu,
			index: index,
			name:  vk.ToString(props.DeviceName[:]),
			kind:  props.DeviceType,
		}

		available, err := DeviceExtensions(gpu)
		if err == nil {
			info.swapchain = len(newExtensionSet([]string{swapchainExtension}, nil, available).Missing()) == 0
		}
		info.family, info.hasFamily = NewCoreQueue(gpu, surface).GraphicsPresentFamily()
		adapters = append(adapters, info)
	}
	return adapters, nil
}

//Logical device opened from the selected adapter with one graphics+present queue.
//Created once and never changed afterwards
type CoreDevice struct {
	gpu               vk.PhysicalDevice
	properties        vk.PhysicalDeviceProperties
	memory_properties vk.PhysicalDeviceMemoryProperties
	handle            vk.Device
	queue             vk.Queue
	queue_family      uint32
	name              string
	device_type       vk.PhysicalDeviceType
}

func openDevice(instance vk.Instance, surface vk.Surface, layers []string, log *logging.Logger) (*CoreDevice, error) {
	adapters, err := probeAdapters(instance, surface)
	if err != nil {
		return nil, err
	}
	for _, a := range adapters {
		log.Debug("device", "adapter %d %q type=%d swapchain=%v present-family=%v", a.index, a.name, a.kind, a.swapchain, a.hasFamily)
	}

	chosen, err := selectAdapter(adapters)
	if err != nil {
		return nil, err
	}

	core := &CoreDevice{
		gpu:          chosen.gpu,
		queue_family: chosen.family,
		name:         chosen.name,
		device_type:  chosen.kind,
	}
	vk.GetPhysicalDeviceProperties(core.gpu, &core.properties)
	core.properties.Deref()
	core.properties.Limits.Deref()
	vk.GetPhysicalDeviceMemoryProperties(core.gpu, &core.memory_properties)
	core.memory_properties.Deref()

	available, err := DeviceExtensions(core.gpu)
	if err != nil {
		return nil, errors.Wrap(err, "list device extensions")
	}
	extensions := newExtensionSet([]string{swapchainExtension}, wantedDeviceExtensions, available)
	if missing := extensions.Missing(); len(missing) > 0 {
		return nil, errors.Errorf("device %q misses extensions %v", core.name, missing)
	}
	enabled := extensions.Enabled()

	queue_infos := NewCoreQueue(core.gpu, surface).CreateInfos(core.queue_family)

	var device vk.Device
	ret := vk.CreateDevice(core.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queue_infos)),
		PQueueCreateInfos:       queue_infos,
		EnabledExtensionCount:   uint32(len(enabled)),
		PpEnabledExtensionNames: safeStrings(enabled),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}, nil, &device)
	if isError(ret) {
		return nil, errors.Wrapf(NewError(ret), "create device on %q", core.name)
	}
	core.handle = device

	var queue vk.Queue
	vk.GetDeviceQueue(device, core.queue_family, 0, &queue)
	core.queue = queue

	log.Info("device", "opened %q (queue family %d, extensions %v)", core.name, core.queue_family, enabled)
	return core, nil
}

func (core *CoreDevice) WaitIdle() {
	vk.DeviceWaitIdle(core.handle)
}

// MaxImageDimension is the largest 2D texture edge the adapter accepts.
func (core *CoreDevice) MaxImageDimension() uint32 {
	return core.properties.Limits.MaxImageDimension2D
}

func (core *CoreDevice) Destroy() {
	if core.handle != nil {
		vk.DeviceWaitIdle(core.handle)
		vk.DestroyDevice(core.handle, nil)
		core.handle = nil
	}
}
