package voxelvk

import (
	vk "github.com/vulkan-go/vulkan"
)

type queueFamily struct {
	index   uint32
	flags   vk.QueueFlags
	count   uint32
	present bool
}

//Queue family properties for one physical device, probed against the
//presentation surface
type CoreQueue struct {
	gpu      vk.PhysicalDevice
	families []queueFamily
}

//Lists the queue families of gpu and whether each one can present to surface
func NewCoreQueue(gpu vk.PhysicalDevice, surface vk.Surface) *CoreQueue {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	properties := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, properties)

	q := &CoreQueue{
		gpu:      gpu,
		families: make([]queueFamily, count),
	}

	for index := range properties {
		properties[index].Deref()
		var supported vk.Bool32
		if surface != vk.NullSurface {
			vk.GetPhysicalDeviceSurfaceSupport(gpu, uint32(index), surface, &supported)
		}
		q.families[index] = queueFamily{
			index:   uint32(index),
			flags:   properties[index].QueueFlags,
			count:   properties[index].QueueCount,
			present: supported == vk.True,
		}
	}
	return q
}

//Finds the first family which does graphics and presents to the surface
func (q *CoreQueue) GraphicsPresentFamily() (uint32, bool) {
	return pickQueueFamily(q.families)
}

//Device create info for a single queue out of family
func (q *CoreQueue) CreateInfos(family uint32) []vk.DeviceQueueCreateInfo {
	return []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
}

func pickQueueFamily(families []queueFamily) (uint32, bool) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	for _, family := range families {
		if family.count > 0 && family.flags&graphics == graphics && family.present {
			return family.index, true
		}
	}
	return 0, false
}
