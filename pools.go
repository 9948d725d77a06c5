package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Transient command pool for one shot transfer work such as buffer and
//texture uploads
type CorePool struct {
	device vk.Device
	queue  vk.Queue
	pool   vk.CommandPool
}

func NewCorePool(device vk.Device, queue vk.Queue, family_index uint32) (*CorePool, error) {
	core := &CorePool{device: device, queue: queue}

	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family_index,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}, nil, &core.pool)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create transfer command pool")
	}
	return core, nil
}

// Submit records a single use command buffer with record and waits for the
// queue to drain it.
func (c *CorePool) Submit(record func(cmd vk.CommandBuffer)) error {
	buffers := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "allocate transfer command buffer")
	}
	defer vk.FreeCommandBuffers(c.device, c.pool, 1, buffers)
	cmd := buffers[0]

	ret = vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if isError(ret) {
		return errors.Wrap(NewError(ret), "begin transfer commands")
	}

	record(cmd)

	ret = vk.EndCommandBuffer(cmd)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "end transfer commands")
	}

	ret = vk.QueueSubmit(c.queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    buffers,
	}}, vk.NullFence)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "submit transfer commands")
	}

	ret = vk.QueueWaitIdle(c.queue)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "wait for transfer")
	}
	return nil
}

func (c *CorePool) Destroy() {
	if c.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(c.device, c.pool, nil)
		c.pool = vk.NullCommandPool
	}
}
