package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Fences handed to queue submits. Wait blocks on every fence handed out since
//the last Wait and recycles them. Not thread-safe
type FrameFences struct {
	device  vk.Device
	fences  []vk.Fence
	pending int
}

func NewFrameFences(device vk.Device) *FrameFences {
	return &FrameFences{device: device}
}

// Next returns an unsignalled fence for the next submit.
func (f *FrameFences) Next() (vk.Fence, error) {
	if f.pending == len(f.fences) {
		var fence vk.Fence
		ret := vk.CreateFence(f.device, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
		}, nil, &fence)
		if isError(ret) {
			return vk.NullFence, errors.Wrap(NewError(ret), "create fence")
		}
		f.fences = append(f.fences, fence)
	}
	fence := f.fences[f.pending]
	f.pending++
	return fence, nil
}

// Rewind takes back the last fence from Next. Use it when the submit never
// reached the queue, otherwise Wait would block on a fence that never fires.
func (f *FrameFences) Rewind() {
	if f.pending > 0 {
		f.pending--
	}
}

func (f *FrameFences) Pending() int {
	return f.pending
}

// Wait blocks until the GPU has signalled every pending fence, then resets them.
func (f *FrameFences) Wait() error {
	if f.pending == 0 {
		return nil
	}
	active := f.fences[:f.pending]
	f.pending = 0
	ret := vk.WaitForFences(f.device, uint32(len(active)), active, vk.True, vk.MaxUint64)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "wait for frame")
	}
	ret = vk.ResetFences(f.device, uint32(len(active)), active)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "reset frame fences")
	}
	return nil
}

func (f *FrameFences) Destroy() {
	f.Wait()
	for _, fence := range f.fences {
		vk.DestroyFence(f.device, fence, nil)
	}
	f.fences = nil
}

//Primary command buffers for frame recording, allocated once per slot and
//reset in place each time the slot comes round again
type FrameCommands struct {
	device  vk.Device
	pool    vk.CommandPool
	buffers []vk.CommandBuffer
	next    int
}

func NewFrameCommands(device vk.Device, family uint32) (*FrameCommands, error) {
	c := &FrameCommands{device: device}
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &c.pool)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create frame command pool")
	}
	return c, nil
}

// Rewind makes every buffer available again. Only call it once the GPU is
// done with them.
func (c *FrameCommands) Rewind() {
	c.next = 0
}

// Next returns a command buffer in the initial state.
func (c *FrameCommands) Next() (vk.CommandBuffer, error) {
	if c.next < len(c.buffers) {
		cmd := c.buffers[c.next]
		ret := vk.ResetCommandBuffer(cmd, 0)
		if isError(ret) {
			return nil, errors.Wrap(NewError(ret), "reset frame commands")
		}
		c.next++
		return cmd, nil
	}

	allocated := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, allocated)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "allocate frame commands")
	}
	c.buffers = append(c.buffers, allocated[0])
	c.next++
	return allocated[0], nil
}

func (c *FrameCommands) Destroy() {
	if len(c.buffers) > 0 {
		vk.FreeCommandBuffers(c.device, c.pool, uint32(len(c.buffers)), c.buffers)
		c.buffers = nil
	}
	if c.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(c.device, c.pool, nil)
		c.pool = vk.NullCommandPool
	}
}
