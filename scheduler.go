package voxelvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Acquire, submit and present for a single frame in flight. Flush does not
//return until the GPU has signalled the frame fence
type CoreScheduler struct {
	device          *CoreDevice
	commands        *FrameCommands
	fences          *FrameFences
	image_acquired  vk.Semaphore
	render_complete vk.Semaphore
	cmd             vk.CommandBuffer
}

func NewCoreScheduler(device *CoreDevice) (*CoreScheduler, error) {
	commands, err := NewFrameCommands(device.handle, device.queue_family)
	if err != nil {
		return nil, err
	}
	s := &CoreScheduler{
		device:   device,
		commands: commands,
		fences:   NewFrameFences(device.handle),
	}
	if err := s.createSemaphores(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *CoreScheduler) createSemaphores() error {
	for _, sem := range []*vk.Semaphore{&s.image_acquired, &s.render_complete} {
		ret := vk.CreateSemaphore(s.device.handle, &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, sem)
		if isError(ret) {
			return errors.Wrap(NewError(ret), "create semaphore")
		}
	}
	return nil
}

func (s *CoreScheduler) destroySemaphores() {
	for _, sem := range []*vk.Semaphore{&s.image_acquired, &s.render_complete} {
		if *sem != vk.NullSemaphore {
			vk.DestroySemaphore(s.device.handle, *sem, nil)
			*sem = vk.NullSemaphore
		}
	}
}

// Acquire blocks until the swapchain hands out an image. Suboptimal images
// are used as is.
func (s *CoreScheduler) Acquire(swapchain vk.Swapchain) (uint32, error) {
	var index uint32
	ret := vk.AcquireNextImage(s.device.handle, swapchain, vk.MaxUint64, s.image_acquired, vk.NullFence, &index)
	if ret != vk.Success && ret != vk.Suboptimal {
		return 0, NewError(ret)
	}
	return index, nil
}

// Begin returns the frame command buffer in the recording state.
func (s *CoreScheduler) Begin() (vk.CommandBuffer, error) {
	s.commands.Rewind()
	cmd, err := s.commands.Next()
	if err != nil {
		return nil, err
	}
	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "begin frame commands")
	}
	s.cmd = cmd
	return cmd, nil
}

// Flush ends the frame command buffer, submits it after the acquire, presents
// image after the render and waits for the GPU to finish.
func (s *CoreScheduler) Flush(swapchain vk.Swapchain, image uint32) error {
	ret := vk.EndCommandBuffer(s.cmd)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "end frame commands")
	}

	fence, err := s.fences.Next()
	if err != nil {
		return err
	}

	ret = vk.QueueSubmit(s.device.queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.image_acquired},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{s.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.render_complete},
	}}, fence)
	if isError(ret) {
		s.fences.Rewind()
		return NewError(ret)
	}

	present := vk.QueuePresent(s.device.queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.render_complete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{image},
	})

	//The submission went through, so the fence will fire whatever present said
	waitErr := s.fences.Wait()
	if present != vk.Success && present != vk.Suboptimal {
		return NewError(present)
	}
	return waitErr
}

// Recover drains the device and replaces both semaphores, which may have been
// left signalled by a dropped frame.
func (s *CoreScheduler) Recover() error {
	vk.DeviceWaitIdle(s.device.handle)
	s.destroySemaphores()
	return s.createSemaphores()
}

func (s *CoreScheduler) Destroy() {
	s.fences.Destroy()
	s.commands.Destroy()
	s.destroySemaphores()
}
