package voxelvk

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Buffer with dedicated memory. Vertex buffers also carry their vertex count
type CoreBuffer struct {
	device vk.Device
	handle vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
	count  uint32
	owner  *CoreBufferAllocator
}

func newCoreBuffer(core *CoreDevice, size vk.DeviceSize, usage vk.BufferUsageFlagBits, properties vk.MemoryPropertyFlagBits) (*CoreBuffer, error) {
	buf := &CoreBuffer{device: core.handle, size: size}

	ret := vk.CreateBuffer(core.handle, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buf.handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create buffer")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(core.handle, buf.handle, &req)
	req.Deref()

	mem_type, ok := findMemoryType(core.memory_properties, req.MemoryTypeBits, vk.MemoryPropertyFlags(properties))
	if !ok {
		buf.release()
		return nil, errors.Wrap(ErrNoMemoryType, "buffer memory")
	}

	ret = vk.AllocateMemory(core.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: mem_type,
	}, nil, &buf.memory)
	if isError(ret) {
		buf.release()
		return nil, errors.Wrap(NewError(ret), "allocate buffer memory")
	}

	ret = vk.BindBufferMemory(core.handle, buf.handle, buf.memory, 0)
	if isError(ret) {
		buf.release()
		return nil, errors.Wrap(NewError(ret), "bind buffer memory")
	}
	return buf, nil
}

//Copies data into host visible memory
func (b *CoreBuffer) Write(data []byte) error {
	if vk.DeviceSize(len(data)) > b.size {
		return errors.Errorf("write of %d bytes into a %d byte buffer", len(data), b.size)
	}
	var mapped unsafe.Pointer
	ret := vk.MapMemory(b.device, b.memory, 0, b.size, 0, &mapped)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "map buffer memory")
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(b.device, b.memory)
	return nil
}

func (b *CoreBuffer) Handle() vk.Buffer {
	return b.handle
}

func (b *CoreBuffer) VertexCount() uint32 {
	return b.count
}

// Destroy releases the buffer and its memory. Calling it twice is harmless.
func (b *CoreBuffer) Destroy() {
	if b.handle == vk.NullBuffer && b.memory == vk.NullDeviceMemory {
		return
	}
	b.release()
	if b.owner != nil {
		b.owner.live--
		b.owner = nil
	}
}

func (b *CoreBuffer) release() {
	if b.handle != vk.NullBuffer {
		vk.DestroyBuffer(b.device, b.handle, nil)
		b.handle = vk.NullBuffer
	}
	if b.memory != vk.NullDeviceMemory {
		vk.FreeMemory(b.device, b.memory, nil)
		b.memory = vk.NullDeviceMemory
	}
}

//Creates device local vertex buffers filled through a staging copy
type CoreBufferAllocator struct {
	device *CoreDevice
	pool   *CorePool
	live   int
}

func NewCoreBufferAllocator(device *CoreDevice, pool *CorePool) *CoreBufferAllocator {
	return &CoreBufferAllocator{device: device, pool: pool}
}

func (a *CoreBufferAllocator) NewVertexBuffer(vertices []Vertex) (VertexBuffer, error) {
	if len(vertices) == 0 {
		return nil, errors.New("vertex buffer needs at least one vertex")
	}
	data := vertexBytes(vertices)
	size := vk.DeviceSize(len(data))

	staging, err := a.NewStagingBuffer(data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	buf, err := newCoreBuffer(a.device, size,
		vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferDstBit,
		vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, errors.Wrap(err, "vertex buffer")
	}

	err = a.pool.Submit(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, staging.handle, buf.handle, 1, []vk.BufferCopy{{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}})
	})
	if err != nil {
		buf.release()
		return nil, errors.Wrap(err, "upload vertices")
	}

	buf.count = uint32(len(vertices))
	buf.owner = a
	a.live++
	return buf, nil
}

// NewStagingBuffer returns a host visible transfer source holding data. The
// caller destroys it once the copy has completed.
func (a *CoreBufferAllocator) NewStagingBuffer(data []byte) (*CoreBuffer, error) {
	staging, err := newCoreBuffer(a.device, vk.DeviceSize(len(data)),
		vk.BufferUsageTransferSrcBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, errors.Wrap(err, "staging buffer")
	}
	if err := staging.Write(data); err != nil {
		staging.Destroy()
		return nil, err
	}
	return staging, nil
}

// Live counts vertex buffers handed out and not yet destroyed.
func (a *CoreBufferAllocator) Live() int {
	return a.live
}
