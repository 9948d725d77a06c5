package voxelvk

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestRankDeviceType(t *testing.T) {
	order := []vk.PhysicalDeviceType{
		vk.PhysicalDeviceTypeDiscreteGpu,
		vk.PhysicalDeviceTypeIntegratedGpu,
		vk.PhysicalDeviceTypeVirtualGpu,
		vk.PhysicalDeviceTypeCpu,
		vk.PhysicalDeviceTypeOther,
	}
	for i, kind := range order {
		if got := rankDeviceType(kind); got != i {
			t.Errorf("rankDeviceType(%d) = %d, want %d", kind, got, i)
		}
	}
}

func TestSelectAdapter(t *testing.T) {
	usable := func(index int, kind vk.PhysicalDeviceType) adapterInfo {
		return adapterInfo{index: index, kind: kind, swapchain: true, hasFamily: true}
	}

	tests := []struct {
		name       string
		candidates []adapterInfo
		want       int
	}{
		{
			"discrete beats integrated",
			[]adapterInfo{usable(0, vk.PhysicalDeviceTypeIntegratedGpu), usable(1, vk.PhysicalDeviceTypeDiscreteGpu)},
			1,
		},
		{
			"ties keep enumeration order",
			[]adapterInfo{usable(0, vk.PhysicalDeviceTypeIntegratedGpu), usable(1, vk.PhysicalDeviceTypeIntegratedGpu)},
			0,
		},
		{
			"discrete without swapchain is skipped",
			[]adapterInfo{
				{index: 0, kind: vk.PhysicalDeviceTypeDiscreteGpu, hasFamily: true},
				usable(1, vk.PhysicalDeviceTypeCpu),
			},
			1,
		},
		{
			"discrete without present queue is skipped",
			[]adapterInfo{
				{index: 0, kind: vk.PhysicalDeviceTypeDiscreteGpu, swapchain: true},
				usable(1, vk.PhysicalDeviceTypeVirtualGpu),
			},
			1,
		},
	}
	for _, test := range tests {
		got, err := selectAdapter(test.candidates)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if got.index != test.want {
			t.Errorf("%s: picked adapter %d, want %d", test.name, got.index, test.want)
		}
	}
}

func TestSelectAdapterNone(t *testing.T) {
	candidates := []adapterInfo{
		{index: 0, kind: vk.PhysicalDeviceTypeDiscreteGpu},
		{index: 1, kind: vk.PhysicalDeviceTypeIntegratedGpu, swapchain: true},
	}
	if _, err := selectAdapter(candidates); err != ErrNoAdapter {
		t.Errorf("err = %v, want ErrNoAdapter", err)
	}
	if _, err := selectAdapter(nil); err != ErrNoAdapter {
		t.Errorf("no adapters: err = %v, want ErrNoAdapter", err)
	}
}

func TestPickQueueFamily(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	compute := vk.QueueFlags(vk.QueueComputeBit)

	families := []queueFamily{
		{index: 0, flags: compute, count: 1, present: true},
		{index: 1, flags: graphics, count: 1, present: false},
		{index: 2, flags: graphics | compute, count: 0, present: true},
		{index: 3, flags: graphics | compute, count: 4, present: true},
	}
	index, ok := pickQueueFamily(families)
	if !ok || index != 3 {
		t.Errorf("pickQueueFamily = %d, %v, want 3, true", index, ok)
	}

	if _, ok := pickQueueFamily(families[:3]); ok {
		t.Errorf("no family does both graphics and present, expected none")
	}
}
