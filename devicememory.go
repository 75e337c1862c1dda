package vkclear

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
}

// Destroy frees this memory
func (d *DeviceMemory) Destroy() {
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}

// MapCopyOut maps the first len(dst) bytes of this memory, copies them to dst
// and unmaps.
func (d *DeviceMemory) MapCopyOut(dst []byte) error {
	var ptr unsafe.Pointer
	if err := check(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(len(dst)), 0, &ptr), "map memory"); err != nil {
		return err
	}
	copy(dst, ToBytes(ptr, len(dst)))
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
	return nil
}
