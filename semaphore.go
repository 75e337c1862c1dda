package vkclear

import (
	vk "github.com/vulkan-go/vulkan"
)

// VKCreateSemaphore creates a native vulkan semaphore object
func (d *Device) VKCreateSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sema vk.Semaphore
	err := check(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema), "create semaphore")
	return sema, err
}

func (d *Device) VKDestroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s, nil)
}

// VKCreateSemaphores creates n semaphores, destroying the ones already
// created when one fails.
func (d *Device) VKCreateSemaphores(n int) ([]vk.Semaphore, error) {
	ret := make([]vk.Semaphore, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.VKCreateSemaphore()
		if err != nil {
			for _, c := range ret {
				d.VKDestroySemaphore(c)
			}
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}
