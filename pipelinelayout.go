package vkclear

import (
	vk "github.com/vulkan-go/vulkan"
)

// PipelineLayout is the root signature of the frame loop: no descriptor sets
// and no push constants.
type PipelineLayout struct {
	Device           *Device
	VKPipelineLayout vk.PipelineLayout
}

func (p *PipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(p.Device.VKDevice, p.VKPipelineLayout, nil)
}

func (d *Device) CreatePipelineLayout() (*PipelineLayout, error) {
	createInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := check(vk.CreatePipelineLayout(d.VKDevice, &createInfo, nil, &pipelineLayout), "create pipeline layout"); err != nil {
		return nil, err
	}
	return &PipelineLayout{VKPipelineLayout: pipelineLayout, Device: d}, nil
}
