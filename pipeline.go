package vkclear

import (
	vk "github.com/vulkan-go/vulkan"
)

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	createInfo := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	var pipelineCache vk.PipelineCache
	if err := check(vk.CreatePipelineCache(d.VKDevice, &createInfo, nil, &pipelineCache), "create pipeline cache"); err != nil {
		return nil, err
	}
	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (c *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(c.Device.VKDevice, c.VKPipelineCache, nil)
}

// GraphicsPipeline is the frame loop's pipeline state. It is bound at every
// command list reset but nothing is drawn with it.
type GraphicsPipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
	Config     *GraphicsPipelineConfig
}

func (p *GraphicsPipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
	p.Config.Destroy()
}

// CreateGraphicsPipeline compiles config against a render pass.
func (c *PipelineCache) CreateGraphicsPipeline(config *GraphicsPipelineConfig, renderPass vk.RenderPass, extent vk.Extent2D) (*GraphicsPipeline, error) {
	createInfo, err := config.VKGraphicsPipelineCreateInfo(extent)
	if err != nil {
		return nil, err
	}
	createInfo.RenderPass = renderPass

	pipelines := make([]vk.Pipeline, 1)
	err = check(vk.CreateGraphicsPipelines(c.Device.VKDevice, c.VKPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines), "create graphics pipeline")
	if err != nil {
		return nil, err
	}
	return &GraphicsPipeline{Device: c.Device, VKPipeline: pipelines[0], Config: config}, nil
}
