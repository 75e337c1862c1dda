package vkclear

import (
	"unsafe"

	"github.com/celer/vkclear/frame"
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffer describes a sequence of commands that will be executed upon
// being sent to a device queue. Only the commands the frame loop needs are
// wrapped.
type CommandBuffer struct {
	VKCommandBuffer vk.CommandBuffer
}

// Begin capturing work for this command buffer
func (c *CommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	return check(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo), "begin command buffer")
}

// BeginOneTime begins capturing work which will be submitted once.
func (c *CommandBuffer) BeginOneTime() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return check(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo), "begin command buffer")
}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return check(vk.EndCommandBuffer(c.VKCommandBuffer), "end command buffer")
}

func (c *CommandBuffer) CmdBindGraphicsPipeline(p vk.Pipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p)
}

// CmdLayoutTransition records a barrier moving the first mip level of image
// between layouts.
func (c *CommandBuffer) CmdLayoutTransition(image vk.Image, t LayoutTransition) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       t.SrcAccess,
		DstAccessMask:       t.DstAccess,
		OldLayout:           t.OldLayout,
		NewLayout:           t.NewLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    colorSubresourceRange(),
	}
	vk.CmdPipelineBarrier(c.VKCommandBuffer, t.SrcStage, t.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// CmdClearColorImage clears image, which has to be in the transfer
// destination layout.
func (c *CommandBuffer) CmdClearColorImage(image vk.Image, color frame.Color) {
	var value vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&value)) = [4]float32(color)
	vk.CmdClearColorImage(c.VKCommandBuffer, image, vk.ImageLayoutTransferDstOptimal, &value, 1,
		[]vk.ImageSubresourceRange{colorSubresourceRange()})
}

// CmdCopyImageToBuffer copies a color image in the transfer source layout
// into a tightly packed buffer.
func (c *CommandBuffer) CmdCopyImageToBuffer(image vk.Image, extent vk.Extent2D, buffer *Buffer) {
	vk.CmdCopyImageToBuffer(c.VKCommandBuffer, image, vk.ImageLayoutTransferSrcOptimal, buffer.VKBuffer, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
	}})
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}
}
