package vkclear

import (
	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// LayoutTransition is everything an image barrier needs besides the image.
type LayoutTransition struct {
	OldLayout, NewLayout vk.ImageLayout
	SrcAccess, DstAccess vk.AccessFlags
	SrcStage, DstStage   vk.PipelineStageFlags
}

// ImageLayout returns the layout a swap chain image has in state s.
func ImageLayout(s frame.ResourceState) (vk.ImageLayout, error) {
	switch s {
	case frame.Presentable:
		return vk.ImageLayoutPresentSrc, nil
	case frame.RenderTarget:
		return vk.ImageLayoutTransferDstOptimal, nil
	}
	return vk.ImageLayoutUndefined, errors.Wrapf(frame.ErrInvalidOperation, "no image layout for %s", s)
}

// StateTransition builds the barrier between two resource states. An image
// which was never written yet has undefined contents, so fresh transitions
// start from VK_IMAGE_LAYOUT_UNDEFINED.
func StateTransition(before, after frame.ResourceState, fresh bool) (LayoutTransition, error) {
	if before == after {
		return LayoutTransition{}, errors.Wrapf(frame.ErrInvalidOperation, "barrier does not change state %s", before)
	}
	oldLayout, err := ImageLayout(before)
	if err != nil {
		return LayoutTransition{}, err
	}
	newLayout, err := ImageLayout(after)
	if err != nil {
		return LayoutTransition{}, err
	}
	if fresh {
		oldLayout = vk.ImageLayoutUndefined
	}

	t := LayoutTransition{OldLayout: oldLayout, NewLayout: newLayout}
	switch after {
	case frame.RenderTarget:
		// the acquire semaphore is waited on at the transfer stage
		t.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		t.DstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		t.DstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
	case frame.Presentable:
		t.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		t.SrcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		t.DstStage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	return t, nil
}

// readbackTransitions move a presentable image to the transfer source layout
// and back.
func readbackTransitions() (to, from LayoutTransition) {
	to = LayoutTransition{
		OldLayout: vk.ImageLayoutPresentSrc,
		NewLayout: vk.ImageLayoutTransferSrcOptimal,
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
	}
	from = LayoutTransition{
		OldLayout: vk.ImageLayoutTransferSrcOptimal,
		NewLayout: vk.ImageLayoutPresentSrc,
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		SrcAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
	}
	return to, from
}
