package vkclear

import (
	"testing"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestImageLayout(t *testing.T) {
	l, err := ImageLayout(frame.Presentable)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutPresentSrc, l)

	l, err = ImageLayout(frame.RenderTarget)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, l)

	_, err = ImageLayout(frame.ResourceState(7))
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
}

func TestStateTransition(t *testing.T) {
	toTarget, err := StateTransition(frame.Presentable, frame.RenderTarget, false)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutPresentSrc, toTarget.OldLayout)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, toTarget.NewLayout)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), toTarget.DstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), toTarget.SrcStage)

	fresh, err := StateTransition(frame.Presentable, frame.RenderTarget, true)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutUndefined, fresh.OldLayout)
	assert.Equal(t, toTarget.NewLayout, fresh.NewLayout)

	toPresent, err := StateTransition(frame.RenderTarget, frame.Presentable, false)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, toPresent.OldLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, toPresent.NewLayout)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), toPresent.SrcAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit), toPresent.DstStage)

	_, err = StateTransition(frame.RenderTarget, frame.RenderTarget, false)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
}

func TestReadbackTransitionsRestoreLayout(t *testing.T) {
	to, from := readbackTransitions()
	assert.Equal(t, vk.ImageLayoutPresentSrc, to.OldLayout)
	assert.Equal(t, to.NewLayout, from.OldLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, from.NewLayout)
}

func TestSubmissionDone(t *testing.T) {
	assert.True(t, submission{}.done())

	// a fence reset since the submit can only have signaled before
	f := &Fence{epoch: 3}
	assert.True(t, submission{fence: f, epoch: 2}.done())
}
