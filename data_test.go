package vkclear

import (
	"testing"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestInputLayoutDescriptions(t *testing.T) {
	desc := frame.NewPosColorPipelineDesc(nil, nil)
	l, err := NewInputLayout(desc)
	require.NoError(t, err)

	assert.Equal(t, vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    28,
		InputRate: vk.VertexInputRateVertex,
	}, l.GetBindingDescription())

	attrs := l.GetAttributeDescriptions()
	require.Len(t, attrs, 2)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[0].Format)
	assert.EqualValues(t, 0, attrs[0].Offset)
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, attrs[1].Format)
	assert.EqualValues(t, 12, attrs[1].Offset)
	assert.EqualValues(t, 1, attrs[1].Location)
}

func TestUnknownFormatIsRejected(t *testing.T) {
	desc := frame.NewPosColorPipelineDesc(nil, nil)
	desc.InputLayout[0].Format = frame.Format(99)
	_, err := NewInputLayout(desc)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
}

func TestVKPrimitiveTopology(t *testing.T) {
	topo, err := VKPrimitiveTopology(frame.TopologyTriangleList)
	require.NoError(t, err)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, topo)

	_, err = VKPrimitiveTopology(frame.TopologyUndefined)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
}

func TestSafeStrings(t *testing.T) {
	assert.Equal(t, "\x00", safeString(""))
	assert.Equal(t, "VK_KHR_surface\x00", safeString("VK_KHR_surface"))
	assert.Equal(t, "done\x00", safeString("done\x00"))

	in := []string{"a", "b\x00"}
	out := safeStrings(in)
	assert.Equal(t, []string{"a\x00", "b\x00"}, out)
	assert.Equal(t, "a", in[0])
}
