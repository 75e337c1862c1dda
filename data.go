package vkclear

import (
	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// VKFormat returns the Vulkan format of f.
func VKFormat(f frame.Format) (vk.Format, error) {
	switch f {
	case frame.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm, nil
	case frame.FormatR32G32B32Float:
		return vk.FormatR32g32b32Sfloat, nil
	case frame.FormatR32G32B32A32Float:
		return vk.FormatR32g32b32a32Sfloat, nil
	}
	return vk.FormatUndefined, errors.Wrapf(frame.ErrInvalidOperation, "no Vulkan format for %d", f)
}

// InputLayout adapts a frame input layout to a VertexDescriptor on binding 0.
type InputLayout struct {
	Stride     uint32
	Attributes []frame.VertexAttribute
}

// NewInputLayout checks that every attribute has a Vulkan format.
func NewInputLayout(desc *frame.PipelineDesc) (*InputLayout, error) {
	for _, a := range desc.InputLayout {
		if _, err := VKFormat(a.Format); err != nil {
			return nil, errors.Wrapf(err, "attribute %s", a.Semantic)
		}
	}
	return &InputLayout{Stride: desc.Stride, Attributes: desc.InputLayout}, nil
}

func (l *InputLayout) GetBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    l.Stride,
		InputRate: vk.VertexInputRateVertex,
	}
}

func (l *InputLayout) GetAttributeDescriptions() []vk.VertexInputAttributeDescription {
	ret := make([]vk.VertexInputAttributeDescription, len(l.Attributes))
	for i, a := range l.Attributes {
		format, _ := VKFormat(a.Format)
		ret[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   format,
			Offset:   a.Offset,
		}
	}
	return ret
}

// VKPrimitiveTopology returns the Vulkan topology of t.
func VKPrimitiveTopology(t frame.Topology) (vk.PrimitiveTopology, error) {
	switch t {
	case frame.TopologyTriangleList:
		return vk.PrimitiveTopologyTriangleList, nil
	}
	return 0, errors.Wrapf(frame.ErrInvalidOperation, "no Vulkan topology for %d", t)
}
