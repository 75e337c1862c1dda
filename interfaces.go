package vkclear

import (
	vk "github.com/vulkan-go/vulkan"
)

// IDestructable is implemented by objects which own Vulkan handles.
type IDestructable interface {
	Destroy()
}

// VertexDescriptor describes one vertex buffer binding and its attributes.
type VertexDescriptor interface {
	GetBindingDescription() vk.VertexInputBindingDescription
	GetAttributeDescriptions() []vk.VertexInputAttributeDescription
}
