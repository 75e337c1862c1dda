package vkclear

import (
	vk "github.com/vulkan-go/vulkan"
)

// Image is a swap chain image. The frame loop sees it as a frame.Resource.
type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
	Extent   vk.Extent2D

	index int
	// fresh until the first barrier on the image was recorded
	fresh bool
}

// Index returns the position of the image in its swap chain.
func (i *Image) Index() int {
	return i.index
}

type ImageView struct {
	Device      *Device
	VKImageView vk.ImageView
}

func (i *ImageView) Destroy() {
	vk.DestroyImageView(i.Device.VKDevice, i.VKImageView, nil)
}

func (i *Image) CreateImageView() (*ImageView, error) {
	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.VKImage,
		ViewType: vk.ImageViewType2d,
		Format:   i.VKFormat,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: colorSubresourceRange(),
	}

	var view vk.ImageView
	if err := check(vk.CreateImageView(i.Device.VKDevice, createInfo, nil, &view), "create image view"); err != nil {
		return nil, err
	}
	return &ImageView{Device: i.Device, VKImageView: view}, nil
}

// RenderTargetView is the view the frame loop binds and clears.
type RenderTargetView struct {
	*ImageView
	Image *Image
}
