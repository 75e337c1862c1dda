package vkclear

import (
	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	PresentMode vk.PresentMode
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	if err := check(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil), "swapchain images"); err != nil {
		return nil, err
	}
	swapchainImages := make([]vk.Image, imageCount)
	if err := check(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages), "swapchain images"); err != nil {
		return nil, err
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{
			Device:   s.Device,
			VKImage:  swapchainImages[i],
			VKFormat: s.Format,
			Extent:   s.Extent,
			index:    i,
			fresh:    true,
		}
	}
	return ret, nil
}

// AcquireNextImage returns the index of the next image, semaphore is
// signaled once the presentation engine released it.
func (s *Swapchain) AcquireNextImage(semaphore vk.Semaphore) (int, error) {
	var index uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64, semaphore, vk.NullFence, &index)
	if err := check(res, "acquire next image"); err != nil {
		return 0, err
	}
	return int(index), nil
}

type CreateSwapchainOptions struct {
	ActualSize   vk.Extent2D
	ImageCount   int
	SyncInterval int
}

// ChoosePresentMode returns FIFO when presents wait for vertical blanks,
// otherwise the first of mailbox and immediate that is supported. FIFO is
// always supported.
func ChoosePresentMode(syncInterval int, modes VKPresentModes) vk.PresentMode {
	if syncInterval > 0 {
		return vk.PresentModeFifo
	}
	for _, m := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		if modes.Has(m) {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChooseSurfaceFormat prefers 8 bit RGBA, then 8 bit BGRA.
func ChooseSurfaceFormat(formats VKSurfaceFormats) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, errors.Wrap(frame.ErrNotFound, "surface has no formats")
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: formats[0].ColorSpace}, nil
	}
	for _, want := range []vk.Format{vk.FormatR8g8b8a8Unorm, vk.FormatB8g8r8a8Unorm} {
		match := formats.Filter(func(f vk.SurfaceFormat) bool {
			return f.Format == want
		})
		if len(match) > 0 {
			return match[0], nil
		}
	}
	return vk.SurfaceFormat{}, errors.Wrap(frame.ErrNotFound, "surface supports neither RGBA8 nor BGRA8 unorm")
}

// ClampImageCount fits the wanted image count into the surface limits, a
// maximum of zero means unlimited.
func ClampImageCount(want int, minCount, maxCount uint32) int {
	if want < int(minCount) {
		want = int(minCount)
	}
	if maxCount > 0 && want > int(maxCount) {
		want = int(maxCount)
	}
	return want
}

// CreateSwapchain creates a swap chain usable as clear and copy target.
func (p *Device) CreateSwapchain(surface vk.Surface, options CreateSwapchainOptions) (*Swapchain, error) {
	modes, err := p.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	presentMode := ChoosePresentMode(options.SyncInterval, modes)

	formats, err := p.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return nil, err
	}

	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	swapchainSize := caps.CurrentExtent
	if caps.CurrentExtent.Width == vk.MaxUint32 {
		swapchainSize = options.ActualSize
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit | vk.ImageUsageTransferSrcBit)
	if vk.ImageUsageFlags(caps.SupportedUsageFlags)&usage != usage {
		return nil, errors.Wrap(frame.ErrInvalidOperation, "surface images cannot be transfer targets")
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    uint32(ClampImageCount(options.ImageCount, caps.MinImageCount, caps.MaxImageCount)),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      swapchainSize,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var swapchain vk.Swapchain
	if err := check(vk.CreateSwapchain(p.VKDevice, createInfo, nil, &swapchain), "create swapchain"); err != nil {
		return nil, err
	}

	return &Swapchain{
		VKSwapchain: swapchain,
		Device:      p,
		Extent:      swapchainSize,
		Format:      format.Format,
		PresentMode: presentMode,
	}, nil
}
