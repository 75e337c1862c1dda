package vkclear

import (
	"context"
	"image"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Options configures the swap chain of a GraphicsApp.
type Options struct {
	// BufferCount is the number of swap chain images asked for, the surface
	// limits may change it
	BufferCount int
	// SyncInterval selects the present mode, FIFO when above zero. Present
	// has to be called with an interval of the same kind. FIFO waits for one
	// vertical blank per present, so intervals 2 to 4 behave like 1.
	SyncInterval int
	// Debug enables the validation layers when they are installed
	Debug bool
}

// DefaultOptions is a triple buffered, vsynced swap chain.
func DefaultOptions() Options {
	return Options{
		BufferCount:  3,
		SyncInterval: 1,
	}
}

// frameSync holds the semaphores ordering acquisition, rendering and
// presentation of the current image.
type frameSync struct {
	// acquire is a ring with one more semaphore than there are images, so
	// the next acquisition never uses a semaphore a pending one may signal
	acquire []vk.Semaphore
	next    int

	acquired       vk.Semaphore
	acquirePending bool

	// renderComplete has one semaphore per image, the present of an image
	// waits on it
	renderComplete []vk.Semaphore
	renderSignaled bool
}

// GraphicsApp is a utility object which implements many of the core requirements to
// get to a functioning Vulkan app. It sets up the devices and the swap chain
// of a glfw window and implements frame.Device and frame.SwapChain on top of
// them.
//
// See https://vulkan-tutorial.com/ for a good walkthrough of what this code does.
type GraphicsApp struct {
	Instance *Instance
	App      *App

	Window    *glfw.Window
	VKSurface vk.Surface

	Device         *Device
	PhysicalDevice *PhysicalDevice
	GraphicsQueue  *Queue
	PipelineCache  *PipelineCache

	Swapchain       *Swapchain
	SwapchainImages []*Image

	VKRenderPass vk.RenderPass

	opts         Options
	screenExtent vk.Extent2D

	sync    frameSync
	current int
	lostErr error
}

// NewGraphicsApp creates a new graphics app with the given name
func NewGraphicsApp(name string, opts Options) (*GraphicsApp, error) {
	if opts.BufferCount < 2 {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "flip model needs at least 2 buffers, got %d", opts.BufferCount)
	}
	if opts.SyncInterval < 0 || opts.SyncInterval > 4 {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "sync interval %d out of range [0, 4]", opts.SyncInterval)
	}
	return &GraphicsApp{
		App:  &App{Name: name, EngineName: "vkclear", APIVersion: Version{Major: 1}},
		opts: opts,
	}, nil
}

// SetWindow sets the GLFW window for the graphics app and enables the
// instance extensions glfw needs to present to it
func (p *GraphicsApp) SetWindow(window *glfw.Window) error {
	if p.Instance != nil {
		return errors.Wrap(frame.ErrInvalidOperation, "window must be set prior to initialization")
	}

	supported, err := SupportedExtensions()
	if err != nil {
		return err
	}
	for _, ext := range window.GetRequiredInstanceExtensions() {
		if !contains(supported, ext) {
			return errors.Wrapf(frame.ErrNotFound, "extension '%s' required to enable glfw is not supported by vulkan", ext)
		}
		p.App.EnableExtension(ext)
	}

	p.Window = window
	width, height := window.GetFramebufferSize()
	p.screenExtent = vk.Extent2D{Width: uint32(width), Height: uint32(height)}
	return nil
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// GetScreenExtent gets the size of the swap chain images
func (p *GraphicsApp) GetScreenExtent() vk.Extent2D {
	return p.screenExtent
}

// Init creates the instance, the device and the swap chain, then acquires
// the first image.
func (p *GraphicsApp) Init() error {
	if p.Window == nil {
		return errors.Wrap(frame.ErrInvalidOperation, "no window set")
	}
	if p.opts.Debug {
		if err := p.App.EnableDebugging(); err != nil {
			frame.Logger().Warn("validation layers unavailable", "err", err)
		}
	}

	var err error
	p.Instance, err = p.App.CreateInstance()
	if err != nil {
		return err
	}

	surface, err := p.Window.CreateWindowSurface(p.Instance.VKInstance, nil)
	if err != nil {
		return errors.Wrap(frame.ErrInvalidOperation, err.Error())
	}
	p.VKSurface = vk.SurfaceFromPointer(surface)

	if err := p.createDevice(); err != nil {
		return err
	}
	if err := p.createSwapchainAndImages(); err != nil {
		return err
	}
	if err := p.createSyncObjects(); err != nil {
		return err
	}
	if err := p.acquire(); err != nil {
		return err
	}

	frame.Logger().Info("vulkan swap chain created",
		"device", p.PhysicalDevice.String(),
		"width", p.Swapchain.Extent.Width,
		"height", p.Swapchain.Extent.Height,
		"images", len(p.SwapchainImages),
		"format", p.Swapchain.Format,
		"present_mode", p.Swapchain.PresentMode)
	return nil
}

// createDevice picks the first physical device with a queue family that can
// both draw and present to the surface.
func (p *GraphicsApp) createDevice() error {
	physicalDevices, err := p.Instance.PhysicalDevices()
	if err != nil {
		return errors.WithMessage(err, "error getting devices")
	}

	for _, pdevice := range physicalDevices {
		gqueues := pdevice.QueueFamilies().FilterGraphicsAndPresent(p.VKSurface)
		if len(gqueues) == 0 {
			frame.Logger().Debug("device cannot present to the window", "device", pdevice.String())
			continue
		}

		ldevice, err := pdevice.CreateLogicalDevice(gqueues[:1], &CreateDeviceOptions{
			EnabledExtensions: []string{"VK_KHR_swapchain"},
		})
		if err != nil {
			return errors.WithMessage(err, "unable to create device")
		}
		p.PhysicalDevice = pdevice
		p.Device = ldevice
		p.GraphicsQueue = ldevice.GetQueue(gqueues[0])
		return nil
	}
	return errors.Wrapf(frame.ErrNotFound, "none of %d devices can present to the window", len(physicalDevices))
}

func (p *GraphicsApp) createSwapchainAndImages() error {
	var err error
	p.Swapchain, err = p.Device.CreateSwapchain(p.VKSurface, CreateSwapchainOptions{
		ActualSize:   p.screenExtent,
		ImageCount:   p.opts.BufferCount,
		SyncInterval: p.opts.SyncInterval,
	})
	if err != nil {
		return err
	}
	p.screenExtent = p.Swapchain.Extent

	p.SwapchainImages, err = p.Swapchain.GetImages()
	return err
}

func (p *GraphicsApp) createSyncObjects() error {
	var err error
	p.sync.acquire, err = p.Device.VKCreateSemaphores(len(p.SwapchainImages) + 1)
	if err != nil {
		return err
	}
	p.sync.renderComplete, err = p.Device.VKCreateSemaphores(len(p.SwapchainImages))
	return err
}

func (p *GraphicsApp) destroySyncObjects() {
	for _, s := range p.sync.acquire {
		p.Device.VKDestroySemaphore(s)
	}
	for _, s := range p.sync.renderComplete {
		p.Device.VKDestroySemaphore(s)
	}
	p.sync = frameSync{}
}

// acquire makes the next image of the swap chain current.
func (p *GraphicsApp) acquire() error {
	s := &p.sync
	sem := s.acquire[s.next]
	index, err := p.Swapchain.AcquireNextImage(sem)
	if err != nil {
		return p.fail(err)
	}
	s.next = (s.next + 1) % len(s.acquire)
	s.acquired = sem
	s.acquirePending = true
	s.renderSignaled = false
	p.current = index
	return nil
}

// lost returns the error which removed the device, or nil.
func (p *GraphicsApp) lost() error {
	return p.lostErr
}

// fail records device loss, every later call fails with the same error.
func (p *GraphicsApp) fail(err error) error {
	if err != nil && p.lostErr == nil && errors.Is(err, frame.ErrDeviceLost) {
		p.lostErr = err
		frame.Logger().Warn("vulkan device removed", "err", err)
	}
	return err
}

// Queue returns the graphics queue.
func (p *GraphicsApp) Queue() frame.Queue {
	return &graphicsQueue{app: p}
}

// CreateCommandList creates a command pool, which is the allocator of the
// list, with one primary command buffer.
func (p *GraphicsApp) CreateCommandList() (frame.CommandList, error) {
	if err := p.lost(); err != nil {
		return nil, err
	}
	pool, err := p.Device.CreateCommandPool(p.GraphicsQueue.QueueFamily)
	if err != nil {
		return nil, p.fail(err)
	}
	buffer, err := pool.AllocateBuffer()
	if err != nil {
		pool.Destroy()
		return nil, p.fail(err)
	}
	done, err := p.Device.CreateFence(false)
	if err != nil {
		pool.Destroy()
		return nil, p.fail(err)
	}
	return &CommandList{app: p, pool: pool, buffer: buffer, done: done}, nil
}

// CreateFence creates a fence, optionally already signaled.
func (p *GraphicsApp) CreateFence(signaled bool) (frame.Fence, error) {
	if err := p.lost(); err != nil {
		return nil, err
	}
	f, err := p.Device.CreateFence(signaled)
	if err != nil {
		return nil, p.fail(err)
	}
	return f, nil
}

// CreateRenderTargetView creates an image view of a swap chain image.
func (p *GraphicsApp) CreateRenderTargetView(res frame.Resource) (frame.RenderTargetView, error) {
	img, ok := res.(*Image)
	if !ok || img.Device != p.Device {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "%T is not a swap chain image of this device", res)
	}
	view, err := img.CreateImageView()
	if err != nil {
		return nil, p.fail(err)
	}
	return &RenderTargetView{ImageView: view, Image: img}, nil
}

// CreateRootSignature creates an empty pipeline layout.
func (p *GraphicsApp) CreateRootSignature() (frame.RootSignature, error) {
	if err := p.lost(); err != nil {
		return nil, err
	}
	layout, err := p.Device.CreatePipelineLayout()
	if err != nil {
		return nil, p.fail(err)
	}
	return layout, nil
}

// CreatePipelineState compiles desc against a color only render pass in the
// swap chain format.
func (p *GraphicsApp) CreatePipelineState(sig frame.RootSignature, desc *frame.PipelineDesc) (frame.PipelineState, error) {
	layout, ok := sig.(*PipelineLayout)
	if !ok || layout.Device != p.Device {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "%T is not a pipeline layout of this device", sig)
	}
	if desc == nil {
		return nil, errors.Wrap(frame.ErrInvalidOperation, "nil pipeline description")
	}

	if p.PipelineCache == nil {
		cache, err := p.Device.CreatePipelineCache()
		if err != nil {
			return nil, p.fail(err)
		}
		p.PipelineCache = cache
	}
	if p.VKRenderPass == vk.NullRenderPass {
		renderPass, err := p.Device.CreateColorRenderPass(p.Swapchain.Format)
		if err != nil {
			return nil, p.fail(err)
		}
		p.VKRenderPass = renderPass
	}

	config, err := p.Device.PipelineConfigFromDesc(layout, desc)
	if err != nil {
		return nil, p.fail(err)
	}
	pipeline, err := p.PipelineCache.CreateGraphicsPipeline(config, p.VKRenderPass, p.screenExtent)
	if err != nil {
		config.Destroy()
		return nil, p.fail(err)
	}
	return pipeline, nil
}

// CreateColorRenderPass creates a render pass with a single color
// attachment, which pipelines are compiled against.
func (d *Device) CreateColorRenderPass(format vk.Format) (vk.RenderPass, error) {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDescriptions := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      subpassDescriptions,
	}

	var renderPass vk.RenderPass
	err := check(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass), "create render pass")
	return renderPass, err
}

// BufferCount returns the number of swap chain images.
func (p *GraphicsApp) BufferCount() int {
	return len(p.SwapchainImages)
}

// Buffer returns swap chain image index.
func (p *GraphicsApp) Buffer(index int) (frame.Resource, error) {
	if index < 0 || index >= len(p.SwapchainImages) {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "buffer %d out of range [0, %d)", index, len(p.SwapchainImages))
	}
	return p.SwapchainImages[index], nil
}

// CurrentBackBufferIndex returns the image acquired for the next frame.
func (p *GraphicsApp) CurrentBackBufferIndex() int {
	return p.current
}

// Present queues the current image and acquires the next one. The present
// mode was chosen when the swap chain was created, FIFO blocks in the
// acquisition once every image is queued.
func (p *GraphicsApp) Present(syncInterval int) error {
	if err := p.lost(); err != nil {
		return err
	}
	if (syncInterval > 0) != (p.opts.SyncInterval > 0) {
		return errors.Wrapf(frame.ErrInvalidOperation, "sync interval %d does not match present mode %d", syncInterval, p.Swapchain.PresentMode)
	}
	img := p.SwapchainImages[p.current]
	if img.fresh {
		return errors.Wrapf(frame.ErrInvalidOperation, "present of image %d which was never rendered", p.current)
	}

	s := &p.sync
	var wait []vk.Semaphore
	switch {
	case s.renderSignaled:
		wait = []vk.Semaphore{s.renderComplete[p.current]}
	case s.acquirePending:
		wait = []vk.Semaphore{s.acquired}
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    wait,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{p.Swapchain.VKSwapchain},
		PImageIndices:      []uint32{uint32(p.current)},
	}
	if err := check(vk.QueuePresent(p.GraphicsQueue.VKQueue, &presentInfo), "queue present"); err != nil {
		return p.fail(err)
	}
	return p.acquire()
}

// ReadBuffer copies the current image to host memory. Only the acquired
// image belongs to the application, so other indices are rejected.
func (p *GraphicsApp) ReadBuffer(ctx context.Context, index int) (*image.RGBA, error) {
	if err := p.lost(); err != nil {
		return nil, err
	}
	if index != p.current {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "image %d is owned by the presentation engine, %d is current", index, p.current)
	}
	img := p.SwapchainImages[index]
	if img.fresh {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "image %d was never rendered", index)
	}
	if err := (&graphicsQueue{app: p}).WaitIdle(ctx); err != nil {
		return nil, err
	}

	width, height := int(img.Extent.Width), int(img.Extent.Height)
	size := uint64(width * height * 4)
	buffer, memory, err := p.Device.CreateHostBuffer(size, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
	if err != nil {
		return nil, p.fail(err)
	}
	defer memory.Destroy()
	defer buffer.Destroy()

	pool, err := p.Device.CreateCommandPool(p.GraphicsQueue.QueueFamily)
	if err != nil {
		return nil, p.fail(err)
	}
	defer pool.Destroy()
	cmd, err := pool.AllocateBuffer()
	if err != nil {
		return nil, p.fail(err)
	}

	to, from := readbackTransitions()
	if err := cmd.BeginOneTime(); err != nil {
		return nil, p.fail(err)
	}
	cmd.CmdLayoutTransition(img.VKImage, to)
	cmd.CmdCopyImageToBuffer(img.VKImage, img.Extent, buffer)
	cmd.CmdLayoutTransition(img.VKImage, from)
	if err := cmd.End(); err != nil {
		return nil, p.fail(err)
	}

	s := Submission{Buffers: []*CommandBuffer{cmd}, Fence: vk.NullFence}
	if p.sync.acquirePending {
		s.WaitSemaphores = []vk.Semaphore{p.sync.acquired}
		s.WaitStages = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)}
	}
	if err := p.GraphicsQueue.Submit(s); err != nil {
		return nil, p.fail(err)
	}
	p.sync.acquirePending = false
	if err := p.GraphicsQueue.WaitIdle(); err != nil {
		return nil, p.fail(err)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := memory.MapCopyOut(out.Pix); err != nil {
		return nil, p.fail(err)
	}
	if img.VKFormat == vk.FormatB8g8r8a8Unorm {
		swizzleBGRA(out.Pix)
	}
	return out, nil
}

// swizzleBGRA swaps the red and blue channels in place.
func swizzleBGRA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Destroy tears down the graphics application. Objects created through the
// frame interfaces have to be destroyed first.
func (p *GraphicsApp) Destroy() {
	if p.Device != nil {
		if err := p.Device.WaitIdle(); err != nil {
			frame.Logger().Warn("device wait idle failed during destroy", "err", err)
		}
		if p.PipelineCache != nil {
			p.PipelineCache.Destroy()
			p.PipelineCache = nil
		}
		if p.VKRenderPass != vk.NullRenderPass {
			vk.DestroyRenderPass(p.Device.VKDevice, p.VKRenderPass, nil)
			p.VKRenderPass = vk.NullRenderPass
		}
		p.destroySyncObjects()
		if p.Swapchain != nil {
			p.Swapchain.Destroy()
			p.Swapchain = nil
		}
		p.SwapchainImages = nil
		p.Device.Destroy()
		p.Device = nil
	}
	if p.Instance != nil {
		if p.VKSurface != vk.NullSurface {
			vk.DestroySurface(p.Instance.VKInstance, p.VKSurface, nil)
			p.VKSurface = vk.NullSurface
		}
		p.Instance.Destroy()
		p.Instance = nil
	}
}

var (
	_ frame.Device       = (*GraphicsApp)(nil)
	_ frame.SwapChain    = (*GraphicsApp)(nil)
	_ frame.BufferReader = (*GraphicsApp)(nil)
	_ frame.Fence        = (*Fence)(nil)
	_ frame.CommandList  = (*CommandList)(nil)
	_ frame.Queue        = (*graphicsQueue)(nil)
)
