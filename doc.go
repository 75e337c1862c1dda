/*
Package vkclear is the Vulkan backend of the frame loop. It opens a glfw
window surface, creates a swap chain and implements the frame package
contracts on top of github.com/vulkan-go/vulkan, so that frame.Driver can
clear and present swap chain images without knowing about Vulkan.

Mapping of frame concepts onto Vulkan

	Device            GraphicsApp (logical device, graphics+present queue)
	SwapChain         GraphicsApp (VkSwapchainKHR, image acquisition)
	Queue             the graphics queue, waits on the acquire semaphore and
	                  signals a render complete semaphore per image
	CommandList       a command pool (the allocator) with one primary
	                  command buffer
	Fence             a binary VkFence
	RenderTargetView  a VkImageView of a swap chain image
	RootSignature     an empty VkPipelineLayout
	PipelineState     a graphics pipeline with a color only render pass

Resource states map to image layouts:

	Presentable   VK_IMAGE_LAYOUT_PRESENT_SRC_KHR
	RenderTarget  VK_IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL

The clear is recorded with vkCmdClearColorImage, so no render pass is begun
and the pipeline state is bound but never drawn with. The first barrier on
an image which was never presented uses VK_IMAGE_LAYOUT_UNDEFINED as the old
layout.

Present queues the current image and then acquires the next one, which makes
CurrentBackBufferIndex a plain query as the frame loop expects.

A typical program looks like

	glfw.Init()
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	vk.Init()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, _ := glfw.CreateWindow(800, 600, "DirectX12", nil, nil)

	app, _ := vkclear.NewGraphicsApp("clear", vkclear.DefaultOptions())
	app.SetWindow(window)
	app.Init()

	driver, _ := frame.Setup(app, app, frame.DefaultOptions())
	frame.Run(ctx, vkclear.WindowEvents{Window: window}, driver)

	driver.Destroy(ctx)
	app.Destroy()
*/
package vkclear
