package vkclear

import (
	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
)

// submission identifies the fence a command list was last submitted with.
type submission struct {
	fence *Fence
	epoch int
}

// done reports whether the GPU finished the submission. A fence that was
// reset since can only have been reset after it signaled.
func (s submission) done() bool {
	return s.fence == nil || s.fence.epoch != s.epoch || s.fence.Signaled()
}

// CommandList is a command pool with one primary command buffer. The pool
// plays the role of the allocator, so Reset fails while the GPU may still
// execute the previous recording.
type CommandList struct {
	app    *GraphicsApp
	pool   *CommandPool
	buffer *CommandBuffer
	// done is signaled by submissions made without a fence
	done *Fence
	last submission

	recording bool
	err       error

	pipeline *GraphicsPipeline
	root     *PipelineLayout
	target   *RenderTargetView
	topology frame.Topology
}

// Reset resets the command pool and begins recording, binding initial when
// it is not nil.
func (c *CommandList) Reset(initial frame.PipelineState) error {
	if err := c.app.lost(); err != nil {
		return err
	}
	if c.recording {
		return errors.Wrap(frame.ErrInvalidOperation, "reset of a command list that was not closed")
	}
	if !c.last.done() {
		return errors.Wrap(frame.ErrInvalidOperation, "reset of a command list whose submission is still executing")
	}
	if err := c.pool.Reset(); err != nil {
		return c.app.fail(err)
	}
	if err := c.buffer.Begin(); err != nil {
		return c.app.fail(err)
	}

	c.recording = true
	c.err = nil
	c.root = nil
	c.target = nil
	c.topology = frame.TopologyUndefined
	c.pipeline = nil

	if initial != nil {
		p, ok := initial.(*GraphicsPipeline)
		if !ok || p.Device != c.app.Device {
			c.fail(errors.Errorf("%T is not a pipeline of this device", initial))
			return nil
		}
		c.pipeline = p
		c.buffer.CmdBindGraphicsPipeline(p.VKPipeline)
	}
	return nil
}

// fail records the first recording error, Close reports it.
func (c *CommandList) fail(err error) {
	if c.err == nil {
		c.err = errors.Wrap(frame.ErrInvalidOperation, err.Error())
	}
}

func (c *CommandList) check(cmd string) bool {
	if !c.recording {
		c.fail(errors.Errorf("%s on a closed command list", cmd))
		return false
	}
	return true
}

// SetRootSignature only remembers sig, nothing is bound without descriptor
// sets.
func (c *CommandList) SetRootSignature(sig frame.RootSignature) {
	if !c.check("SetRootSignature") {
		return
	}
	l, ok := sig.(*PipelineLayout)
	if !ok || l.Device != c.app.Device {
		c.fail(errors.Errorf("%T is not a pipeline layout of this device", sig))
		return
	}
	c.root = l
}

// Barrier records an image layout transition.
func (c *CommandList) Barrier(res frame.Resource, before, after frame.ResourceState) {
	if !c.check("Barrier") {
		return
	}
	img, ok := res.(*Image)
	if !ok || img.Device != c.app.Device {
		c.fail(errors.Errorf("barrier on %T which is not a swap chain image of this device", res))
		return
	}
	t, err := StateTransition(before, after, img.fresh)
	if err != nil {
		c.fail(err)
		return
	}
	c.buffer.CmdLayoutTransition(img.VKImage, t)
	img.fresh = false
}

// SetRenderTarget remembers view, the clear does not need a framebuffer.
func (c *CommandList) SetRenderTarget(view frame.RenderTargetView) {
	if !c.check("SetRenderTarget") {
		return
	}
	v, ok := view.(*RenderTargetView)
	if !ok || v.Image.Device != c.app.Device {
		c.fail(errors.Errorf("%T is not a render target view of this device", view))
		return
	}
	c.target = v
}

// Clear records vkCmdClearColorImage on the image of view.
func (c *CommandList) Clear(view frame.RenderTargetView, color frame.Color) {
	if !c.check("Clear") {
		return
	}
	v, ok := view.(*RenderTargetView)
	if !ok || v.Image.Device != c.app.Device {
		c.fail(errors.Errorf("%T is not a render target view of this device", view))
		return
	}
	c.buffer.CmdClearColorImage(v.Image.VKImage, color)
}

// SetPrimitiveTopology is baked into the pipeline in Vulkan, the list only
// remembers it.
func (c *CommandList) SetPrimitiveTopology(t frame.Topology) {
	if !c.check("SetPrimitiveTopology") {
		return
	}
	c.topology = t
}

// Close ends the command buffer and reports the first recording error.
func (c *CommandList) Close() error {
	if !c.recording {
		return errors.Wrap(frame.ErrInvalidOperation, "close of a command list that is not recording")
	}
	c.recording = false
	if err := c.buffer.End(); err != nil {
		return c.app.fail(err)
	}
	return c.err
}

// Destroy frees the pool and its buffer, the list must not be executing.
func (c *CommandList) Destroy() {
	c.pool.Destroy()
	c.done.Destroy()
}
