package softgpu

import (
	"image"
	"sync/atomic"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

type opKind int

const (
	opBarrier opKind = iota
	opClear
)

type op struct {
	kind   opKind
	buf    *Buffer
	before frame.ResourceState
	after  frame.ResourceState
	color  frame.Color
}

// CommandList records operations for the execution goroutine. The list is
// its own allocator: Reset fails while a previous submission of it has not
// executed yet.
type CommandList struct {
	dev *Device

	ops       []op
	recording bool
	err       error
	inFlight  int32

	root     *RootSignature
	pipeline *PipelineState
	target   *View
	topology frame.Topology
}

// Reset starts a new recording.
func (c *CommandList) Reset(initial frame.PipelineState) error {
	if err := c.dev.Lost(); err != nil {
		return err
	}
	if n := atomic.LoadInt32(&c.inFlight); n > 0 {
		return errors.Wrapf(frame.ErrInvalidOperation, "reset of a command list with %d submissions still executing", n)
	}
	if c.recording {
		return errors.Wrap(frame.ErrInvalidOperation, "reset of a command list that was not closed")
	}

	c.ops = c.ops[:0]
	c.recording = true
	c.err = nil
	c.root = nil
	c.target = nil
	c.topology = frame.TopologyUndefined
	c.pipeline = nil

	if initial != nil {
		p, ok := initial.(*PipelineState)
		if !ok {
			c.fail(errors.Errorf("%T is not a pipeline state of this device", initial))
		}
		c.pipeline = p
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

func (c *CommandList) SetRootSignature(sig frame.RootSignature) {
	if !c.check("SetRootSignature") {
		return
	}
	r, ok := sig.(*RootSignature)
	if !ok {
		c.fail(errors.Errorf("%T is not a root signature of this device", sig))
		return
	}
	c.root = r
}

func (c *CommandList) Barrier(res frame.Resource, before, after frame.ResourceState) {
	if !c.check("Barrier") {
		return
	}
	buf, ok := res.(*Buffer)
	if !ok || buf.swap.dev != c.dev {
		c.fail(errors.Errorf("barrier on %T which is not a buffer of this device", res))
		return
	}
	if before == after {
		c.fail(errors.Errorf("barrier on buffer %d does not change its state", buf.index))
		return
	}
	c.ops = append(c.ops, op{kind: opBarrier, buf: buf, before: before, after: after})
}

func (c *CommandList) SetRenderTarget(view frame.RenderTargetView) {
	if !c.check("SetRenderTarget") {
		return
	}
	v, ok := view.(*View)
	if !ok || v.buf.swap.dev != c.dev {
		c.fail(errors.Errorf("%T is not a render target view of this device", view))
		return
	}
	c.target = v
}

func (c *CommandList) Clear(view frame.RenderTargetView, color frame.Color) {
	if !c.check("Clear") {
		return
	}
	v, ok := view.(*View)
	if !ok || v.buf.swap.dev != c.dev {
		c.fail(errors.Errorf("%T is not a render target view of this device", view))
		return
	}
	c.ops = append(c.ops, op{kind: opClear, buf: v.buf, color: color})
}

func (c *CommandList) SetPrimitiveTopology(t frame.Topology) {
	if !c.check("SetPrimitiveTopology") {
		return
	}
	c.topology = t
}

// Close ends the recording and reports the first recording error.
func (c *CommandList) Close() error {
	if !c.recording {
		return errors.Wrap(frame.ErrInvalidOperation, "close of a command list that is not recording")
	}
	c.recording = false
	return c.err
}

func (c *CommandList) Destroy() {}

// execute runs on the execution goroutine.
func (c *CommandList) execute() error {
	for _, o := range c.ops {
		switch o.kind {
		case opBarrier:
			if o.buf.state != o.before {
				return errors.Errorf("barrier %s -> %s on buffer %d which is %s",
					o.before, o.after, o.buf.index, o.buf.state)
			}
			o.buf.state = o.after
		case opClear:
			if o.buf.state != frame.RenderTarget {
				return errors.Errorf("clear of buffer %d which is %s", o.buf.index, o.buf.state)
			}
			draw.Draw(o.buf.img, o.buf.img.Bounds(), image.NewUniform(o.color.RGBA()), image.Point{}, draw.Src)
		}
	}
	return nil
}
