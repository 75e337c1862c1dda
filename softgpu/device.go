// Package softgpu is a software implementation of the frame backend
// contracts. Submitted command lists execute on a separate goroutine after a
// configurable latency, swap chain buffers are plain RGBA images, and the
// device validates resource states the way a debug layer would: a barrier or
// present on a buffer in the wrong state removes the device.
package softgpu

import (
	"sync"
	"time"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
)

// Faults injects failures, counts are 1-based and zero disables a fault.
type Faults struct {
	DeviceLostOnSubmit  int
	DeviceLostOnPresent int
}

// Options configures a software device and its swap chain.
type Options struct {
	Width       int
	Height      int
	BufferCount int

	// Latency is how long the GPU takes to execute one submission
	Latency time.Duration
	// Refresh is the display refresh period, Present blocks until the
	// syncInterval-th refresh after the call. Zero never blocks.
	Refresh time.Duration

	Faults Faults
}

// DefaultOptions is an 800x600 triple buffered swap chain with no latency
// and no vsync.
func DefaultOptions() Options {
	return Options{
		Width:       800,
		Height:      600,
		BufferCount: 3,
	}
}

// Device is a software GPU.
type Device struct {
	opts  Options
	queue *Queue

	lostOnce sync.Once
	lost     chan struct{}
	lostErr  error

	mu      sync.Mutex
	submits int
}

// New creates a device and its swap chain. Close the device to stop its
// execution goroutine.
func New(opts Options) (*Device, *SwapChain, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, nil, errors.Wrapf(frame.ErrInvalidOperation, "invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.BufferCount < 2 {
		return nil, nil, errors.Wrapf(frame.ErrInvalidOperation, "flip model needs at least 2 buffers, got %d", opts.BufferCount)
	}

	d := &Device{
		opts: opts,
		lost: make(chan struct{}),
	}
	d.queue = newQueue(d)
	s := newSwapChain(d, opts)

	frame.Logger().Info("software device created",
		"width", opts.Width,
		"height", opts.Height,
		"buffers", opts.BufferCount,
		"latency", opts.Latency,
		"refresh", opts.Refresh)
	return d, s, nil
}

// Close stops the execution goroutine once the queued work has run.
func (d *Device) Close() {
	d.queue.close()
}

// Lost returns the reason the device was removed, or nil.
func (d *Device) Lost() error {
	select {
	case <-d.lost:
		return d.lostErr
	default:
		return nil
	}
}

func (d *Device) markLost(reason error) {
	d.lostOnce.Do(func() {
		d.lostErr = errors.Wrap(frame.ErrDeviceLost, reason.Error())
		close(d.lost)
		frame.Logger().Warn("software device removed", "reason", reason.Error())
	})
}

// Queue returns the device's only queue.
func (d *Device) Queue() frame.Queue {
	return d.queue
}

// CreateCommandList creates a closed command list with its own allocator.
func (d *Device) CreateCommandList() (frame.CommandList, error) {
	if err := d.Lost(); err != nil {
		return nil, err
	}
	return &CommandList{dev: d}, nil
}

// CreateFence creates a fence, optionally already signaled.
func (d *Device) CreateFence(signaled bool) (frame.Fence, error) {
	if err := d.Lost(); err != nil {
		return nil, err
	}
	f := &Fence{dev: d, ch: make(chan struct{})}
	if signaled {
		f.signaled = true
		close(f.ch)
	}
	return f, nil
}

// View is a render target view of one swap chain buffer.
type View struct {
	buf *Buffer
}

func (v *View) Destroy() {}

// CreateRenderTargetView creates a view of a swap chain buffer of this
// device.
func (d *Device) CreateRenderTargetView(res frame.Resource) (frame.RenderTargetView, error) {
	buf, ok := res.(*Buffer)
	if !ok || buf.swap.dev != d {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "%T is not a buffer of this device", res)
	}
	return &View{buf: buf}, nil
}

// RootSignature is an empty root signature.
type RootSignature struct{}

func (r *RootSignature) Destroy() {}

// CreateRootSignature creates a root signature with no parameters.
func (d *Device) CreateRootSignature() (frame.RootSignature, error) {
	if err := d.Lost(); err != nil {
		return nil, err
	}
	return &RootSignature{}, nil
}

// PipelineState keeps the description it was created from.
type PipelineState struct {
	Desc frame.PipelineDesc
}

func (p *PipelineState) Destroy() {}

// CreatePipelineState validates desc, nothing is compiled.
func (d *Device) CreatePipelineState(sig frame.RootSignature, desc *frame.PipelineDesc) (frame.PipelineState, error) {
	if _, ok := sig.(*RootSignature); !ok {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "%T is not a root signature of this device", sig)
	}
	if desc == nil {
		return nil, errors.Wrap(frame.ErrInvalidOperation, "nil pipeline description")
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &PipelineState{Desc: *desc}, nil
}

var (
	_ frame.Device       = (*Device)(nil)
	_ frame.Queue        = (*Queue)(nil)
	_ frame.Fence        = (*Fence)(nil)
	_ frame.CommandList  = (*CommandList)(nil)
	_ frame.SwapChain    = (*SwapChain)(nil)
	_ frame.BufferReader = (*SwapChain)(nil)
)
