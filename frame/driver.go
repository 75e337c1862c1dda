package frame

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SyncMode selects how the CPU waits for the GPU before reusing a command
// list.
type SyncMode int

const (
	// SyncPerFrame keeps one command list and fence per swap chain buffer,
	// selected by the frame index
	SyncPerFrame SyncMode = iota
	// SyncFlush keeps a single command list and waits for its fence before
	// every reset
	SyncFlush
	// SyncNone keeps a single command list and never waits. The GPU may
	// still be reading the list when it is reset, which backends with
	// validation report as an invalid operation.
	SyncNone
)

var syncModeNames = map[SyncMode]string{
	SyncPerFrame: "per-frame",
	SyncFlush:    "flush",
	SyncNone:     "unsynchronized",
}

func (m SyncMode) String() string {
	if s, ok := syncModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SyncMode(%d)", int(m))
}

// ParseSyncMode parses the name returned by SyncMode.String.
func ParseSyncMode(s string) (SyncMode, error) {
	for m, name := range syncModeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown sync mode %q", s)
}

// Options configures the frame loop.
type Options struct {
	ClearColor   Color
	SyncInterval int
	Sync         SyncMode

	// Pipeline is created at setup and bound on every reset, nil skips it
	Pipeline *PipelineDesc
}

// DefaultOptions clears to DefaultClearColor and waits one vertical blank
// per present.
func DefaultOptions() Options {
	return Options{
		ClearColor:   DefaultClearColor,
		SyncInterval: 1,
		Sync:         SyncPerFrame,
	}
}

type recorder struct {
	list    CommandList
	fence   Fence
	pending bool
}

// Stats describes the progress of a Driver.
type Stats struct {
	Frames        uint64
	LastPresented int
	FrameIndex    int
}

// Driver records, submits and presents one frame per RenderFrame call. It is
// not safe for concurrent use.
type Driver struct {
	device Device
	queue  Queue
	swap   SwapChain
	opts   Options

	targets   *RenderTargets
	states    *StateTracker
	root      RootSignature
	pipeline  PipelineState
	recorders []*recorder

	frameIndex    int
	frames        uint64
	lastPresented int
	err           error

	// OnPresent is called after every successful present with the index
	// that was presented and the index reported for the next frame
	OnPresent func(presented, next int)
}

// Setup creates everything the frame loop needs from dev and swap.
func Setup(dev Device, swap SwapChain, opts Options) (*Driver, error) {
	d := &Driver{
		device:        dev,
		queue:         dev.Queue(),
		swap:          swap,
		opts:          opts,
		lastPresented: -1,
	}
	if err := d.setup(); err != nil {
		d.release()
		return nil, Fail("setup", err)
	}
	Logger().Info("frame loop ready",
		"buffers", d.targets.Len(),
		"sync", opts.Sync.String(),
		"syncInterval", opts.SyncInterval,
		"pipeline", d.pipeline != nil)
	return d, nil
}

func (d *Driver) setup() error {
	if d.opts.SyncInterval < 0 || d.opts.SyncInterval > 4 {
		return errors.Wrapf(ErrInvalidOperation, "sync interval %d outside [0, 4]", d.opts.SyncInterval)
	}

	var err error
	d.targets, err = NewRenderTargets(d.device, d.swap)
	if err != nil {
		return err
	}
	d.states = NewStateTracker(d.targets.Len())

	d.root, err = d.device.CreateRootSignature()
	if err != nil {
		return errors.Wrap(err, "root signature")
	}

	if d.opts.Pipeline != nil {
		if err := d.opts.Pipeline.Validate(); err != nil {
			return errors.Wrap(err, "pipeline")
		}
		d.pipeline, err = d.device.CreatePipelineState(d.root, d.opts.Pipeline)
		if err != nil {
			return errors.Wrap(err, "pipeline")
		}
	}

	n := 1
	if d.opts.Sync == SyncPerFrame {
		n = d.targets.Len()
	}
	for i := 0; i < n; i++ {
		r := &recorder{}
		r.list, err = d.device.CreateCommandList()
		if err != nil {
			return errors.Wrapf(err, "command list %d", i)
		}
		d.recorders = append(d.recorders, r)
		if d.opts.Sync == SyncNone {
			continue
		}
		r.fence, err = d.device.CreateFence(true)
		if err != nil {
			return errors.Wrapf(err, "fence %d", i)
		}
	}

	d.frameIndex = d.swap.CurrentBackBufferIndex()
	if d.frameIndex < 0 || d.frameIndex >= d.targets.Len() {
		return errors.Wrapf(ErrInvalidOperation, "swap chain reports back buffer %d of %d", d.frameIndex, d.targets.Len())
	}
	return nil
}

// FrameIndex returns the buffer the next frame will render into.
func (d *Driver) FrameIndex() int {
	return d.frameIndex
}

// BufferState returns the tracked state of a swap chain buffer.
func (d *Driver) BufferState(index int) ResourceState {
	return d.states.State(index)
}

// Stats returns the progress so far.
func (d *Driver) Stats() Stats {
	return Stats{Frames: d.frames, LastPresented: d.lastPresented, FrameIndex: d.frameIndex}
}

// Err returns the error which stopped the driver, if any.
func (d *Driver) Err() error {
	return d.err
}

// RenderFrame clears and presents the current back buffer. After the first
// error every call returns that error.
func (d *Driver) RenderFrame(ctx context.Context) error {
	if d.err != nil {
		return d.err
	}
	if err := d.renderFrame(ctx, d.frameIndex); err != nil {
		d.err = err
		return err
	}
	return nil
}

func (d *Driver) recorderFor(index int) *recorder {
	if len(d.recorders) == 1 {
		return d.recorders[0]
	}
	return d.recorders[index]
}

func (d *Driver) renderFrame(ctx context.Context, i int) error {
	if cur := d.swap.CurrentBackBufferIndex(); cur != i {
		return opError("select buffer", i, errors.Wrapf(ErrInvalidOperation, "swap chain is at buffer %d", cur))
	}
	res, view, err := d.targets.At(i)
	if err != nil {
		return opError("select buffer", i, err)
	}

	r := d.recorderFor(i)
	if r.fence != nil {
		if err := r.fence.Wait(ctx); err != nil {
			return opError("wait", i, err)
		}
		r.pending = false
		if err := r.fence.Reset(); err != nil {
			return opError("reset fence", i, err)
		}
	}

	list := r.list
	if err := list.Reset(d.pipeline); err != nil {
		return opError("reset", i, err)
	}

	list.SetRootSignature(d.root)

	if err := d.states.Transition(i, Presentable, RenderTarget); err != nil {
		return opError("barrier", i, err)
	}
	list.Barrier(res, Presentable, RenderTarget)

	list.SetRenderTarget(view)
	list.Clear(view, d.opts.ClearColor)
	list.SetPrimitiveTopology(TopologyTriangleList)

	if err := d.states.Transition(i, RenderTarget, Presentable); err != nil {
		return opError("barrier", i, err)
	}
	list.Barrier(res, RenderTarget, Presentable)

	if err := list.Close(); err != nil {
		return opError("close", i, err)
	}

	if err := d.queue.Submit(r.fence, list); err != nil {
		return opError("submit", i, err)
	}
	r.pending = r.fence != nil

	if err := d.swap.Present(d.opts.SyncInterval); err != nil {
		return opError("present", i, err)
	}

	next := d.swap.CurrentBackBufferIndex()
	if next < 0 || next >= d.targets.Len() {
		return opError("present", i, errors.Wrapf(ErrInvalidOperation, "swap chain reports back buffer %d of %d", next, d.targets.Len()))
	}

	d.frames++
	d.lastPresented = i
	d.frameIndex = next
	Logger().Debug("frame presented", "frame", d.frames, "buffer", i, "next", next)

	if d.OnPresent != nil {
		d.OnPresent(i, next)
	}
	return nil
}

// Destroy waits for the GPU to finish and releases everything Setup created.
func (d *Driver) Destroy(ctx context.Context) error {
	err := d.queue.WaitIdle(ctx)
	if err == nil {
		for _, r := range d.recorders {
			if r.pending {
				if werr := r.fence.Wait(ctx); werr != nil {
					err = werr
					break
				}
				r.pending = false
			}
		}
	}
	d.release()
	Logger().Info("frame loop destroyed", "frames", d.frames)
	if err != nil {
		return Fail("destroy", err)
	}
	return nil
}

func (d *Driver) release() {
	for _, r := range d.recorders {
		if r.list != nil {
			r.list.Destroy()
		}
		if r.fence != nil {
			r.fence.Destroy()
		}
	}
	d.recorders = nil
	if d.pipeline != nil {
		d.pipeline.Destroy()
		d.pipeline = nil
	}
	if d.root != nil {
		d.root.Destroy()
		d.root = nil
	}
	if d.targets != nil {
		d.targets.Destroy()
	}
}
