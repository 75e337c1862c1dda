package frame

import (
	"context"
	"fmt"
	"image"
)

// Action is the outcome of draining the window's event queue.
type Action int

const (
	// Continue means the window is still open and another frame should be drawn
	Continue Action = iota
	// Quit means the window was asked to close
	Quit
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Quit:
		return "quit"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// EventPump drains pending window events.
type EventPump interface {
	PumpEvents() Action
}

// PumpFunc adapts a function to the EventPump interface.
type PumpFunc func() Action

// PumpEvents calls f.
func (f PumpFunc) PumpEvents() Action {
	return f()
}

// ResourceState is the usage role of a swap chain buffer.
type ResourceState int

const (
	// Presentable buffers may be handed to the presentation engine, all
	// swap chain buffers start in this state
	Presentable ResourceState = iota
	// RenderTarget buffers may be bound as output and cleared
	RenderTarget
)

func (s ResourceState) String() string {
	switch s {
	case Presentable:
		return "presentable"
	case RenderTarget:
		return "render-target"
	}
	return fmt.Sprintf("ResourceState(%d)", int(s))
}

// Topology is the primitive topology used by the input assembler.
type Topology int

const (
	TopologyUndefined Topology = iota
	TopologyTriangleList
)

// Resource is a backend owned GPU resource, such as a swap chain buffer.
type Resource interface{}

// Destroyer is implemented by every handle which owns backend objects.
type Destroyer interface {
	Destroy()
}

// RenderTargetView lets rendering commands write into one swap chain buffer.
type RenderTargetView interface {
	Destroyer
}

// RootSignature describes the resources bound to the pipeline. The root
// signature used here has no parameters.
type RootSignature interface {
	Destroyer
}

// PipelineState is a compiled graphics pipeline.
type PipelineState interface {
	Destroyer
}

// CommandList records GPU commands. Recording calls don't report errors,
// misuse is reported by Close.
type CommandList interface {
	// Reset releases the memory of the previous recording and starts a new
	// one, the GPU must be done with the previous recording
	Reset(initial PipelineState) error
	SetRootSignature(sig RootSignature)
	Barrier(res Resource, before, after ResourceState)
	SetRenderTarget(view RenderTargetView)
	Clear(view RenderTargetView, color Color)
	SetPrimitiveTopology(t Topology)
	// Close finishes recording, nothing may be recorded until the next Reset
	Close() error
	Destroy()
}

// Fence is a binary GPU to CPU completion signal.
type Fence interface {
	// Wait blocks until the fence is signaled or ctx is done
	Wait(ctx context.Context) error
	Reset() error
	Signaled() bool
	Destroy()
}

// Queue executes closed command lists asynchronously.
type Queue interface {
	// Submit hands lists to the GPU and returns without waiting, fence (if
	// not nil) is signaled once the lists have executed
	Submit(fence Fence, lists ...CommandList) error
	// WaitIdle blocks until everything submitted so far has executed
	WaitIdle(ctx context.Context) error
}

// Device creates the objects the frame loop works with.
type Device interface {
	CreateCommandList() (CommandList, error)
	CreateFence(signaled bool) (Fence, error)
	CreateRenderTargetView(res Resource) (RenderTargetView, error)
	CreateRootSignature() (RootSignature, error)
	CreatePipelineState(sig RootSignature, desc *PipelineDesc) (PipelineState, error)
	Queue() Queue
}

// SwapChain is the set of buffers presented to a window.
type SwapChain interface {
	BufferCount() int
	Buffer(index int) (Resource, error)
	// CurrentBackBufferIndex reports the buffer which will be presented next
	CurrentBackBufferIndex() int
	// Present queues the current back buffer for display and blocks for
	// syncInterval vertical blanks
	Present(syncInterval int) error
}

// BufferReader is implemented by swap chains which can copy a buffer back to
// host memory.
type BufferReader interface {
	ReadBuffer(ctx context.Context, index int) (*image.RGBA, error)
}
