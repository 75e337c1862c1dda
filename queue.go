package vkclear

import (
	"context"
	"fmt"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return check(vk.QueueWaitIdle(q.VKQueue), "queue wait idle")
}

// Submission is one batch of command buffers with its semaphores.
type Submission struct {
	Buffers          []*CommandBuffer
	WaitSemaphores   []vk.Semaphore
	WaitStages       []vk.PipelineStageFlags
	SignalSemaphores []vk.Semaphore
	Fence            vk.Fence
}

func (q *Queue) Submit(s Submission) error {
	b := make([]vk.CommandBuffer, len(s.Buffers))
	for i := range s.Buffers {
		b[i] = s.Buffers[i].VKCommandBuffer
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(s.WaitSemaphores)),
		PWaitSemaphores:      s.WaitSemaphores,
		PWaitDstStageMask:    s.WaitStages,
		CommandBufferCount:   uint32(len(b)),
		PCommandBuffers:      b,
		SignalSemaphoreCount: uint32(len(s.SignalSemaphores)),
		PSignalSemaphores:    s.SignalSemaphores,
	}
	return check(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, s.Fence), "queue submit")
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}

// graphicsQueue is the frame view of the graphics queue. The first
// submission after an image was acquired waits for the acquisition, and one
// submission per image signals the semaphore its present waits on.
type graphicsQueue struct {
	app *GraphicsApp
}

func (q *graphicsQueue) Submit(fence frame.Fence, lists ...frame.CommandList) error {
	app := q.app
	if err := app.lost(); err != nil {
		return err
	}

	if len(lists) == 0 {
		return errors.Wrap(frame.ErrInvalidOperation, "submit without command lists")
	}
	s := Submission{}
	cls := make([]*CommandList, 0, len(lists))
	for _, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok || cl.app != app {
			return errors.Wrapf(frame.ErrInvalidOperation, "%T is not a command list of this device", l)
		}
		if cl.recording {
			return errors.Wrap(frame.ErrInvalidOperation, "submit of a command list that is still recording")
		}
		if !cl.last.done() {
			return errors.Wrap(frame.ErrInvalidOperation, "submit of a command list which is still executing")
		}
		cls = append(cls, cl)
		s.Buffers = append(s.Buffers, cl.buffer)
	}

	// without a fence the first list's own fence tracks the submission
	f := cls[0].done
	if fence != nil {
		var ok bool
		f, ok = fence.(*Fence)
		if !ok || f.Device != app.Device {
			return errors.Wrapf(frame.ErrInvalidOperation, "%T is not a fence of this device", fence)
		}
		if f.submitted {
			return errors.Wrap(frame.ErrInvalidOperation, "submit with a fence already in flight")
		}
	} else if f.submitted {
		if err := f.Reset(); err != nil {
			return app.fail(err)
		}
	}
	s.Fence = f.VKFence

	sync := &app.sync
	if sync.acquirePending {
		s.WaitSemaphores = []vk.Semaphore{sync.acquired}
		s.WaitStages = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)}
	}
	if !sync.renderSignaled {
		s.SignalSemaphores = []vk.Semaphore{sync.renderComplete[app.current]}
	}

	if err := app.GraphicsQueue.Submit(s); err != nil {
		return app.fail(err)
	}
	sync.acquirePending = false
	sync.renderSignaled = true
	f.submitted = true
	for _, cl := range cls {
		cl.last = submission{fence: f, epoch: f.epoch}
	}
	return nil
}

// WaitIdle waits for the graphics queue. Vulkan cannot cancel the wait, ctx
// is only checked before it starts.
func (q *graphicsQueue) WaitIdle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.app.fail(q.app.GraphicsQueue.WaitIdle())
}
