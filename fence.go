package vkclear

import (
	"context"
	"time"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// fenceWaitSlice bounds a single vkWaitForFences call so that Wait notices a
// cancelled context.
const fenceWaitSlice = 100 * time.Millisecond

// Fence is a binary fence signaled by the GPU when a submission completes.
type Fence struct {
	Device  *Device
	VKFence vk.Fence

	// submitted is set between a submit and the next Reset
	submitted bool
	// epoch counts resets, a command list remembers it to tell whether its
	// submission has completed after the fence was reused
	epoch int
}

// CreateFence creates a fence, optionally already signaled.
func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := check(vk.CreateFence(d.VKDevice, &createInfo, nil, &fence), "create fence"); err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// Signaled reports whether the fence is signaled.
func (f *Fence) Signaled() bool {
	return vk.GetFenceStatus(f.Device.VKDevice, f.VKFence) == vk.Success
}

// Wait blocks until the fence is signaled or ctx is done.
func (f *Fence) Wait(ctx context.Context) error {
	if f.Signaled() {
		return nil
	}
	if !f.submitted {
		return errors.Wrap(frame.ErrInvalidOperation, "wait on a fence that was never submitted")
	}
	fences := []vk.Fence{f.VKFence}
	for {
		res := vk.WaitForFences(f.Device.VKDevice, 1, fences, vk.True, uint64(fenceWaitSlice.Nanoseconds()))
		if res != vk.Timeout {
			return check(res, "wait for fence")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		frame.Logger().Debug("still waiting for fence", "slice", fenceWaitSlice)
	}
}

// Reset unsignals the fence, it must not be in flight.
func (f *Fence) Reset() error {
	if f.submitted && !f.Signaled() {
		return errors.Wrap(frame.ErrInvalidOperation, "reset of a fence in flight")
	}
	if err := check(vk.ResetFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}), "reset fence"); err != nil {
		return err
	}
	f.submitted = false
	f.epoch++
	return nil
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
