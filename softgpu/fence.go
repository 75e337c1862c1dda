package softgpu

import (
	"context"
	"sync"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
)

// Fence is a binary fence signaled by the execution goroutine.
type Fence struct {
	dev *Device

	mu       sync.Mutex
	signaled bool
	inFlight bool
	ch       chan struct{}
}

// arm marks the fence as part of a submission, it has to be unsignaled.
func (f *Fence) arm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signaled {
		return errors.Wrap(frame.ErrInvalidOperation, "submit with a signaled fence")
	}
	if f.inFlight {
		return errors.Wrap(frame.ErrInvalidOperation, "submit with a fence already in flight")
	}
	f.inFlight = true
	return nil
}

func (f *Fence) signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.signaled {
		f.signaled = true
		f.inFlight = false
		close(f.ch)
	}
}

// Signaled reports whether the fence is signaled.
func (f *Fence) Signaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signaled
}

// Wait blocks until the fence is signaled, the device is lost or ctx is
// done.
func (f *Fence) Wait(ctx context.Context) error {
	f.mu.Lock()
	signaled, inFlight, ch := f.signaled, f.inFlight, f.ch
	f.mu.Unlock()

	if signaled {
		return nil
	}
	if !inFlight {
		return errors.Wrap(frame.ErrInvalidOperation, "wait on a fence that was never submitted")
	}
	select {
	case <-ch:
		return nil
	case <-f.dev.lost:
		return f.dev.Lost()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset unsignals the fence.
func (f *Fence) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return errors.Wrap(frame.ErrInvalidOperation, "reset of a fence in flight")
	}
	if f.signaled {
		f.signaled = false
		f.ch = make(chan struct{})
	}
	return nil
}

func (f *Fence) Destroy() {}
