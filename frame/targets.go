package frame

import (
	"github.com/pkg/errors"
)

// RenderTargets holds one view per swap chain buffer, indexed by buffer
// index.
type RenderTargets struct {
	buffers []Resource
	views   []RenderTargetView
}

// NewRenderTargets creates a view for every buffer of the swap chain.
func NewRenderTargets(dev Device, swap SwapChain) (*RenderTargets, error) {
	n := swap.BufferCount()
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidOperation, "swap chain reports %d buffers", n)
	}

	t := &RenderTargets{
		buffers: make([]Resource, 0, n),
		views:   make([]RenderTargetView, 0, n),
	}
	for i := 0; i < n; i++ {
		res, err := swap.Buffer(i)
		if err != nil {
			t.Destroy()
			return nil, errors.Wrapf(err, "swap chain buffer %d", i)
		}
		view, err := dev.CreateRenderTargetView(res)
		if err != nil {
			t.Destroy()
			return nil, errors.Wrapf(err, "render target view %d", i)
		}
		t.buffers = append(t.buffers, res)
		t.views = append(t.views, view)
	}
	return t, nil
}

// Len returns the number of buffers.
func (t *RenderTargets) Len() int {
	return len(t.views)
}

// At returns the buffer and its view for index.
func (t *RenderTargets) At(index int) (Resource, RenderTargetView, error) {
	if index < 0 || index >= len(t.views) {
		return nil, nil, errors.Wrapf(ErrInvalidOperation, "buffer index %d out of range [0, %d)", index, len(t.views))
	}
	return t.buffers[index], t.views[index], nil
}

// Destroy releases the views, the buffers belong to the swap chain.
func (t *RenderTargets) Destroy() {
	for _, v := range t.views {
		v.Destroy()
	}
	t.views = nil
	t.buffers = nil
}
