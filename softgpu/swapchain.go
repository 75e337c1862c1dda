package softgpu

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
)

// Buffer is one image of the swap chain. Its state is only touched by the
// execution goroutine.
type Buffer struct {
	swap  *SwapChain
	index int
	img   *image.RGBA
	state frame.ResourceState
}

// Index returns the position of the buffer in its swap chain.
func (b *Buffer) Index() int {
	return b.index
}

// SwapChain is a flip model swap chain: after every present the next buffer
// in order becomes the back buffer.
type SwapChain struct {
	dev     *Device
	buffers []*Buffer
	current int

	presents int
	// refreshes happen every refresh period counted from start
	refresh time.Duration
	start   time.Time

	mu        sync.Mutex
	presented []int
}

func newSwapChain(d *Device, opts Options) *SwapChain {
	s := &SwapChain{dev: d, refresh: opts.Refresh, start: time.Now()}
	for i := 0; i < opts.BufferCount; i++ {
		s.buffers = append(s.buffers, &Buffer{
			swap:  s,
			index: i,
			img:   image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
			state: frame.Presentable,
		})
	}
	return s
}

// BufferCount returns the number of buffers.
func (s *SwapChain) BufferCount() int {
	return len(s.buffers)
}

// Buffer returns buffer index.
func (s *SwapChain) Buffer(index int) (frame.Resource, error) {
	if index < 0 || index >= len(s.buffers) {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "buffer %d out of range [0, %d)", index, len(s.buffers))
	}
	return s.buffers[index], nil
}

// CurrentBackBufferIndex returns the buffer the next frame renders into.
func (s *SwapChain) CurrentBackBufferIndex() int {
	return s.current
}

// Present queues the back buffer for display after the work submitted so
// far, flips to the next buffer and waits syncInterval refresh periods.
func (s *SwapChain) Present(syncInterval int) error {
	d := s.dev
	if err := d.Lost(); err != nil {
		return err
	}
	s.presents++
	if s.presents == d.opts.Faults.DeviceLostOnPresent {
		d.markLost(errors.Errorf("injected fault on present %d", s.presents))
		return d.Lost()
	}

	buf := s.buffers[s.current]
	err := d.queue.enqueue(func() {
		if d.Lost() != nil {
			return
		}
		if buf.state != frame.Presentable {
			d.markLost(errors.Errorf("present of buffer %d which is %s", buf.index, buf.state))
			return
		}
		s.mu.Lock()
		s.presented = append(s.presented, buf.index)
		s.mu.Unlock()
	})
	if err != nil {
		return err
	}
	s.current = (s.current + 1) % len(s.buffers)

	s.waitRefresh(syncInterval)
	return nil
}

// waitRefresh sleeps until the n-th refresh boundary after now. A present
// issued late waits for the next boundary, not for one already passed.
func (s *SwapChain) waitRefresh(n int) {
	if s.refresh <= 0 || n <= 0 {
		return
	}
	elapsed := time.Since(s.start)
	next := (elapsed/s.refresh + time.Duration(n)) * s.refresh
	time.Sleep(next - elapsed)
}

// Presented returns the buffer indices the execution goroutine has presented
// so far, in order.
func (s *SwapChain) Presented() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.presented...)
}

// ReadBuffer copies buffer index once the work submitted so far has run.
func (s *SwapChain) ReadBuffer(ctx context.Context, index int) (*image.RGBA, error) {
	if index < 0 || index >= len(s.buffers) {
		return nil, errors.Wrapf(frame.ErrInvalidOperation, "buffer %d out of range [0, %d)", index, len(s.buffers))
	}
	out := make(chan *image.RGBA, 1)
	err := s.dev.queue.enqueue(func() {
		src := s.buffers[index].img
		dst := image.NewRGBA(src.Bounds())
		copy(dst.Pix, src.Pix)
		out <- dst
	})
	if err != nil {
		return nil, err
	}
	select {
	case img := <-out:
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Destroy releases nothing, the buffers are garbage collected.
func (s *SwapChain) Destroy() {}
