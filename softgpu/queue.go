package softgpu

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
)

const queueDepth = 64

// Queue executes jobs in submission order on its own goroutine.
type Queue struct {
	dev  *Device
	work chan func()
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newQueue(d *Device) *Queue {
	q := &Queue{
		dev:  d,
		work: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.work {
		job()
	}
}

func (q *Queue) enqueue(job func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.Wrap(frame.ErrInvalidOperation, "device closed")
	}
	q.work <- job
	return nil
}

func (q *Queue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.work)
	}
	q.mu.Unlock()
	<-q.done
}

// Submit queues closed command lists for execution and signals fence once
// they ran.
func (q *Queue) Submit(fence frame.Fence, lists ...frame.CommandList) error {
	d := q.dev
	if err := d.Lost(); err != nil {
		return err
	}

	d.mu.Lock()
	d.submits++
	n := d.submits
	d.mu.Unlock()
	if n == d.opts.Faults.DeviceLostOnSubmit {
		d.markLost(errors.Errorf("injected fault on submit %d", n))
		return d.Lost()
	}

	cls := make([]*CommandList, len(lists))
	for i, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok || cl.dev != d {
			return errors.Wrapf(frame.ErrInvalidOperation, "%T is not a command list of this device", l)
		}
		if cl.recording {
			return errors.Wrap(frame.ErrInvalidOperation, "submit of a command list that is still recording")
		}
		cls[i] = cl
	}

	var f *Fence
	if fence != nil {
		var ok bool
		f, ok = fence.(*Fence)
		if !ok || f.dev != d {
			return errors.Wrapf(frame.ErrInvalidOperation, "%T is not a fence of this device", fence)
		}
		if err := f.arm(); err != nil {
			return err
		}
	}

	for _, cl := range cls {
		atomic.AddInt32(&cl.inFlight, 1)
	}

	return q.enqueue(func() {
		if d.opts.Latency > 0 {
			time.Sleep(d.opts.Latency)
		}
		for _, cl := range cls {
			if d.Lost() == nil {
				if err := cl.execute(); err != nil {
					d.markLost(err)
				}
			}
			atomic.AddInt32(&cl.inFlight, -1)
		}
		if f != nil && d.Lost() == nil {
			f.signal()
		}
	})
}

// WaitIdle blocks until every job queued so far has run.
func (q *Queue) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	if err := q.enqueue(func() { close(idle) }); err != nil {
		return err
	}
	select {
	case <-idle:
		return q.dev.Lost()
	case <-q.dev.lost:
		return q.dev.Lost()
	case <-ctx.Done():
		return ctx.Err()
	}
}
