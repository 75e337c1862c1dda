package softgpu

import (
	"context"
	"testing"
	"time"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, opts Options) (*Device, *SwapChain) {
	t.Helper()
	d, s, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Destroy()
		d.Close()
	})
	return d, s
}

func record(t *testing.T, d *Device, fn func(l frame.CommandList)) *CommandList {
	t.Helper()
	l, err := d.CreateCommandList()
	require.NoError(t, err)
	require.NoError(t, l.Reset(nil))
	fn(l)
	require.NoError(t, l.Close())
	return l.(*CommandList)
}

func TestNewValidatesOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.BufferCount = 1
	_, _, err := New(opts)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))

	opts = DefaultOptions()
	opts.Width = 0
	_, _, err = New(opts)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
}

func TestFence(t *testing.T) {
	d, _ := newTestDevice(t, DefaultOptions())
	ctx := context.Background()

	f, err := d.CreateFence(false)
	require.NoError(t, err)
	assert.False(t, f.Signaled())
	assert.True(t, errors.Is(f.Wait(ctx), frame.ErrInvalidOperation), "wait without submit would block forever")

	signaled, err := d.CreateFence(true)
	require.NoError(t, err)
	assert.True(t, signaled.Signaled())
	assert.NoError(t, signaled.Wait(ctx))
	assert.True(t, errors.Is(d.Queue().Submit(signaled), frame.ErrInvalidOperation))

	require.NoError(t, d.Queue().Submit(f))
	assert.True(t, errors.Is(d.Queue().Submit(f), frame.ErrInvalidOperation))
	require.NoError(t, f.Wait(ctx))
	assert.True(t, f.Signaled())

	require.NoError(t, f.Reset())
	assert.False(t, f.Signaled())
}

func TestFenceWaitHonorsContext(t *testing.T) {
	opts := DefaultOptions()
	opts.Latency = time.Second
	d, _ := newTestDevice(t, opts)

	f, err := d.CreateFence(false)
	require.NoError(t, err)
	require.NoError(t, d.Queue().Submit(f))
	assert.True(t, errors.Is(f.Reset(), frame.ErrInvalidOperation))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.Wait(ctx), context.DeadlineExceeded)
}

func TestCommandListLifecycle(t *testing.T) {
	d, s := newTestDevice(t, DefaultOptions())

	l, err := d.CreateCommandList()
	require.NoError(t, err)
	assert.True(t, errors.Is(l.Close(), frame.ErrInvalidOperation), "a new list is closed")

	require.NoError(t, l.Reset(nil))
	assert.True(t, errors.Is(l.Reset(nil), frame.ErrInvalidOperation), "reset while recording")

	buf, err := s.Buffer(0)
	require.NoError(t, err)
	l.Barrier(buf, frame.Presentable, frame.Presentable)
	assert.True(t, errors.Is(l.Close(), frame.ErrInvalidOperation))

	require.NoError(t, l.Reset(nil))
	l.Barrier(buf, frame.Presentable, frame.RenderTarget)
	require.NoError(t, l.Close())

	l.SetPrimitiveTopology(frame.TopologyTriangleList)
	require.NoError(t, l.Reset(nil))
	require.NoError(t, l.Close())
}

func TestResetWhileExecuting(t *testing.T) {
	opts := DefaultOptions()
	opts.Latency = 50 * time.Millisecond
	d, _ := newTestDevice(t, opts)

	l := record(t, d, func(frame.CommandList) {})
	require.NoError(t, d.Queue().Submit(nil, l))
	err := l.Reset(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
	assert.Contains(t, err.Error(), "still executing")

	require.NoError(t, d.Queue().WaitIdle(context.Background()))
	assert.NoError(t, l.Reset(nil))
}

func TestSubmitRecordingList(t *testing.T) {
	d, _ := newTestDevice(t, DefaultOptions())
	l, err := d.CreateCommandList()
	require.NoError(t, err)
	require.NoError(t, l.Reset(nil))
	assert.True(t, errors.Is(d.Queue().Submit(nil, l), frame.ErrInvalidOperation))
}

func TestClearAndReadBack(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 4, 4
	d, s := newTestDevice(t, opts)
	ctx := context.Background()

	buf, err := s.Buffer(1)
	require.NoError(t, err)
	view, err := d.CreateRenderTargetView(buf)
	require.NoError(t, err)

	red := frame.Color{1, 0, 0, 1}
	l := record(t, d, func(l frame.CommandList) {
		l.Barrier(buf, frame.Presentable, frame.RenderTarget)
		l.SetRenderTarget(view)
		l.Clear(view, red)
		l.Barrier(buf, frame.RenderTarget, frame.Presentable)
	})
	require.NoError(t, d.Queue().Submit(nil, l))

	img, err := s.ReadBuffer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, red.RGBA(), img.RGBAAt(3, 3))

	img, err = s.ReadBuffer(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).A)

	_, err = s.ReadBuffer(ctx, 3)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
	assert.NoError(t, d.Lost())
}

func TestBadBarrierRemovesDevice(t *testing.T) {
	d, s := newTestDevice(t, DefaultOptions())
	buf, err := s.Buffer(0)
	require.NoError(t, err)

	l := record(t, d, func(l frame.CommandList) {
		l.Barrier(buf, frame.RenderTarget, frame.Presentable)
	})
	f, err := d.CreateFence(false)
	require.NoError(t, err)
	require.NoError(t, d.Queue().Submit(f, l))

	err = f.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrDeviceLost))
	assert.True(t, errors.Is(d.Queue().Submit(nil), frame.ErrDeviceLost))
	_, err = d.CreateCommandList()
	assert.True(t, errors.Is(err, frame.ErrDeviceLost))
}

func TestClearOutsideRenderTargetRemovesDevice(t *testing.T) {
	d, s := newTestDevice(t, DefaultOptions())
	buf, err := s.Buffer(0)
	require.NoError(t, err)
	view, err := d.CreateRenderTargetView(buf)
	require.NoError(t, err)

	l := record(t, d, func(l frame.CommandList) {
		l.Clear(view, frame.DefaultClearColor)
	})
	require.NoError(t, d.Queue().Submit(nil, l))
	assert.True(t, errors.Is(d.Queue().WaitIdle(context.Background()), frame.ErrDeviceLost))
}

func TestPresentOfRenderTargetRemovesDevice(t *testing.T) {
	d, s := newTestDevice(t, DefaultOptions())
	buf, err := s.Buffer(0)
	require.NoError(t, err)

	l := record(t, d, func(l frame.CommandList) {
		l.Barrier(buf, frame.Presentable, frame.RenderTarget)
	})
	require.NoError(t, d.Queue().Submit(nil, l))
	require.NoError(t, s.Present(0))
	assert.Equal(t, 1, s.CurrentBackBufferIndex())

	assert.True(t, errors.Is(d.Queue().WaitIdle(context.Background()), frame.ErrDeviceLost))
	assert.Empty(t, s.Presented())
}

func TestPresentFlipsBuffers(t *testing.T) {
	opts := DefaultOptions()
	opts.BufferCount = 2
	opts.Refresh = time.Millisecond
	d, s := newTestDevice(t, opts)

	for i := 0; i < 4; i++ {
		assert.Equal(t, i%2, s.CurrentBackBufferIndex())
		require.NoError(t, s.Present(1))
	}
	require.NoError(t, d.Queue().WaitIdle(context.Background()))
	assert.Equal(t, []int{0, 1, 0, 1}, s.Presented())
}

func TestPresentWaitsForNextRefresh(t *testing.T) {
	opts := DefaultOptions()
	opts.Refresh = 50 * time.Millisecond
	_, s := newTestDevice(t, opts)

	timed := func(interval int) time.Duration {
		start := time.Now()
		require.NoError(t, s.Present(interval))
		return time.Since(start)
	}

	// a present issued 20ms after the second refresh waits for the third
	s.start = time.Now().Add(-120 * time.Millisecond)
	late := timed(1)
	assert.GreaterOrEqual(t, late, 20*time.Millisecond)
	assert.Less(t, late, 70*time.Millisecond)

	assert.GreaterOrEqual(t, timed(1), 35*time.Millisecond)
	assert.GreaterOrEqual(t, timed(2), 85*time.Millisecond)
	assert.Less(t, timed(0), 10*time.Millisecond)
}

func TestForeignObjectsAreRejected(t *testing.T) {
	d, _ := newTestDevice(t, DefaultOptions())
	other, otherSwap := newTestDevice(t, DefaultOptions())

	buf, err := otherSwap.Buffer(0)
	require.NoError(t, err)
	_, err = d.CreateRenderTargetView(buf)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))

	l := record(t, other, func(frame.CommandList) {})
	assert.True(t, errors.Is(d.Queue().Submit(nil, l), frame.ErrInvalidOperation))

	_, err = d.CreatePipelineState(&RootSignature{}, nil)
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
}
