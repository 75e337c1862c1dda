package frame

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fakes below log every backend call so the recorded order can be
// checked without a GPU.

type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type fakeHandle struct {
	log  *callLog
	name string
}

func (h *fakeHandle) Destroy() { h.log.add("destroy %s", h.name) }

type fakeList struct {
	log       *callLog
	name      string
	resetErr  error
	closeErr  error
	recording bool
}

func (l *fakeList) Reset(initial PipelineState) error {
	if l.resetErr != nil {
		return l.resetErr
	}
	l.recording = true
	if initial != nil {
		l.log.add("%s reset %s", l.name, initial.(*fakeHandle).name)
	} else {
		l.log.add("%s reset", l.name)
	}
	return nil
}

func (l *fakeList) SetRootSignature(sig RootSignature) {
	l.log.add("%s root %s", l.name, sig.(*fakeHandle).name)
}

func (l *fakeList) Barrier(res Resource, before, after ResourceState) {
	l.log.add("%s barrier %v %s->%s", l.name, res, before, after)
}

func (l *fakeList) SetRenderTarget(view RenderTargetView) {
	l.log.add("%s target %s", l.name, view.(*fakeHandle).name)
}

func (l *fakeList) Clear(view RenderTargetView, c Color) {
	l.log.add("%s clear %s %v", l.name, view.(*fakeHandle).name, c)
}

func (l *fakeList) SetPrimitiveTopology(t Topology) {
	l.log.add("%s topology %d", l.name, t)
}

func (l *fakeList) Close() error {
	if !l.recording {
		return ErrInvalidOperation
	}
	l.recording = false
	l.log.add("%s close", l.name)
	return l.closeErr
}

func (l *fakeList) Destroy() { l.log.add("destroy %s", l.name) }

type fakeFence struct {
	log  *callLog
	name string
}

func (f *fakeFence) Wait(ctx context.Context) error { f.log.add("%s wait", f.name); return nil }
func (f *fakeFence) Reset() error                   { f.log.add("%s reset", f.name); return nil }
func (f *fakeFence) Signaled() bool                 { return true }
func (f *fakeFence) Destroy()                       { f.log.add("destroy %s", f.name) }

type fakeBackend struct {
	log       *callLog
	buffers   int
	current   int
	lists     []*fakeList
	fences    int
	submitErr error
}

func (b *fakeBackend) CreateCommandList() (CommandList, error) {
	l := &fakeList{log: b.log, name: fmt.Sprintf("list%d", len(b.lists))}
	b.lists = append(b.lists, l)
	return l, nil
}

func (b *fakeBackend) CreateFence(signaled bool) (Fence, error) {
	f := &fakeFence{log: b.log, name: fmt.Sprintf("fence%d", b.fences)}
	b.fences++
	return f, nil
}

func (b *fakeBackend) CreateRenderTargetView(res Resource) (RenderTargetView, error) {
	return &fakeHandle{log: b.log, name: fmt.Sprintf("rtv%v", res)}, nil
}

func (b *fakeBackend) CreateRootSignature() (RootSignature, error) {
	return &fakeHandle{log: b.log, name: "root"}, nil
}

func (b *fakeBackend) CreatePipelineState(sig RootSignature, desc *PipelineDesc) (PipelineState, error) {
	return &fakeHandle{log: b.log, name: "pso"}, nil
}

func (b *fakeBackend) Queue() Queue { return b }

func (b *fakeBackend) Submit(fence Fence, lists ...CommandList) error {
	if b.submitErr != nil {
		return b.submitErr
	}
	name := "nil"
	if fence != nil {
		name = fence.(*fakeFence).name
	}
	b.log.add("submit %s %s", lists[0].(*fakeList).name, name)
	return nil
}

func (b *fakeBackend) WaitIdle(ctx context.Context) error {
	b.log.add("idle")
	return nil
}

func (b *fakeBackend) BufferCount() int { return b.buffers }

func (b *fakeBackend) Buffer(index int) (Resource, error) { return index, nil }

func (b *fakeBackend) CurrentBackBufferIndex() int { return b.current }

func (b *fakeBackend) Present(syncInterval int) error {
	b.log.add("present %d vsync %d", b.current, syncInterval)
	b.current = (b.current + 1) % b.buffers
	return nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{log: &callLog{}, buffers: 3}
}

func TestRenderFrameRecordsCommandsInOrder(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)
	b.log.calls = nil

	require.NoError(t, d.RenderFrame(context.Background()))

	assert.Equal(t, []string{
		"fence0 wait",
		"fence0 reset",
		"list0 reset",
		"list0 root root",
		"list0 barrier 0 presentable->render-target",
		"list0 target rtv0",
		"list0 clear rtv0 [0 0.2 0.4 1]",
		"list0 topology 1",
		"list0 barrier 0 render-target->presentable",
		"list0 close",
		"submit list0 fence0",
		"present 0 vsync 1",
	}, b.log.calls)
}

func TestSyncModesSelectRecorders(t *testing.T) {
	cases := []struct {
		mode    SyncMode
		lists   int
		fences  int
		submits []string
	}{
		{SyncPerFrame, 3, 3, []string{"submit list0 fence0", "submit list1 fence1", "submit list2 fence2", "submit list0 fence0"}},
		{SyncFlush, 1, 1, []string{"submit list0 fence0", "submit list0 fence0", "submit list0 fence0", "submit list0 fence0"}},
		{SyncNone, 1, 0, []string{"submit list0 nil", "submit list0 nil", "submit list0 nil", "submit list0 nil"}},
	}
	for _, c := range cases {
		t.Run(c.mode.String(), func(t *testing.T) {
			b := newFakeBackend()
			opts := DefaultOptions()
			opts.Sync = c.mode
			d, err := Setup(b, b, opts)
			require.NoError(t, err)
			assert.Len(t, b.lists, c.lists)
			assert.Equal(t, c.fences, b.fences)

			b.log.calls = nil
			for i := 0; i < 4; i++ {
				require.NoError(t, d.RenderFrame(context.Background()))
			}
			var submits []string
			for _, call := range b.log.calls {
				if len(call) > 6 && call[:6] == "submit" {
					submits = append(submits, call)
				}
			}
			assert.Equal(t, c.submits, submits)
		})
	}
}

func TestPipelineBoundOnReset(t *testing.T) {
	b := newFakeBackend()
	opts := DefaultOptions()
	opts.Pipeline = NewPosColorPipelineDesc(spirv(8), spirv(8))
	d, err := Setup(b, b, opts)
	require.NoError(t, err)
	b.log.calls = nil

	require.NoError(t, d.RenderFrame(context.Background()))
	assert.Contains(t, b.log.calls, "list0 reset pso")
}

func TestFailurePoisonsDriver(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)

	b.submitErr = errors.Wrap(ErrDeviceLost, "hung")
	err = d.RenderFrame(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGraphicsOperationFailed))
	assert.True(t, errors.Is(err, ErrDeviceLost))

	var oe *OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "submit", oe.Op)
	assert.Equal(t, 0, oe.Frame)

	b.log.calls = nil
	b.submitErr = nil
	assert.Equal(t, err, d.RenderFrame(context.Background()))
	assert.Empty(t, b.log.calls)
	assert.Equal(t, err, d.Err())
}

func TestCloseErrorIsReported(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)
	b.lists[0].closeErr = errors.Wrap(ErrInvalidOperation, "clear outside render pass")

	err = d.RenderFrame(context.Background())
	var oe *OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "close", oe.Op)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestSwapChainDriftIsRejected(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)

	b.current = 2
	err = d.RenderFrame(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestDestroyReleasesEverything(t *testing.T) {
	b := newFakeBackend()
	opts := DefaultOptions()
	opts.Sync = SyncFlush
	d, err := Setup(b, b, opts)
	require.NoError(t, err)
	require.NoError(t, d.RenderFrame(context.Background()))
	b.log.calls = nil

	require.NoError(t, d.Destroy(context.Background()))
	assert.Equal(t, []string{
		"idle",
		"fence0 wait",
		"destroy list0",
		"destroy fence0",
		"destroy root",
		"destroy rtv0",
		"destroy rtv1",
		"destroy rtv2",
	}, b.log.calls)
}

func TestSetupRejectsBadSyncInterval(t *testing.T) {
	b := newFakeBackend()
	opts := DefaultOptions()
	opts.SyncInterval = 5
	_, err := Setup(b, b, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGraphicsOperationFailed))
}
