package frame

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsOnQuit(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)

	pumped := 0
	pump := PumpFunc(func() Action {
		pumped++
		if pumped == 4 {
			return Quit
		}
		return Continue
	})
	require.NoError(t, Run(context.Background(), pump, d))
	assert.Equal(t, 4, pumped)
	assert.EqualValues(t, 3, d.Stats().Frames)
}

func TestRunQuitBeforeFirstFrame(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)
	b.log.calls = nil

	require.NoError(t, Run(context.Background(), FrameLimit(0), d))
	assert.Empty(t, b.log.calls)
	assert.Equal(t, -1, d.Stats().LastPresented)
}

func TestRunHonorsContext(t *testing.T) {
	b := newFakeBackend()
	d, err := Setup(b, b, DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Run(ctx, FrameLimit(10), d), context.Canceled)
	assert.EqualValues(t, 0, d.Stats().Frames)
}

func TestFrameLimit(t *testing.T) {
	pump := FrameLimit(2)
	assert.Equal(t, Continue, pump.PumpEvents())
	assert.Equal(t, Continue, pump.PumpEvents())
	assert.Equal(t, Quit, pump.PumpEvents())
	assert.Equal(t, Quit, pump.PumpEvents())
}

func TestLimit(t *testing.T) {
	open := PumpFunc(func() Action { return Continue })
	p := Limit(open, 2)
	assert.Equal(t, []Action{Continue, Continue, Quit}, []Action{p.PumpEvents(), p.PumpEvents(), p.PumpEvents()})

	closed := PumpFunc(func() Action { return Quit })
	assert.Equal(t, Quit, Limit(closed, 5).PumpEvents())

	pumped := 0
	counting := PumpFunc(func() Action { pumped++; return Continue })
	unlimited := Limit(counting, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, Continue, unlimited.PumpEvents())
	}
	assert.Equal(t, 10, pumped)
}
