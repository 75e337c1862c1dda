package frame

import (
	"context"
)

// Run pumps events and renders frames until the pump reports Quit, a frame
// fails or ctx is done.
func Run(ctx context.Context, pump EventPump, d *Driver) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pump.PumpEvents() == Quit {
			Logger().Info("close requested", "frames", d.frames)
			return nil
		}
		if err := d.RenderFrame(ctx); err != nil {
			return err
		}
	}
}

// FrameLimit returns a pump which lets n frames through and then quits.
func FrameLimit(n int) EventPump {
	seen := 0
	return PumpFunc(func() Action {
		if seen >= n {
			return Quit
		}
		seen++
		return Continue
	})
}

// Limit wraps pump so that it also quits after n frames. A limit of zero or
// less returns pump unchanged.
func Limit(pump EventPump, n int) EventPump {
	if n <= 0 {
		return pump
	}
	limit := FrameLimit(n)
	return PumpFunc(func() Action {
		if pump.PumpEvents() == Quit {
			return Quit
		}
		return limit.PumpEvents()
	})
}
