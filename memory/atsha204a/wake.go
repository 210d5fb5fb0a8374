package atsha204a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/atsha"
)

// Wake runs the synchronization procedure (datasheet §5.3.2). The pulse is
// repeated while the chip answers with a corrupted frame, which is common on a
// cold wake.
func (d *Device) Wake(ctx context.Context) error {
	d.state = StateWaking
	for i := 1; i <= d.config.WakeAttempts; i++ {
		d.pulse(ctx)
		d.config.Sleep(d.config.WakeLow + d.config.WakeHigh)

		resp, err := d.receive(ctx)
		if errors.Is(err, ErrChecksum) {
			slog.Debug("atsha204a: checksum error after wake pulse, retrying", "attempt", i, "error", err)
			continue
		}
		if err != nil {
			d.state = StateError
			return fmt.Errorf("atsha204a: no response to wake pulse: %w", err)
		}
		if resp.Status() != StatusAfterWake {
			d.state = StateError
			return fmt.Errorf("%w: wake response status %s, expected %s", ErrProtocol, resp.Status(), StatusAfterWake)
		}
		slog.Debug("atsha204a: awake", "attempt", i)
		d.state = StateAwake
		return nil
	}
	d.state = StateError
	return fmt.Errorf("%w: no valid wake response after %d attempts", ErrTimeout, d.config.WakeAttempts)
}

// pulse holds SDA low. Nobody acknowledges the pulse so transfer errors are
// expected and dropped.
func (d *Device) pulse(ctx context.Context) {
	if p, ok := d.transport.(atsha.WakePulser); ok {
		_ = p.WakePulse(ctx)
		return
	}
	_ = d.transport.WriteToAddr(ctx, 0x00, []byte{0x00})
}

// Sleep puts the chip into low power mode. It is best effort: failures are logged
// and the chip is left in whatever state it was.
func (d *Device) Sleep(ctx context.Context) {
	if d.powerDown(ctx, FuncSleep) {
		d.state = StateAsleep
	}
}

// Idle puts the chip into idle mode, which keeps TempKey and the RNG seed. Like
// sleep it is left with a wake pulse.
func (d *Device) Idle(ctx context.Context) {
	if d.powerDown(ctx, FuncIdle) {
		d.state = StateAsleep
	}
}

func (d *Device) powerDown(ctx context.Context, fn Function) bool {
	frame, _ := Request{Function: fn}.Encode()
	var err error
	for i := 1; i <= d.config.SleepAttempts; i++ {
		err = d.send(ctx, frame)
		if err == nil {
			slog.Debug("atsha204a: power down sent", "function", fn, "attempt", i)
			return true
		}
		d.config.Sleep(d.config.ExecTime)
	}
	slog.Warn("atsha204a: could not power down device", "function", fn, "attempts", d.config.SleepAttempts, "error", err)
	return false
}
