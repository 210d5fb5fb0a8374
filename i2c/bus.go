package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/atsha"
)

var _ atsha.I2CBus = &GenericBus{}
var _ atsha.WakePulser = &GenericBus{}

// WakeSpeed is slow enough for a single zero byte to hold SDA low longer than
// t_WLO (60µs) of the ATSHA204A.
const WakeSpeed = 100 * physic.KiloHertz

type GenericBus struct {
	bus   i2c.BusCloser
	speed physic.Frequency
}

// NewGenericBus opens the named bus. A non-zero speed is applied right away;
// zero keeps whatever clock the host configured.
func NewGenericBus(dev string, speed physic.Frequency) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	b := &GenericBus{
		bus: bus,
	}
	if speed > 0 {
		err = b.SetSpeed(speed)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
	}
	return b, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// SetSpeed changes the bus clock. The value is remembered so it can be restored
// after a wake pulse.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	err := b.bus.SetSpeed(f)
	if err != nil {
		return fmt.Errorf("could not set i2c bus speed to %s: %w", f, err)
	}
	b.speed = f
	return nil
}

// WakePulse writes a zero byte to the general call address. The transfer is
// never acknowledged. When the bus speed is known and above WakeSpeed it is
// lowered for the pulse and restored afterwards; an unknown speed is left alone
// since it could not be restored.
func (b *GenericBus) WakePulse(ctx context.Context) error {
	lowered := false
	if b.speed > WakeSpeed {
		err := b.bus.SetSpeed(WakeSpeed)
		if err != nil {
			slog.Debug("could not lower bus speed for wake pulse", "error", err)
		} else {
			lowered = true
		}
	}
	_ = b.bus.Tx(0x00, []byte{0x00}, nil)
	if lowered {
		err := b.bus.SetSpeed(b.speed)
		if err != nil {
			return fmt.Errorf("could not restore i2c bus speed: %w", err)
		}
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
