package atsha204a

import (
	"context"

	"github.com/mklimuk/atsha"
)

// State is the power state of the chip as last observed by the driver.
type State int

const (
	StateAsleep State = iota
	StateWaking
	StateAwake
	StateError
)

func (s State) String() string {
	switch s {
	case StateAsleep:
		return "asleep"
	case StateWaking:
		return "waking"
	case StateAwake:
		return "awake"
	default:
		return "error"
	}
}

// Device is an ATSHA204A reached through a caller owned bus.
type Device struct {
	config    Opts
	transport atsha.I2CBus
	addr      byte
	state     State
}

func New(transport atsha.I2CBus, opts ...Opt) *Device {
	config := DefaultOpts()
	for _, opt := range opts {
		opt(&config)
	}
	return &Device{
		config:    config,
		transport: transport,
		addr:      config.Address,
		state:     StateAsleep,
	}
}

// State returns the power state observed by the last wake or sleep.
func (d *Device) State() State {
	return d.state
}

func (d *Device) Address() byte {
	return d.addr
}

func (d *Device) send(ctx context.Context, frame []byte) error {
	return d.transport.WriteToAddr(ctx, d.addr, frame)
}

func (d *Device) receive(ctx context.Context) (Response, error) {
	return DecodeResponse(func(p []byte) error {
		return d.transport.ReadFromAddr(ctx, d.addr, p)
	})
}
