package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/atsha"
	"github.com/mklimuk/atsha/adapter"
	"github.com/mklimuk/atsha/busctx"
	"github.com/mklimuk/atsha/cmd/atsha/console"
	"github.com/mklimuk/atsha/i2c"
	"github.com/mklimuk/atsha/memory/atsha204a"
)

// deviceFlags are shared by every command talking to the chip.
var deviceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: mcp2221, generic or nanopi",
		Value:   "mcp2221",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c bus device for the generic adapter",
		Value:   "/dev/i2c-1",
	},
	&cli.IntFlag{
		Name:  "speed",
		Usage: "i2c clock in Hz for the generic adapter, 0 keeps the host setting",
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "i2c bus number for the nanopi adapter",
		Value: 0,
	},
	&cli.IntFlag{
		Name:  "chip-address",
		Usage: "7-bit i2c address of the chip",
		Value: atsha204a.DefaultAddress,
	},
	&cli.StringFlag{
		Name:  "profile",
		Usage: "yaml file with timing overrides",
	},
}

// openBus returns the transport selected by the adapter flag and a function
// releasing it.
func openBus(c *cli.Context) (atsha.I2CBus, func(), error) {
	ctx := busctx.SetVerbose(c.Context, c.Bool("verbose"))
	switch c.String("adapter") {
	case "mcp2221":
		ad := adapter.NewMCP2221()
		if err := ad.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ad, func() {}, nil
	case "generic":
		bus, err := i2c.NewGenericBus(c.String("device"), physic.Frequency(c.Int("speed"))*physic.Hertz)
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return bus, func() {
			err := bus.Close()
			if err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}, nil
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, c.Int("bus"))
		return bus, func() {
			_ = bus.Release(context.Background())
			_ = npi.I2cBusAdaptor.Finalize()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
	}
}

func newDevice(c *cli.Context, bus atsha.I2CBus) (*atsha204a.Device, error) {
	opts := []atsha204a.Opt{atsha204a.WithAddress(byte(c.Int("chip-address")))}
	if path := c.String("profile"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open profile: %w", err)
		}
		defer func() { _ = f.Close() }()
		profile, err := atsha204a.LoadProfile(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, atsha204a.WithProfile(profile))
	}
	return atsha204a.New(bus, opts...), nil
}

// withDevice opens the bus, builds the device and runs fn with a context
// carrying the verbose flag.
func withDevice(c *cli.Context, fn func(ctx context.Context, dev *atsha204a.Device) error) error {
	bus, release, err := openBus(c)
	if err != nil {
		return console.Exit(console.CodeFailure, "%s", console.Red(err))
	}
	defer release()
	dev, err := newDevice(c, bus)
	if err != nil {
		return console.Exit(console.CodeFailure, "%s", console.Red(err))
	}
	ctx := busctx.SetVerbose(c.Context, c.Bool("verbose"))
	return fn(ctx, dev)
}
