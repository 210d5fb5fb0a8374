package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/atsha/cmd/atsha/console"
	"github.com/mklimuk/atsha/memory/atsha204a"
)

var zones = map[string]atsha204a.Zone{
	"config": atsha204a.ZoneConfig,
	"otp":    atsha204a.ZoneOTP,
	"data":   atsha204a.ZoneData,
}

func parseZone(name string) (atsha204a.Zone, error) {
	zone, ok := zones[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown zone %q (config, otp or data)", name)
	}
	return zone, nil
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read a word or a block from a memory zone",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "zone", Aliases: []string{"z"}, Usage: "config, otp or data", Value: "config"},
		&cli.IntFlag{Name: "address", Usage: "word address within the zone", Required: true},
		&cli.BoolFlag{Name: "block", Aliases: []string{"b"}, Usage: "read 32 bytes instead of 4"},
	}, deviceFlags...),
	Action: func(c *cli.Context) error {
		zone, err := parseZone(c.String("zone"))
		if err != nil {
			return console.Usagef("%s", console.Red(err))
		}
		addr := c.Int("address")
		if addr < 0 || addr > 0xFFFF {
			return console.Usagef("address out of range: %d", addr)
		}
		return withDevice(c, func(ctx context.Context, dev *atsha204a.Device) error {
			dev.Sleep(ctx)
			err := dev.Wake(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not wake device: %s", console.Red(err))
			}
			defer dev.Sleep(ctx)
			console.Debugf("reading %s zone at %#x (block: %t)", zone, addr, c.Bool("block"))
			data, err := dev.ReadZone(ctx, zone, c.Bool("block"), uint16(addr))
			if err != nil {
				return console.Exit(console.CodeFailure, "read error (%s): %s", atsha204a.KindOf(err), console.Red(err))
			}
			console.Printf("%s", hex.Dump(data))
			return nil
		})
	},
}

var randomCmd = cli.Command{
	Name:  "random",
	Usage: "read 32 random bytes from the device RNG",
	Flags: deviceFlags,
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *atsha204a.Device) error {
			err := dev.Wake(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not wake device: %s", console.Red(err))
			}
			defer dev.Sleep(ctx)
			data, err := dev.Random(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "random error: %s", console.Red(err))
			}
			console.Printf("%s\n", console.White(hex.EncodeToString(data)))
			return nil
		})
	},
}

var wakeCmd = cli.Command{
	Name:  "wake",
	Usage: "wake the device and check its wake response",
	Flags: deviceFlags,
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *atsha204a.Device) error {
			err := dev.Wake(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "wake failed (%s): %s", atsha204a.KindOf(err), console.Red(err))
			}
			console.Printf("device %s\n", console.Green(dev.State()))
			return nil
		})
	},
}

var sleepCmd = cli.Command{
	Name:  "sleep",
	Usage: "put the device to sleep",
	Flags: deviceFlags,
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *atsha204a.Device) error {
			// the chip only acks the sleep command when awake
			err := dev.Wake(ctx)
			if err != nil {
				console.Warnf("wake before sleep failed: %s", err)
			}
			dev.Sleep(ctx)
			if dev.State() != atsha204a.StateAsleep {
				console.Warn("device did not accept the sleep command")
				return nil
			}
			console.Printf("device %s\n", console.Green(dev.State()))
			return nil
		})
	},
}
