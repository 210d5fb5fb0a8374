package main

import (
	"context"
	"fmt"
	"net"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/atsha/cmd/atsha/console"
	"github.com/mklimuk/atsha/memory/atsha204a"
)

// The MAC address is programmed in the OTP zone: 4 bytes at word 4 and the
// first 2 bytes of word 5.
const macWordAddress = 4

var macCmd = cli.Command{
	Name:  "mac",
	Usage: "read the board MAC address stored in the OTP zone",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "fallback", Usage: "MAC address to use when the device can not be read"},
		&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "ask before using the fallback address"},
	}, deviceFlags...),
	Action: func(c *cli.Context) error {
		var fallback net.HardwareAddr
		if s := c.String("fallback"); s != "" {
			var err error
			fallback, err = net.ParseMAC(s)
			if err != nil {
				return console.Usagef("invalid fallback address: %s", console.Red(err))
			}
		}
		return withDevice(c, func(ctx context.Context, dev *atsha204a.Device) error {
			mac, err := readMAC(ctx, dev)
			if err == nil {
				console.PInfof(console.PictoKey, "%s", console.White(mac))
				return nil
			}
			if fallback == nil {
				return console.Exit(console.CodeFailure, "could not read MAC address: %s", console.Red(err))
			}
			console.Warnf("could not read MAC address: %s", err)
			if c.Bool("interactive") {
				answer, perr := console.YesOrNo(fmt.Sprintf("use fallback address %s?", fallback))
				if perr != nil || answer != console.Yes {
					return console.Exit(console.CodeFailure, "no MAC address")
				}
			}
			console.Printf("%s\n", console.Yellow(fallback))
			return nil
		})
	},
}

// readMAC puts the chip in a defined state, reads the two OTP words and leaves it
// asleep.
func readMAC(ctx context.Context, dev *atsha204a.Device) (net.HardwareAddr, error) {
	dev.Sleep(ctx)
	err := dev.Wake(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not wake up the device: %w", err)
	}
	defer dev.Sleep(ctx)
	first, err := dev.ReadZone(ctx, atsha204a.ZoneOTP, false, macWordAddress)
	if err != nil {
		return nil, err
	}
	second, err := dev.ReadZone(ctx, atsha204a.ZoneOTP, false, macWordAddress+1)
	if err != nil {
		return nil, err
	}
	mac := make(net.HardwareAddr, 0, 6)
	mac = append(mac, first...)
	mac = append(mac, second[:2]...)
	return mac, nil
}
