package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/atsha/adapter"
	"github.com/mklimuk/atsha/busctx"
	"github.com/mklimuk/atsha/cmd/atsha/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "USB to I2C bridge diagnostics",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221SpeedCmd,
	},
}

var bridgeFlags = []cli.Flag{
	&cli.IntFlag{Name: "id", Usage: "bridge index as listed by 'usb detect'", Value: -1},
}

func newBridge(c *cli.Context) (*adapter.MCP2221, context.Context) {
	var opts []adapter.MCP2221Opt
	if id := c.Int("id"); id >= 0 {
		opts = append(opts, adapter.WithDeviceID(id))
	}
	return adapter.NewMCP2221(opts...), busctx.SetVerbose(context.Background(), c.Bool("verbose"))
}

func printStatus(status *adapter.MCP2221Status) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer func() { _ = enc.Close() }()
	err := enc.Encode(status)
	if err != nil {
		return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: bridgeFlags,
	Action: func(c *cli.Context) error {
		a, ctx := newBridge(c)
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(console.CodeFailure, "adapter communication error: %s", console.Red(err))
		}
		return printStatus(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Flags: bridgeFlags,
	Action: func(c *cli.Context) error {
		a, ctx := newBridge(c)
		status, err := a.ReleaseBus(ctx)
		if err != nil {
			return console.Exit(console.CodeFailure, "adapter communication error: %s", console.Red(err))
		}
		return printStatus(status)
	},
}

var mcp2221SpeedCmd = cli.Command{
	Name:      "speed",
	Usage:     "set the bus clock",
	ArgsUsage: "<hz>",
	Flags:     bridgeFlags,
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Usagef("expected 1 argument, got %d", c.NArg())
		}
		var hz int
		_, err := fmt.Sscanf(c.Args().Get(0), "%d", &hz)
		if err != nil {
			return console.Usagef("invalid speed: %s", console.Red(err))
		}
		a, ctx := newBridge(c)
		err = a.SetSpeed(ctx, hz)
		if err != nil {
			return console.Exit(console.CodeFailure, "could not set speed: %s", console.Red(err))
		}
		console.Printf("bus speed set to %s Hz\n", console.White(hz))
		return nil
	},
}
