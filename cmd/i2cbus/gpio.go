package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
	"github.com/mklimuk/i2cbus/gpio"
)

var gpioAddrFlag = &cli.StringFlag{
	Name:  "addr",
	Value: fmt.Sprintf("%#02x", int(gpio.DefaultMCP23017Address)),
	Usage: "MCP23017 address",
}

var gpioCmd = cli.Command{
	Name:  "gpio",
	Usage: "MCP23017 I/O expander",
	Subcommands: cli.Commands{
		&gpioReadCmd,
		&gpioDirCmd,
		&gpioPinCmd,
	},
}

var gpioReadCmd = cli.Command{
	Name:  "read",
	Usage: "read both ports",
	Flags: []cli.Flag{gpioAddrFlag},
	Action: func(c *cli.Context) error {
		return withExpander(c, func(ctx context.Context, exp *gpio.MCP23017) error {
			res, err := exp.ReadAll(ctx)
			if err != nil {
				return console.Fail(err, "could not read gpio")
			}
			console.Printf("I/O A: %s\nI/O B: %s\n", console.White(fmt.Sprintf("%08b", res[0])), console.White(fmt.Sprintf("%08b", res[1])))
			return nil
		})
	},
}

var gpioDirCmd = cli.Command{
	Name:      "dir",
	Usage:     "set port direction mask (1 = input) and optional pull-ups",
	ArgsUsage: "PORT INPUTS [PULLUPS]",
	Flags:     []cli.Flag{gpioAddrFlag},
	Action: func(c *cli.Context) error {
		if err := expectArgs(c, 2, 3); err != nil {
			return console.Fail(err, "gpio dir")
		}
		port, err := parsePort(c.Args().Get(0))
		if err != nil {
			return console.Fail(err, "gpio dir")
		}
		inputs, err := parseByte(c.Args().Get(1))
		if err != nil {
			return console.Fail(err, "gpio dir")
		}
		var pullups *byte
		if c.NArg() == 3 {
			v, err := parseByte(c.Args().Get(2))
			if err != nil {
				return console.Fail(err, "gpio dir")
			}
			pullups = &v
		}
		if err := confirmWrite(c, "set port %s direction to %08b?", port, inputs); err != nil {
			return err
		}
		return withExpander(c, func(ctx context.Context, exp *gpio.MCP23017) error {
			if err := exp.SetDirection(ctx, port, inputs); err != nil {
				return console.Fail(err, "gpio dir")
			}
			if pullups != nil {
				if err := exp.PullUp(ctx, port, *pullups); err != nil {
					return console.Fail(err, "gpio dir")
				}
			}
			return nil
		})
	},
}

var gpioPinCmd = cli.Command{
	Name:      "pin",
	Usage:     "read a pin, or drive it when a level is given",
	ArgsUsage: "PORT PIN [0|1]",
	Flags:     []cli.Flag{gpioAddrFlag},
	Action: func(c *cli.Context) error {
		if err := expectArgs(c, 2, 3); err != nil {
			return console.Fail(err, "gpio pin")
		}
		port, err := parsePort(c.Args().Get(0))
		if err != nil {
			return console.Fail(err, "gpio pin")
		}
		pin, err := parseByte(c.Args().Get(1))
		if err != nil || pin > 7 {
			return console.Fail(fmt.Errorf("%w: pin %q", i2cbus.ErrInvalidArgument, c.Args().Get(1)), "gpio pin")
		}
		if c.NArg() == 2 {
			return withExpander(c, func(ctx context.Context, exp *gpio.MCP23017) error {
				high, err := exp.ReadPin(ctx, port, pin)
				if err != nil {
					return console.Fail(err, "gpio pin")
				}
				console.PInfof(console.PictoPin, "%s%d: %s", port, pin, level(high))
				return nil
			})
		}
		high := c.Args().Get(2) == "1"
		if err := confirmWrite(c, "drive %s%d %s?", port, pin, level(high)); err != nil {
			return err
		}
		return withExpander(c, func(ctx context.Context, exp *gpio.MCP23017) error {
			if err := exp.WritePin(ctx, port, pin, high); err != nil {
				return console.Fail(err, "gpio pin")
			}
			return nil
		})
	},
}

func withExpander(c *cli.Context, fn func(ctx context.Context, exp *gpio.MCP23017) error) error {
	addr, err := parseAddr(c.String("addr"))
	if err != nil {
		return console.Fail(err, "gpio")
	}
	return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
		return fn(ctx, gpio.NewMCP23017(bus, addr, gpio.WithRetryLimit(3)))
	})
}

func parsePort(s string) (gpio.Port, error) {
	switch strings.ToUpper(s) {
	case "A":
		return gpio.PortA, nil
	case "B":
		return gpio.PortB, nil
	}
	return 0, fmt.Errorf("%w: port %q (expected A or B)", i2cbus.ErrInvalidArgument, s)
}

func level(high bool) string {
	if high {
		return console.Yellow("high")
	}
	return console.Green("low")
}
