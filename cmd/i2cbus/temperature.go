package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
	"github.com/mklimuk/i2cbus/environment"
)

var tempReadCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read a TC74 temperature sensor",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Value: "0x4d",
			Usage: "TC74 address",
		},
	},
	Action: func(c *cli.Context) error {
		addr, err := parseAddr(c.String("addr"))
		if err != nil {
			return console.Fail(err, "temperature")
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			s := environment.NewTC74(bus, environment.WithAddress(addr))
			temp, err := s.GetTemperature(ctx)
			if err != nil {
				return console.Fail(err, "error getting temperature read")
			}
			console.Printf("%s %s\n", console.PictoThermometer, console.White(fmt.Sprintf("%.0f°C", temp)))
			return nil
		})
	},
}
