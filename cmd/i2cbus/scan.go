package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "probe every 7-bit address and print the ones that acknowledge",
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			found, err := bus.Scan(ctx)
			if err != nil {
				return console.Fail(err, "scan interrupted")
			}
			printGrid(console.Writer(), found)
			if len(found) == 0 {
				console.PInfof(console.PictoGhost, "no devices found")
			}
			return nil
		})
	},
}

var probeCmd = cli.Command{
	Name:      "probe",
	Usage:     "check whether a device acknowledges its address",
	ArgsUsage: "ADDR",
	Action: func(c *cli.Context) error {
		if err := expectArgs(c, 1, 1); err != nil {
			return console.Fail(err, "probe")
		}
		dev, err := parseAddr(c.Args().First())
		if err != nil {
			return console.Fail(err, "probe")
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			err := bus.TestConnection(ctx, dev)
			if err != nil {
				return console.Fail(err, "device %s not responding", dev)
			}
			console.Printf("device %s: %s\n", dev, console.Green("present"))
			return nil
		})
	},
}

// printGrid renders scan results the way i2cdetect does.
func printGrid(w io.Writer, found []i2cbus.Addr) {
	_, _ = fmt.Fprint(w, "    ")
	for col := 0; col < 16; col++ {
		_, _ = fmt.Fprintf(w, " %x ", col)
	}
	_, _ = fmt.Fprintln(w)
	for row := 0; row < 0x80; row += 16 {
		_, _ = fmt.Fprintf(w, "%02x:", row)
		for col := 0; col < 16; col++ {
			addr := i2cbus.Addr(row + col)
			switch {
			case addr < i2cbus.ScanFirst || addr > i2cbus.ScanLast:
				_, _ = fmt.Fprint(w, "   ")
			case slices.Contains(found, addr):
				_, _ = fmt.Fprintf(w, " %s", console.Green(fmt.Sprintf("%02x", int(addr))))
			default:
				_, _ = fmt.Fprintf(w, " %s", console.Faint("--"))
			}
		}
		_, _ = fmt.Fprintln(w)
	}
}
