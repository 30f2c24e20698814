package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus/adapter"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
)

// bridge is a known USB to I2C bridge.
type bridge struct {
	name      string
	vendorID  uint16
	productID uint16
}

var bridges = []bridge{
	{name: "MCP2221", vendorID: adapter.VendorID, productID: adapter.ProductID},
}

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list HID devices and detect I2C bridges",
	Before: func(c *cli.Context) error {
		if !hid.Supported() {
			return console.Exit(4, "HID enumeration is not supported on this platform")
		}
		return nil
	},
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)

		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list attached bridges with the port to pass to --port",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(console.Writer(), 12, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PORT\tVENDOR\tPRODUCT\tDEVICE\tSERIAL\n")
		found := 0
		for _, b := range bridges {
			for i, dev := range hid.Enumerate(b.vendorID, b.productID) {
				_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", i, dev.VendorID, dev.ProductID, b.name, dev.Serial)
				found++
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if found == 0 {
			console.PInfof(console.PictoGhost, "no bridges attached")
		}
		return nil
	},
}
