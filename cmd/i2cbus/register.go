package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
)

var getCmd = cli.Command{
	Name:      "get",
	Usage:     "read N consecutive registers (default 1)",
	ArgsUsage: "ADDR REG [N]",
	Action: func(c *cli.Context) error {
		if err := expectArgs(c, 2, 3); err != nil {
			return console.Fail(err, "get")
		}
		dev, reg, err := devReg(c)
		if err != nil {
			return console.Fail(err, "get")
		}
		n := uint64(1)
		if c.NArg() == 3 {
			n, err = parseUint(c.Args().Get(2), 8)
			if err != nil {
				return console.Fail(err, "get")
			}
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			buf := make([]byte, n)
			err := bus.ReadBytes(ctx, dev, reg, buf)
			if err != nil {
				return console.Fail(err, "could not read %s register %#02x", dev, reg)
			}
			for i, v := range buf {
				console.Printf("%#02x: %s\n", int(reg)+i, console.White(fmt.Sprintf("%#02x", v)))
			}
			return nil
		})
	},
}

var setCmd = cli.Command{
	Name:      "set",
	Usage:     "write bytes starting at a register",
	ArgsUsage: "ADDR REG VALUE...",
	Action: func(c *cli.Context) error {
		if err := expectArgs(c, 3, 2+255); err != nil {
			return console.Fail(err, "set")
		}
		dev, reg, err := devReg(c)
		if err != nil {
			return console.Fail(err, "set")
		}
		data, err := parseBytes(c.Args().Slice()[2:])
		if err != nil {
			return console.Fail(err, "set")
		}
		if err := confirmWrite(c, "write %s to %s register %#02x?", hex.EncodeToString(data), dev, reg); err != nil {
			return err
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			err := bus.WriteBytes(ctx, dev, reg, data)
			if err != nil {
				return console.Fail(err, "could not write %s register %#02x", dev, reg)
			}
			console.Infof("wrote %d byte(s) to %s register %#02x", len(data), dev, reg)
			return nil
		})
	},
}

var getBitsCmd = cli.Command{
	Name:      "getbits",
	Usage:     "read a bit field; START is the most significant bit of the field",
	ArgsUsage: "ADDR REG START LEN",
	Action: func(c *cli.Context) error {
		dev, reg, start, length, err := fieldArgs(c, 4)
		if err != nil {
			return console.Fail(err, "getbits")
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			v, err := bus.ReadBits(ctx, dev, reg, start, length)
			if err != nil {
				return console.Fail(err, "could not read %s register %#02x", dev, reg)
			}
			console.Printf("%#02x[%d:%d]: %s (%0*b)\n", reg, start, start-length+1, console.White(fmt.Sprintf("%#02x", v)), int(length), v)
			return nil
		})
	},
}

var setBitsCmd = cli.Command{
	Name:      "setbits",
	Usage:     "read-modify-write a bit field; START is the most significant bit of the field",
	ArgsUsage: "ADDR REG START LEN VALUE",
	Action: func(c *cli.Context) error {
		dev, reg, start, length, err := fieldArgs(c, 5)
		if err != nil {
			return console.Fail(err, "setbits")
		}
		value, err := parseByte(c.Args().Get(4))
		if err != nil {
			return console.Fail(err, "setbits")
		}
		if err := confirmWrite(c, "write %#x to %s register %#02x bits %d:%d?", value, dev, reg, start, start-length+1); err != nil {
			return err
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			err := bus.WriteBits(ctx, dev, reg, start, length, value)
			if err != nil {
				return console.Fail(err, "could not update %s register %#02x", dev, reg)
			}
			console.Infof("updated %s register %#02x", dev, reg)
			return nil
		})
	},
}

// fieldArgs parses ADDR REG START LEN and validates the field before any bus access.
func fieldArgs(c *cli.Context, n int) (dev i2cbus.Addr, reg byte, start, length uint8, err error) {
	if err = expectArgs(c, n, n); err != nil {
		return
	}
	dev, reg, err = devReg(c)
	if err != nil {
		return
	}
	if start, err = parseByte(c.Args().Get(2)); err != nil {
		return
	}
	if length, err = parseByte(c.Args().Get(3)); err != nil {
		return
	}
	_, err = i2cbus.FieldMask(start, length)
	return
}
