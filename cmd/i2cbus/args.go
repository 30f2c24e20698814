package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
)

// parseUint accepts decimal, 0x hex, 0o octal and 0b binary notation.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a %d-bit number", i2cbus.ErrInvalidArgument, s, bits)
	}
	return v, nil
}

func parseAddr(s string) (i2cbus.Addr, error) {
	v, err := parseUint(s, 16)
	if err != nil {
		return 0, err
	}
	if v > 0x3FF {
		return 0, fmt.Errorf("%w: address %q out of range", i2cbus.ErrInvalidArgument, s)
	}
	return i2cbus.Addr(v), nil
}

func parseByte(s string) (byte, error) {
	v, err := parseUint(s, 8)
	return byte(v), err
}

func parseBytes(args []string) ([]byte, error) {
	res := make([]byte, 0, len(args))
	for _, a := range args {
		b, err := parseByte(a)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, nil
}

// expectArgs checks the positional argument count.
func expectArgs(c *cli.Context, lo, hi int) error {
	n := c.NArg()
	if n < lo || n > hi {
		if lo == hi {
			return fmt.Errorf("%w: expected %d arguments, got %d", i2cbus.ErrInvalidArgument, lo, n)
		}
		return fmt.Errorf("%w: expected %d to %d arguments, got %d", i2cbus.ErrInvalidArgument, lo, hi, n)
	}
	return nil
}

// devReg parses the leading ADDR REG arguments.
func devReg(c *cli.Context) (i2cbus.Addr, byte, error) {
	dev, err := parseAddr(c.Args().Get(0))
	if err != nil {
		return 0, 0, err
	}
	reg, err := parseByte(c.Args().Get(1))
	if err != nil {
		return 0, 0, err
	}
	return dev, reg, nil
}
