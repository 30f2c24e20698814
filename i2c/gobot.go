package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	gobotI2C "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/i2cbus"
)

// GobotDriver installs the bus on a gobot adaptor (nanopi, raspi, ...). The
// port is the bus number; an empty port selects the adaptor's default bus.
// The adaptor must already be connected.
type GobotDriver struct {
	Connector gobotI2C.Connector
}

var _ i2cbus.Driver = &GobotDriver{}

func NewGobotDriver(connector gobotI2C.Connector) *GobotDriver {
	return &GobotDriver{Connector: connector}
}

func (d *GobotDriver) Install(ctx context.Context, port i2cbus.Port, cfg i2cbus.Config) (i2cbus.Conn, error) {
	if d.Connector == nil {
		return nil, fmt.Errorf("%w: no gobot connector", i2cbus.ErrInvalidArgument)
	}
	busNr := d.Connector.DefaultI2cBus()
	if port != "" {
		n, err := strconv.Atoi(string(port))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: gobot bus number %q", i2cbus.ErrInvalidArgument, port)
		}
		busNr = n
	}
	if cfg.ClockSpeed != i2cbus.DefaultClockSpeed {
		slog.Warn("gobot adaptors do not support setting the bus speed", "bus", busNr, "speed", cfg.ClockSpeed.String())
	}
	return &gobotConn{
		connector: d.Connector,
		busNr:     busNr,
		devices:   make(map[i2cbus.Addr]gobotI2C.Connection),
	}, nil
}

// gobotConn opens one gobot connection per slave address on first use.
type gobotConn struct {
	connector gobotI2C.Connector
	busNr     int
	devices   map[i2cbus.Addr]gobotI2C.Connection
}

func (c *gobotConn) device(addr i2cbus.Addr) (gobotI2C.Connection, error) {
	dev, ok := c.devices[addr]
	if ok {
		return dev, nil
	}
	dev, err := c.connector.GetI2cConnection(int(addr), c.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %s on bus %d: %w", addr, c.busNr, err)
	}
	c.devices[addr] = dev
	return dev, nil
}

// maxBlockRead is the SMBus block length limit of ReadBlockData.
const maxBlockRead = 32

// Tx maps register reads (a single pointer byte followed by a read) onto
// gobot's combined ReadByteData/ReadBlockData, which use a repeated start.
// Any other write followed by a read goes out as two messages.
func (c *gobotConn) Tx(ctx context.Context, addr i2cbus.Addr, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(w) == 1 && len(r) > maxBlockRead {
		return fmt.Errorf("%w: gobot register read of %d bytes exceeds %d", i2cbus.ErrInvalidArgument, len(r), maxBlockRead)
	}
	dev, err := c.device(addr)
	if err != nil {
		return fmt.Errorf("%w: %w", i2cbus.ErrDriverNotReady, err)
	}
	switch {
	case len(w) == 0 && len(r) == 0:
		_, err = dev.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: probe %s: %v", i2cbus.ErrTransferFailed, addr, err)
		}
		return nil
	case len(w) == 1 && len(r) == 1:
		r[0], err = dev.ReadByteData(w[0])
		if err != nil {
			return fmt.Errorf("%w: read %s register %#02x: %v", i2cbus.ErrTransferFailed, addr, w[0], err)
		}
		return nil
	case len(w) == 1 && len(r) > 1:
		err = dev.ReadBlockData(w[0], r)
		if err != nil {
			return fmt.Errorf("%w: read %s registers from %#02x: %v", i2cbus.ErrTransferFailed, addr, w[0], err)
		}
		return nil
	}
	if len(w) > 0 {
		_, err = dev.Write(w)
		if err != nil {
			return fmt.Errorf("%w: write to %s: %v", i2cbus.ErrTransferFailed, addr, err)
		}
	}
	if len(r) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err = dev.Read(r)
		if err != nil {
			return fmt.Errorf("%w: read from %s: %v", i2cbus.ErrTransferFailed, addr, err)
		}
	}
	return nil
}

func (c *gobotConn) Close() error {
	var first error
	for addr, dev := range c.devices {
		err := dev.Close()
		if err != nil && first == nil {
			first = fmt.Errorf("could not close connection to %s: %w", addr, err)
		}
		delete(c.devices, addr)
	}
	return first
}
