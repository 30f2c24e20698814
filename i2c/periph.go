// Package i2c installs the bus handle on host I2C controllers, either through
// periph.io (Linux /dev/i2c-N) or through any gobot I2C connector.
package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/i2cbus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var hostInit = sync.OnceValue(func() error {
	state, err := host.Init()
	if err != nil {
		return err
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	return nil
})

// PeriphDriver opens buses registered in periph's i2creg. The port is the bus
// name or number ("1", "/dev/i2c-1", "" for the first bus).
type PeriphDriver struct{}

var _ i2cbus.Driver = PeriphDriver{}

func (PeriphDriver) Install(ctx context.Context, port i2cbus.Port, cfg i2cbus.Config) (i2cbus.Conn, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	bus, err := i2creg.Open(string(port))
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", port, err)
	}
	if err := checkPins(bus, cfg); err != nil {
		_ = bus.Close()
		return nil, err
	}
	if cfg.SDAPullup || cfg.SCLPullup {
		slog.Debug("pull-ups on host buses are fixed by the board", "bus", bus.String())
	}
	err = bus.SetSpeed(cfg.ClockSpeed)
	if err != nil {
		// many host controllers only accept the speed set in the device tree
		slog.Warn("could not set bus speed", "bus", bus.String(), "speed", cfg.ClockSpeed.String(), "error", err)
	}
	return &periphConn{bus: bus}, nil
}

// checkPins rejects a configuration asking for pins the bus is not wired to.
func checkPins(bus i2c.Bus, cfg i2cbus.Config) error {
	pins, ok := bus.(i2c.Pins)
	if !ok {
		return nil
	}
	if cfg.SDA != i2cbus.NoPin {
		if n := pins.SDA().Number(); n >= 0 && n != cfg.SDA {
			return fmt.Errorf("%w: bus %s has SDA on pin %d, not %d", i2cbus.ErrInvalidArgument, bus, n, cfg.SDA)
		}
	}
	if cfg.SCL != i2cbus.NoPin {
		if n := pins.SCL().Number(); n >= 0 && n != cfg.SCL {
			return fmt.Errorf("%w: bus %s has SCL on pin %d, not %d", i2cbus.ErrInvalidArgument, bus, n, cfg.SCL)
		}
	}
	return nil
}

type periphConn struct {
	bus i2c.BusCloser
}

func (c *periphConn) Tx(ctx context.Context, addr i2cbus.Addr, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// sysfs skips empty transactions, so probe with a one byte read
	if len(w) == 0 && len(r) == 0 {
		r = make([]byte, 1)
	}
	err := c.bus.Tx(uint16(addr), w, r)
	if err != nil {
		return fmt.Errorf("%w: %s at %s: %v", i2cbus.ErrTransferFailed, c.bus, addr, err)
	}
	return nil
}

func (c *periphConn) Close() error {
	return c.bus.Close()
}
