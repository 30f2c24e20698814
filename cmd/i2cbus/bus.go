package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/adapter"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
	"github.com/mklimuk/i2cbus/config"
	"github.com/mklimuk/i2cbus/i2c"
	"github.com/mklimuk/i2cbus/i2cctx"
	"github.com/mklimuk/i2cbus/simbus"
)

// busTarget is the bus selected by the config file and the global flags.
type busTarget struct {
	adapter string
	port    i2cbus.Port
	cfg     i2cbus.Config
}

// newSim is replaced in tests to inspect the simulated bus.
var newSim = demoSim

func resolveBus(c *cli.Context) (busTarget, error) {
	target := busTarget{adapter: config.AdapterPeriph, cfg: i2cbus.DefaultConfig()}
	if path := c.String("config"); path != "" {
		file, err := config.Load(path)
		if err != nil {
			return target, err
		}
		bus, err := file.Lookup(c.String("bus"))
		if err != nil {
			return target, err
		}
		cfg, err := bus.BusConfig()
		if err != nil {
			return target, err
		}
		target = busTarget{adapter: bus.Adapter, port: i2cbus.Port(bus.Port), cfg: cfg}
	} else if c.IsSet("bus") {
		return target, fmt.Errorf("%w: --bus requires --config", i2cbus.ErrInvalidArgument)
	}
	if c.IsSet("adapter") || c.String("config") == "" {
		target.adapter = c.String("adapter")
	}
	if c.IsSet("port") {
		target.port = i2cbus.Port(c.String("port"))
	}
	if c.IsSet("clock") || c.String("config") == "" {
		var speed physic.Frequency
		if err := speed.Set(c.String("clock")); err != nil {
			return target, fmt.Errorf("%w: clock %q: %w", i2cbus.ErrInvalidArgument, c.String("clock"), err)
		}
		target.cfg.ClockSpeed = speed
	}
	if c.IsSet("timeout") || c.String("config") == "" {
		target.cfg.Timeout = c.Duration("timeout")
		if target.cfg.Timeout == 0 {
			target.cfg.Timeout = i2cbus.NoTimeout
		}
	}
	return target, target.cfg.Validate()
}

// driver returns the platform driver for the target bus and a cleanup func.
func (s busTarget) driver() (i2cbus.Driver, func(), error) {
	switch s.adapter {
	case config.AdapterPeriph:
		return i2c.PeriphDriver{}, func() {}, nil
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: adaptor connect error: %w", i2cbus.ErrDriverInstall, err)
		}
		return i2c.NewGobotDriver(npi), func() {
			if err := npi.I2cBusAdaptor.Finalize(); err != nil {
				slog.Warn("could not finalize nanopi adaptor", "error", err)
			}
		}, nil
	case config.AdapterMCP2221:
		return adapter.NewMCP2221(), func() {}, nil
	case config.AdapterSim:
		return newSim(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown adapter %q", i2cbus.ErrInvalidArgument, s.adapter)
}

// demoSim is a simulated bus with an MPU6050, a TC74 and an MCP23017 attached.
func demoSim() *simbus.Bus {
	sim := simbus.New()
	sim.AddDevice(0x68).Set(0x75, 0x68).Set(0x6B, 0x40)
	sim.AddDevice(0x4D).Set(0x00, 0x17).Set(0x01, 0x40)
	sim.AddDevice(0x21).Set(0x00, 0xFF).Set(0x01, 0xFF)
	return sim
}

func commandContext(c *cli.Context) context.Context {
	return i2cctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// withBus installs the selected bus for the duration of fn.
func withBus(c *cli.Context, fn func(ctx context.Context, bus *i2cbus.Bus) error) error {
	target, err := resolveBus(c)
	if err != nil {
		return console.Fail(err, "invalid bus settings")
	}
	driver, cleanup, err := target.driver()
	if err != nil {
		return console.Fail(err, "could not prepare %s adapter", target.adapter)
	}
	defer cleanup()
	ctx := commandContext(c)
	slog.Debug("opening bus", "adapter", target.adapter, "port", target.port, "speed", target.cfg.ClockSpeed.String(), "timeout", target.cfg.Timeout)
	err = i2cbus.With(ctx, driver, target.port, target.cfg, func(bus *i2cbus.Bus) error {
		return fn(ctx, bus)
	})
	var exit cli.ExitCoder
	if err != nil && !errors.As(err, &exit) {
		return console.Fail(err, "%s bus failure", target.adapter)
	}
	return err
}

// confirmWrite asks before touching a device unless --yes is set.
func confirmWrite(c *cli.Context, format string, args ...any) error {
	if c.Bool("yes") {
		return nil
	}
	ok, err := console.Confirm(fmt.Sprintf(format, args...))
	if err != nil {
		return console.Exit(1, "could not read answer: %v", err)
	}
	if !ok {
		return console.Exit(1, "%s aborted", console.PictoStop)
	}
	return nil
}
