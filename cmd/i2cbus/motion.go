package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/accel"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
)

const (
	sensorBMA220  = "bma220"
	sensorMPU6050 = "mpu6050"
)

var sensorFlag = &cli.StringFlag{
	Name:    "sensor",
	Aliases: []string{"s"},
	Value:   sensorMPU6050,
	Usage:   "bma220 or mpu6050",
}

var motionCmd = cli.Command{
	Name:  "motion",
	Usage: "accelerometer commands",
	Subcommands: cli.Commands{
		&motionInitCmd,
		&motionCheckCmd,
		&motionWakeCmd,
		&motionResetCmd,
	},
}

var motionInitCmd = cli.Command{
	Name:  "init",
	Usage: "configure motion detection (bma220) or identify the device (mpu6050)",
	Flags: []cli.Flag{sensorFlag},
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			switch c.String("sensor") {
			case sensorBMA220:
				if err := accel.NewBMA220(bus).InitMotionDetection(ctx); err != nil {
					return console.Fail(err, "error initializing BMA220")
				}
			case sensorMPU6050:
				m := accel.NewMPU6050(bus, accel.MPU6050AddressLow)
				ok, err := m.TestConnection(ctx)
				if err != nil {
					return console.Fail(err, "error identifying MPU6050")
				}
				if !ok {
					return console.Exit(3, "device at %s is not an MPU6050", accel.MPU6050AddressLow)
				}
				if err := m.SetClockSource(ctx, accel.ClockPLLGyroX); err != nil {
					return console.Fail(err, "error initializing MPU6050")
				}
			default:
				return console.Exit(2, "unknown sensor %q", c.String("sensor"))
			}
			console.Infof("%s initialized", c.String("sensor"))
			return nil
		})
	},
}

var motionCheckCmd = cli.Command{
	Name:  "check",
	Usage: "check the motion interrupt (bma220) or read acceleration (mpu6050)",
	Flags: []cli.Flag{sensorFlag},
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			switch c.String("sensor") {
			case sensorBMA220:
				motion, err := accel.NewBMA220(bus).CheckMotionInterrupt(ctx)
				if err != nil {
					return console.Fail(err, "error checking motion detection on BMA220")
				}
				if motion {
					console.Printf("motion interrupt: %s\n", console.Yellow(motion))
				} else {
					console.Printf("motion interrupt: %s\n", console.Green(motion))
				}
			case sensorMPU6050:
				x, y, z, err := accel.NewMPU6050(bus, accel.MPU6050AddressLow).Acceleration(ctx)
				if err != nil {
					return console.Fail(err, "error reading MPU6050")
				}
				console.Printf("x: %s y: %s z: %s\n", console.White(x), console.White(y), console.White(z))
			default:
				return console.Exit(2, "unknown sensor %q", c.String("sensor"))
			}
			return nil
		})
	},
}

var motionWakeCmd = cli.Command{
	Name:  "wake",
	Usage: "clear the motion interrupt (bma220) or leave sleep mode (mpu6050)",
	Flags: []cli.Flag{sensorFlag},
	Action: func(c *cli.Context) error {
		if err := confirmWrite(c, "wake %s?", c.String("sensor")); err != nil {
			return err
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			switch c.String("sensor") {
			case sensorBMA220:
				if err := accel.NewBMA220(bus).ResetMotionInterrupt(ctx); err != nil {
					return console.Fail(err, "error resetting motion detection on BMA220")
				}
			case sensorMPU6050:
				if err := accel.NewMPU6050(bus, accel.MPU6050AddressLow).SetSleep(ctx, false); err != nil {
					return console.Fail(err, "error waking MPU6050")
				}
			default:
				return console.Exit(2, "unknown sensor %q", c.String("sensor"))
			}
			return nil
		})
	},
}

var motionResetCmd = cli.Command{
	Name:  "reset",
	Usage: "reset all registers to power-on defaults (mpu6050 only)",
	Flags: []cli.Flag{sensorFlag},
	Action: func(c *cli.Context) error {
		if c.String("sensor") != sensorMPU6050 {
			return console.Exit(2, "reset is not supported on %q", c.String("sensor"))
		}
		if err := confirmWrite(c, "reset %s?", c.String("sensor")); err != nil {
			return err
		}
		return withBus(c, func(ctx context.Context, bus *i2cbus.Bus) error {
			if err := accel.NewMPU6050(bus, accel.MPU6050AddressLow).Reset(ctx); err != nil {
				return console.Fail(err, "error resetting MPU6050")
			}
			return nil
		})
	},
}
