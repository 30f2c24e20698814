// Package environment provides temperature sensor drivers.
package environment

import (
	"context"
	"fmt"

	"github.com/mklimuk/i2cbus"
)

const tc74DefaultAddress i2cbus.Addr = 0x4D
const tc74TempRegister = 0x00
const tc74ConfigRegister = 0x01

const (
	tc74Standby = 7
	tc74DataRdy = 6
)

// TC74 represents a Microchip TC74 Digital Temperature Sensor
// See: https://ww1.microchip.com/downloads/en/DeviceDoc/21462D.pdf
//
// Usage: Instantiate with NewTC74, then call GetTemperature(ctx)
type TC74 struct {
	regs     i2cbus.Registers
	address  i2cbus.Addr
	lastTemp float32
}

type TC74Config struct {
	Address i2cbus.Addr
}

type TC74ConfigOption func(*TC74Config)

func WithAddress(address i2cbus.Addr) TC74ConfigOption {
	return func(c *TC74Config) {
		c.Address = address
	}
}

// NewTC74 creates a new TC74 sensor on the given registers.
// The default address is 0x4D.
func NewTC74(regs i2cbus.Registers, opts ...TC74ConfigOption) *TC74 {
	config := &TC74Config{
		Address: tc74DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &TC74{regs: regs, address: config.Address}
}

func (sensor *TC74) Address() i2cbus.Addr {
	return sensor.address
}

// GetConfig reads the configuration register (0x01) and returns its value.
func (sensor *TC74) GetConfig(ctx context.Context) (byte, error) {
	config, err := sensor.regs.ReadByte(ctx, sensor.address, tc74ConfigRegister)
	if err != nil {
		return 0, fmt.Errorf("tc74: could not read config register: %w", err)
	}
	return config, nil
}

// SetStandby toggles the SHDN bit; in standby the last conversion is retained.
func (sensor *TC74) SetStandby(ctx context.Context, standby bool) error {
	err := sensor.regs.WriteBit(ctx, sensor.address, tc74ConfigRegister, tc74Standby, standby)
	if err != nil {
		return fmt.Errorf("tc74: could not set standby: %w", err)
	}
	return nil
}

// GetTemperature reads the current temperature in Celsius from the TC74 sensor.
// While DATA_RDY is clear the previous reading is returned.
func (sensor *TC74) GetTemperature(ctx context.Context) (float32, error) {
	ready, err := sensor.regs.ReadBit(ctx, sensor.address, tc74ConfigRegister, tc74DataRdy)
	if err != nil {
		return 0, fmt.Errorf("tc74: could not get config: %w", err)
	}
	if !ready {
		return sensor.lastTemp, nil
	}
	raw, err := sensor.regs.ReadByte(ctx, sensor.address, tc74TempRegister)
	if err != nil {
		return 0, fmt.Errorf("tc74: could not read temp register: %w", err)
	}
	// 2's complement
	sensor.lastTemp = float32(int8(raw))
	return sensor.lastTemp, nil
}
