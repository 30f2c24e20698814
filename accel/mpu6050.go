// Package accel provides accelerometer drivers built on register access.
package accel

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/i2cbus"
)

// MPU6050 addresses, selected with the AD0 pin.
const (
	MPU6050AddressLow  i2cbus.Addr = 0x68
	MPU6050AddressHigh i2cbus.Addr = 0x69
)

const (
	mpuRegGyroConfig  = 0x1B
	mpuRegAccelConfig = 0x1C
	mpuRegAccelXOutH  = 0x3B
	mpuRegPwrMgmt1    = 0x6B
	mpuRegWhoAmI      = 0x75

	mpuPwrSleep     = 6
	mpuPwrReset     = 7
	mpuWhoAmIDevice = 0x34
)

// ClockSource is the CLKSEL field of PWR_MGMT_1.
type ClockSource byte

const (
	ClockInternal ClockSource = 0
	ClockPLLGyroX ClockSource = 1
	ClockPLLGyroY ClockSource = 2
	ClockPLLGyroZ ClockSource = 3
)

// MPU6050 represents an InvenSense MPU-6050 motion tracking device.
//
//	m := NewMPU6050(bus, MPU6050AddressLow)
//	err := m.SetSleep(ctx, false)
//	x, y, z, err := m.Acceleration(ctx)
type MPU6050 struct {
	regs i2cbus.Registers
	addr i2cbus.Addr
}

func NewMPU6050(regs i2cbus.Registers, addr i2cbus.Addr) *MPU6050 {
	return &MPU6050{regs: regs, addr: addr}
}

// TestConnection checks the WHO_AM_I identity bits.
func (m *MPU6050) TestConnection(ctx context.Context) (bool, error) {
	id, err := m.regs.ReadBits(ctx, m.addr, mpuRegWhoAmI, 6, 6)
	if err != nil {
		return false, fmt.Errorf("mpu6050: could not read identity: %w", err)
	}
	return id == mpuWhoAmIDevice, nil
}

func (m *MPU6050) Reset(ctx context.Context) error {
	err := m.regs.WriteBit(ctx, m.addr, mpuRegPwrMgmt1, mpuPwrReset, true)
	if err != nil {
		return fmt.Errorf("mpu6050: reset failed: %w", err)
	}
	return nil
}

// SetSleep puts the device in or out of sleep mode. It powers up sleeping.
func (m *MPU6050) SetSleep(ctx context.Context, sleep bool) error {
	err := m.regs.WriteBit(ctx, m.addr, mpuRegPwrMgmt1, mpuPwrSleep, sleep)
	if err != nil {
		return fmt.Errorf("mpu6050: could not set sleep mode: %w", err)
	}
	return nil
}

func (m *MPU6050) Sleeping(ctx context.Context) (bool, error) {
	sleep, err := m.regs.ReadBit(ctx, m.addr, mpuRegPwrMgmt1, mpuPwrSleep)
	if err != nil {
		return false, fmt.Errorf("mpu6050: could not read sleep mode: %w", err)
	}
	return sleep, nil
}

func (m *MPU6050) SetClockSource(ctx context.Context, src ClockSource) error {
	if src > 7 {
		return fmt.Errorf("%w: clock source %d", i2cbus.ErrInvalidArgument, src)
	}
	err := m.regs.WriteBits(ctx, m.addr, mpuRegPwrMgmt1, 2, 3, byte(src))
	if err != nil {
		return fmt.Errorf("mpu6050: could not set clock source: %w", err)
	}
	return nil
}

// SetAccelRange selects ±2g, ±4g, ±8g or ±16g (AFS_SEL 0-3).
func (m *MPU6050) SetAccelRange(ctx context.Context, afs byte) error {
	if afs > 3 {
		return fmt.Errorf("%w: accel range %d", i2cbus.ErrInvalidArgument, afs)
	}
	err := m.regs.WriteBits(ctx, m.addr, mpuRegAccelConfig, 4, 2, afs)
	if err != nil {
		return fmt.Errorf("mpu6050: could not set accel range: %w", err)
	}
	return nil
}

func (m *MPU6050) AccelRange(ctx context.Context) (byte, error) {
	afs, err := m.regs.ReadBits(ctx, m.addr, mpuRegAccelConfig, 4, 2)
	if err != nil {
		return 0, fmt.Errorf("mpu6050: could not read accel range: %w", err)
	}
	return afs, nil
}

// SetGyroRange selects ±250, ±500, ±1000 or ±2000 °/s (FS_SEL 0-3).
func (m *MPU6050) SetGyroRange(ctx context.Context, fs byte) error {
	if fs > 3 {
		return fmt.Errorf("%w: gyro range %d", i2cbus.ErrInvalidArgument, fs)
	}
	err := m.regs.WriteBits(ctx, m.addr, mpuRegGyroConfig, 4, 2, fs)
	if err != nil {
		return fmt.Errorf("mpu6050: could not set gyro range: %w", err)
	}
	return nil
}

// Acceleration returns raw accelerometer samples read in one burst.
func (m *MPU6050) Acceleration(ctx context.Context) (x, y, z int16, err error) {
	buf := make([]byte, 6)
	err = m.regs.ReadBytes(ctx, m.addr, mpuRegAccelXOutH, buf)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("mpu6050: could not read acceleration: %w", err)
	}
	x = int16(binary.BigEndian.Uint16(buf[0:2]))
	y = int16(binary.BigEndian.Uint16(buf[2:4]))
	z = int16(binary.BigEndian.Uint16(buf[4:6]))
	return x, y, z, nil
}
