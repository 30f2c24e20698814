package accel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/simbus"
)

func openSim(t *testing.T, addr i2cbus.Addr) (*simbus.Bus, *simbus.Device, *i2cbus.Bus) {
	t.Helper()
	sim := simbus.New()
	dev := sim.AddDevice(addr)
	bus, err := i2cbus.Open(context.Background(), sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return sim, dev, bus
}

func TestMPU6050_Identity(t *testing.T) {
	ctx := context.Background()
	_, dev, bus := openSim(t, MPU6050AddressLow)
	m := NewMPU6050(bus, MPU6050AddressLow)

	dev.Set(mpuRegWhoAmI, 0x68)
	ok, err := m.TestConnection(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	dev.Set(mpuRegWhoAmI, 0x70)
	ok, err = m.TestConnection(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMPU6050_WakeAndConfigure(t *testing.T) {
	ctx := context.Background()
	_, dev, bus := openSim(t, MPU6050AddressLow)
	m := NewMPU6050(bus, MPU6050AddressLow)
	// power-on state: sleeping on the internal oscillator
	dev.Set(mpuRegPwrMgmt1, 0x40)

	sleeping, err := m.Sleeping(ctx)
	require.NoError(t, err)
	assert.True(t, sleeping)

	require.NoError(t, m.SetClockSource(ctx, ClockPLLGyroX))
	assert.Equal(t, byte(0x41), dev.Get(mpuRegPwrMgmt1))
	require.NoError(t, m.SetSleep(ctx, false))
	assert.Equal(t, byte(0x01), dev.Get(mpuRegPwrMgmt1))

	dev.Set(mpuRegAccelConfig, 0xE7)
	require.NoError(t, m.SetAccelRange(ctx, 2))
	assert.Equal(t, byte(0xF7), dev.Get(mpuRegAccelConfig))
	afs, err := m.AccelRange(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(2), afs)

	require.NoError(t, m.SetGyroRange(ctx, 3))
	assert.Equal(t, byte(0x18), dev.Get(mpuRegGyroConfig))

	assert.ErrorIs(t, m.SetAccelRange(ctx, 4), i2cbus.ErrInvalidArgument)
	assert.ErrorIs(t, m.SetClockSource(ctx, 8), i2cbus.ErrInvalidArgument)
}

func TestMPU6050_Reset(t *testing.T) {
	ctx := context.Background()
	sim, dev, bus := openSim(t, MPU6050AddressLow)
	m := NewMPU6050(bus, MPU6050AddressLow)
	dev.Set(mpuRegPwrMgmt1, 0x01)
	require.NoError(t, m.Reset(ctx))
	assert.Equal(t, byte(0x81), dev.Get(mpuRegPwrMgmt1))
	assert.Equal(t, 2, sim.Count())

	sim.OnTx(simbus.FailReads(MPU6050AddressLow, i2cbus.ErrTransferFailed))
	assert.ErrorIs(t, m.Reset(ctx), i2cbus.ErrRegisterRead)
}

func TestMPU6050_Acceleration(t *testing.T) {
	ctx := context.Background()
	sim, dev, bus := openSim(t, MPU6050AddressHigh)
	m := NewMPU6050(bus, MPU6050AddressHigh)
	dev.Set(0x3B, 0x40).Set(0x3C, 0x00).
		Set(0x3D, 0xFF).Set(0x3E, 0x38).
		Set(0x3F, 0x80).Set(0x40, 0x00)

	x, y, z, err := m.Acceleration(ctx)
	require.NoError(t, err)
	assert.Equal(t, int16(16384), x)
	assert.Equal(t, int16(-200), y)
	assert.Equal(t, int16(-32768), z)
	assert.Equal(t, 1, sim.Count())
}

func TestBMA220_InitMotionDetection(t *testing.T) {
	ctx := context.Background()
	_, dev, bus := openSim(t, BMA220Address)
	b := NewBMA220(bus)

	require.NoError(t, b.InitMotionDetection(ctx))
	assert.Equal(t, byte(0x03), dev.Get(regRange))
	assert.Equal(t, byte(0x70), dev.Get(regLatch))
	assert.Equal(t, byte(0x38), dev.Get(regSlopeDet))
	// threshold 1, one sample, filtered
	assert.Equal(t, byte(0x44), dev.Get(regSlopeSettings))
	assert.Equal(t, byte(0x06), dev.Get(regWatchdog))
}

func TestBMA220_Interrupt(t *testing.T) {
	ctx := context.Background()
	_, dev, bus := openSim(t, BMA220Address)
	b := NewBMA220(bus)

	motion, err := b.CheckMotionInterrupt(ctx)
	require.NoError(t, err)
	assert.False(t, motion)

	dev.Set(regInterrupts, 0x01)
	motion, err = b.CheckMotionInterrupt(ctx)
	require.NoError(t, err)
	assert.True(t, motion)

	dev.Set(regLatch, 0x70)
	require.NoError(t, b.ResetMotionInterrupt(ctx))
	assert.Equal(t, byte(0xF0), dev.Get(regLatch))
}

func TestBMA220_InvalidSettings(t *testing.T) {
	ctx := context.Background()
	sim, _, bus := openSim(t, BMA220Address)
	b := NewBMA220(bus)
	assert.ErrorIs(t, b.SetRange(ctx, 4), i2cbus.ErrInvalidArgument)
	assert.ErrorIs(t, b.SetSlope(ctx, 16, 1, false), i2cbus.ErrInvalidArgument)
	assert.ErrorIs(t, b.SetSlope(ctx, 1, 0, false), i2cbus.ErrInvalidArgument)
	assert.Equal(t, 0, sim.Count())
}
