package environment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/simbus"
)

func TestTC74_GetTemperature(t *testing.T) {
	ctx := context.Background()
	sim := simbus.New()
	dev := sim.AddDevice(tc74DefaultAddress)
	bus, err := i2cbus.Open(ctx, sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()
	sensor := NewTC74(bus)

	tests := []struct {
		raw  byte
		want float32
	}{
		{0x19, 25},
		{0x00, 0},
		{0x7F, 127},
		{0xFF, -1},
		{0xE7, -25},
		{0x80, -128},
	}
	dev.Set(tc74ConfigRegister, 0x40)
	for _, test := range tests {
		dev.Set(tc74TempRegister, test.raw)
		temp, err := sensor.GetTemperature(ctx)
		require.NoError(t, err)
		assert.Equal(t, test.want, temp)
	}
}

func TestTC74_NotReadyKeepsLastReading(t *testing.T) {
	ctx := context.Background()
	sim := simbus.New()
	dev := sim.AddDevice(0x48)
	bus, err := i2cbus.Open(ctx, sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()
	sensor := NewTC74(bus, WithAddress(0x48))

	dev.Set(tc74ConfigRegister, 0x40).Set(tc74TempRegister, 21)
	temp, err := sensor.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(21), temp)

	dev.Set(tc74ConfigRegister, 0x00).Set(tc74TempRegister, 30)
	sim.ResetLog()
	temp, err = sensor.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(21), temp)
	// only the config register was read
	assert.Equal(t, 1, sim.Count())
}

func TestTC74_Standby(t *testing.T) {
	ctx := context.Background()
	sim := simbus.New()
	dev := sim.AddDevice(tc74DefaultAddress)
	bus, err := i2cbus.Open(ctx, sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()
	sensor := NewTC74(bus)

	dev.Set(tc74ConfigRegister, 0x40)
	require.NoError(t, sensor.SetStandby(ctx, true))
	assert.Equal(t, byte(0xC0), dev.Get(tc74ConfigRegister))
	require.NoError(t, sensor.SetStandby(ctx, false))
	cfg, err := sensor.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), cfg)
}

func TestTC74_Absent(t *testing.T) {
	ctx := context.Background()
	sim := simbus.New()
	bus, err := i2cbus.Open(ctx, sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()
	_, err = NewTC74(bus).GetTemperature(ctx)
	assert.ErrorIs(t, err, i2cbus.ErrTransferFailed)
}
