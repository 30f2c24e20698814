package gpio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/simbus"
)

func setup(t *testing.T, opts ...MCP23017Option) (*simbus.Bus, *simbus.Device, *MCP23017) {
	t.Helper()
	sim := simbus.New()
	dev := sim.AddDevice(DefaultMCP23017Address)
	bus, err := i2cbus.Open(context.Background(), sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return sim, dev, NewMCP23017(bus, DefaultMCP23017Address, opts...)
}

func TestMCP23017_RegisterLayout(t *testing.T) {
	m := &MCP23017{}
	tests := []struct {
		reg   register
		port  Port
		bank0 byte
		bank1 byte
	}{
		{regIODIR, PortA, 0x00, 0x00},
		{regIODIR, PortB, 0x01, 0x10},
		{regIOCON, PortA, 0x0A, 0x05},
		{regGPPU, PortB, 0x0D, 0x16},
		{regGPIO, PortA, 0x12, 0x09},
		{regGPIO, PortB, 0x13, 0x19},
		{regOLAT, PortA, 0x14, 0x0A},
		{regOLAT, PortB, 0x15, 0x1A},
	}
	for _, test := range tests {
		m.bank = 0
		assert.Equal(t, test.bank0, m.addr(test.reg, test.port))
		m.bank = 1
		assert.Equal(t, test.bank1, m.addr(test.reg, test.port))
	}
}

func TestMCP23017_ReadPorts(t *testing.T) {
	ctx := context.Background()
	_, dev, m := setup(t)
	dev.Set(0x12, 0xA5).Set(0x13, 0x5A)

	require.NoError(t, m.SetDirection(ctx, PortA, 0xFF))
	require.NoError(t, m.PullUp(ctx, PortA, 0x0F))
	assert.Equal(t, byte(0xFF), dev.Get(0x00))
	assert.Equal(t, byte(0x0F), dev.Get(0x0C))

	res, err := m.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5, 0x5A}, res)

	high, err := m.ReadPin(ctx, PortA, 7)
	require.NoError(t, err)
	assert.True(t, high)
	high, err = m.ReadPin(ctx, PortB, 0)
	require.NoError(t, err)
	assert.False(t, high)
}

func TestMCP23017_WritePinKeepsOthers(t *testing.T) {
	ctx := context.Background()
	_, dev, m := setup(t)
	dev.Set(0x14, 0b1000_0001)
	require.NoError(t, m.WritePin(ctx, PortA, 3, true))
	assert.Equal(t, byte(0b1000_1001), dev.Get(0x14))
	require.NoError(t, m.WritePin(ctx, PortA, 7, false))
	assert.Equal(t, byte(0b0000_1001), dev.Get(0x14))

	dev.Set(0x01, 0xFF)
	require.NoError(t, m.SetPinDirection(ctx, PortB, 2, false))
	assert.Equal(t, byte(0b1111_1011), dev.Get(0x01))
}

func TestMCP23017_Bank(t *testing.T) {
	ctx := context.Background()
	_, dev, m := setup(t)
	require.NoError(t, m.SetBank(ctx, 1))
	assert.Equal(t, byte(0x80), dev.Get(0x0A))
	// IOCON now lives at 0x05
	dev.Set(0x05, 0x80)
	require.NoError(t, m.MirrorInterrupts(ctx, true))
	assert.Equal(t, byte(0xC0), dev.Get(0x05))
	require.NoError(t, m.Sequential(ctx, false))
	assert.Equal(t, byte(0xE0), dev.Get(0x05))

	require.NoError(t, m.Write(ctx, PortB, 0x42))
	assert.Equal(t, byte(0x42), dev.Get(0x1A))

	assert.ErrorIs(t, m.SetBank(ctx, 2), i2cbus.ErrInvalidArgument)
}

func TestMCP23017_Settings(t *testing.T) {
	ctx := context.Background()
	_, dev, m := setup(t)
	require.NoError(t, m.WriteSettings(ctx, 0x84))
	assert.Equal(t, byte(0x84), dev.Get(0x0A))
	assert.Equal(t, byte(1), m.bank)
	dev.Set(0x05, 0x84)
	v, err := m.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x84), v)
}

func TestMCP23017_RetryOnBusy(t *testing.T) {
	ctx := context.Background()
	sim, _, m := setup(t, WithRetryLimit(3))
	attempts := 0
	sim.OnTx(func(ctx context.Context, tx simbus.Tx) error {
		attempts++
		if attempts < 3 {
			return i2cbus.ErrBusBusy
		}
		return nil
	})
	require.NoError(t, m.Invert(ctx, PortA, 0x01))
	assert.Equal(t, 3, attempts)

	sim.OnTx(func(ctx context.Context, tx simbus.Tx) error {
		return i2cbus.ErrBusBusy
	})
	err := m.Invert(ctx, PortA, 0x01)
	assert.ErrorIs(t, err, i2cbus.ErrBusBusy)
	assert.Contains(t, err.Error(), "retry limit reached")
}

func TestMCP23017_NoRetryOnOtherErrors(t *testing.T) {
	ctx := context.Background()
	sim, _, m := setup(t, WithRetryLimit(3))
	sim.RemoveDevice(DefaultMCP23017Address)
	_, err := m.Read(ctx, PortA)
	assert.ErrorIs(t, err, i2cbus.ErrTransferFailed)
	assert.Equal(t, 1, sim.Count())
}
