package simbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cbus"
)

func TestBus_RegisterFile(t *testing.T) {
	ctx := context.Background()
	sim := New()
	sim.AddDevice(0x50).Set(0x10, 0xAA).Set(0x11, 0xBB)
	c, err := sim.Install(ctx, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)

	buf := make([]byte, 2)
	require.NoError(t, c.Tx(ctx, 0x50, []byte{0x10}, buf))
	assert.Equal(t, []byte{0xAA, 0xBB}, buf)

	require.NoError(t, c.Tx(ctx, 0x50, []byte{0xFF, 0x01, 0x02}, nil))
	d, ok := sim.Device(0x50)
	require.True(t, ok)
	assert.Equal(t, byte(0x01), d.Get(0xFF))
	// pointer wraps around
	assert.Equal(t, byte(0x02), d.Get(0x00))
	assert.Equal(t, 2, sim.Count())
}

func TestBus_AbsentDevice(t *testing.T) {
	ctx := context.Background()
	sim := New()
	c, err := sim.Install(ctx, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	err = c.Tx(ctx, 0x20, nil, nil)
	assert.ErrorIs(t, err, i2cbus.ErrTransferFailed)
	assert.True(t, sim.Transactions()[0].IsProbe())
}

func TestBus_InstallLifecycle(t *testing.T) {
	ctx := context.Background()
	sim := New()
	c, err := sim.Install(ctx, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	_, err = sim.Install(ctx, "sim0", i2cbus.DefaultConfig())
	assert.ErrorIs(t, err, i2cbus.ErrAlreadyInstalled)

	require.NoError(t, c.Close())
	_, ok := sim.Installed("sim0")
	assert.False(t, ok)
	assert.ErrorIs(t, c.Tx(ctx, 0x20, nil, nil), i2cbus.ErrDriverNotReady)
}

func TestBus_Behaviors(t *testing.T) {
	ctx := context.Background()
	sim := New()
	sim.AddDevice(0x50)
	c, err := sim.Install(ctx, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)

	boom := errors.New("boom")
	sim.OnTx(FailReads(0x50, boom))
	assert.ErrorIs(t, c.Tx(ctx, 0x50, []byte{0x00}, make([]byte, 1)), boom)
	assert.NoError(t, c.Tx(ctx, 0x50, []byte{0x00, 0x01}, nil))

	sim.OnTx(FailWrites(0x50, boom))
	assert.ErrorIs(t, c.Tx(ctx, 0x50, []byte{0x00, 0x01}, nil), boom)
	assert.NoError(t, c.Tx(ctx, 0x50, []byte{0x00}, make([]byte, 1)))

	sim.OnTx(nil)
	sim.ResetLog()
	assert.Equal(t, 0, sim.Count())
}
