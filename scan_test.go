package i2cbus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/simbus"
)

func TestScan(t *testing.T) {
	ctx := context.Background()
	sim := simbus.New()
	sim.AddDevice(0x68)
	sim.AddDevice(0x3C)
	// outside of the scanned range
	sim.AddDevice(0x02)
	sim.AddDevice(0x78)
	bus, err := i2cbus.Open(ctx, sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()

	found, err := bus.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []i2cbus.Addr{0x3C, 0x68}, found)

	txs := sim.Transactions()
	require.Len(t, txs, 0x77-0x03+1)
	for i, tx := range txs {
		assert.Equal(t, i2cbus.Addr(0x03+i), tx.Addr)
		assert.True(t, tx.IsProbe())
	}
}

func TestScan_TimeoutIsAbsent(t *testing.T) {
	ctx := context.Background()
	sim := simbus.New()
	sim.AddDevice(0x10)
	sim.AddDevice(0x20)
	sim.OnTx(func(ctx context.Context, tx simbus.Tx) error {
		if tx.Addr == 0x10 {
			return i2cbus.ErrBusBusy
		}
		return nil
	})
	bus, err := i2cbus.Open(ctx, sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()
	found, err := bus.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []i2cbus.Addr{0x20}, found)
}

func TestScan_Cancelled(t *testing.T) {
	sim := simbus.New()
	bus, err := i2cbus.Open(context.Background(), sim, "sim0", i2cbus.DefaultConfig())
	require.NoError(t, err)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	sim.OnTx(func(_ context.Context, tx simbus.Tx) error {
		if tx.Addr == 0x10 {
			cancel()
		}
		return nil
	})
	_, err = bus.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0x10-0x03+1, sim.Count())
}

func TestScan_NotInstalled(t *testing.T) {
	bus := i2cbus.New(simbus.New(), "sim0")
	_, err := bus.Scan(context.Background())
	assert.ErrorIs(t, err, i2cbus.ErrDriverNotReady)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	_, bus := openSim(t)
	assert.NoError(t, bus.TestConnection(ctx, testDev))
	err := bus.TestConnection(ctx, 0x3C)
	assert.ErrorIs(t, err, i2cbus.ErrTransferFailed)
	assert.Equal(t, i2cbus.TransferFailed, i2cbus.OutcomeOf(err))
}
