package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cbus"
)

func TestSpeedDivider(t *testing.T) {
	tests := []struct {
		speed    physic.Frequency
		expected byte
	}{
		{100 * physic.KiloHertz, 117},
		{400 * physic.KiloHertz, 27},
		{50 * physic.KiloHertz, 237},
	}
	for _, test := range tests {
		t.Run(test.speed.String(), func(t *testing.T) {
			cfg := i2cbus.DefaultConfig()
			cfg.ClockSpeed = test.speed
			div, err := speedDivider(cfg)
			require.NoError(t, err)
			assert.Equal(t, test.expected, div)
		})
	}
}

func TestSpeedDivider_OutOfRange(t *testing.T) {
	for _, speed := range []physic.Frequency{0, 20 * physic.KiloHertz, 5 * physic.MegaHertz} {
		cfg := i2cbus.DefaultConfig()
		cfg.ClockSpeed = speed
		_, err := speedDivider(cfg)
		assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument, speed.String())
	}
}

func TestBufferToStatus(t *testing.T) {
	buf := make([]byte, 64)
	buf[8] = stateAddrNACK
	buf[9], buf[10] = 0x02, 0x01
	buf[11], buf[12] = 0x01, 0x00
	buf[13] = 4
	buf[14] = 117
	buf[15] = 9
	buf[16], buf[17] = 0xD0, 0x00
	buf[25] = 1
	status := bufferToStatus(buf)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   4,
		I2CSpeedDivider:        117,
		I2CTimeout:             9,
		I2CState:               stateAddrNACK,
		CurrentAddress:         "d000",
		LastWriteRequestedSize: 0x0102,
		LastWriteSentSize:      1,
		ReadPending:            1,
	}, status)
}

func TestMCP2221_TxLimits(t *testing.T) {
	d := NewMCP2221()
	ctx := context.Background()
	err := d.Tx(ctx, 0x20, make([]byte, MaxTransfer+1), nil)
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
	err = d.Tx(ctx, 0x20, []byte{0x00}, make([]byte, MaxTransfer+1))
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
	err = d.Tx(ctx, 0x120, []byte{0x00}, nil)
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
}

func TestMCP2221_InstallBadPort(t *testing.T) {
	_, err := NewMCP2221().Install(context.Background(), "first", i2cbus.DefaultConfig())
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
}

func TestNewMCP2221At(t *testing.T) {
	d, err := NewMCP2221At("")
	require.NoError(t, err)
	assert.Equal(t, -1, d.index)

	d, err = NewMCP2221At("1")
	require.NoError(t, err)
	assert.Equal(t, 1, d.index)

	_, err = NewMCP2221At("-2")
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
	_, err = NewMCP2221At("/dev/i2c-1")
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
}
