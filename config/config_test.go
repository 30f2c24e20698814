package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cbus"
)

const sample = `
default: imu
buses:
  imu:
    adapter: periph
    port: /dev/i2c-1
    sda: 2
    scl: 3
    clock: 400kHz
    timeout: 10ms
  bridge:
    adapter: mcp2221
    pullup: false
    tenbit: true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i2cbus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bridge", "imu"}, f.Names())

	imu, err := f.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, AdapterPeriph, imu.Adapter)
	assert.Equal(t, "/dev/i2c-1", imu.Port)
	cfg, err := imu.BusConfig()
	require.NoError(t, err)
	assert.Equal(t, i2cbus.Config{
		SDA:        2,
		SCL:        3,
		SDAPullup:  true,
		SCLPullup:  true,
		ClockSpeed: 400 * physic.KiloHertz,
		Timeout:    10 * time.Millisecond,
	}, cfg)

	bridge, err := f.Lookup("bridge")
	require.NoError(t, err)
	cfg, err = bridge.BusConfig()
	require.NoError(t, err)
	assert.Equal(t, i2cbus.NoPin, cfg.SDA)
	assert.False(t, cfg.SDAPullup)
	assert.False(t, cfg.SCLPullup)
	assert.True(t, cfg.TenBit)
	assert.Equal(t, i2cbus.DefaultClockSpeed, cfg.ClockSpeed)
	assert.Equal(t, i2cbus.DefaultTimeout, cfg.Timeout)

	_, err = f.Lookup("display")
	assert.ErrorIs(t, err, ErrUnknownBus)
}

func TestBusConfig_ZeroTimeoutDisablesDeadline(t *testing.T) {
	cfg, err := Bus{Adapter: AdapterSim, Timeout: "0s"}.BusConfig()
	require.NoError(t, err)
	assert.Equal(t, i2cbus.NoTimeout, cfg.Timeout)

	_, err = Bus{Adapter: AdapterSim, Timeout: "-5s"}.BusConfig()
	assert.ErrorIs(t, err, i2cbus.ErrInvalidArgument)
}

func TestLookup_SingleBus(t *testing.T) {
	f, err := Parse([]byte("buses:\n  only:\n    adapter: sim\n"))
	require.NoError(t, err)
	b, err := f.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, AdapterSim, b.Adapter)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"adapter":     "buses:\n  a:\n    adapter: ftdi\n",
		"clock":       "buses:\n  a:\n    adapter: sim\n    clock: fast\n",
		"clock range": "buses:\n  a:\n    adapter: sim\n    clock: 3MHz\n",
		"timeout":     "buses:\n  a:\n    adapter: sim\n    timeout: soon\n",
		"pins":        "buses:\n  a:\n    adapter: sim\n    sda: 4\n    scl: 4\n",
		"default":     "default: b\nbuses:\n  a:\n    adapter: sim\n",
		"yaml":        "buses: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}
