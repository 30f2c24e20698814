package i2cbus

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// NoPin leaves pin selection to the platform.
const NoPin = -1

// NoTimeout in Config.Timeout installs the bus without a default deadline.
const NoTimeout time.Duration = -1

const (
	DefaultClockSpeed = 100 * physic.KiloHertz
	MaxClockSpeed     = physic.MegaHertz
	DefaultTimeout    = time.Second
)

// Config describes how a bus is brought up by Begin.
//
// Zero ClockSpeed and zero Timeout are replaced with DefaultClockSpeed and
// DefaultTimeout; set Timeout to NoTimeout to disable the default deadline.
// Use DefaultConfig to start from platform pins.
type Config struct {
	SDA        int
	SCL        int
	SDAPullup  bool
	SCLPullup  bool
	ClockSpeed physic.Frequency
	Timeout    time.Duration
	// TenBit allows addresses above 0x7F.
	TenBit bool
}

func DefaultConfig() Config {
	return Config{
		SDA:        NoPin,
		SCL:        NoPin,
		SDAPullup:  true,
		SCLPullup:  true,
		ClockSpeed: DefaultClockSpeed,
		Timeout:    DefaultTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.ClockSpeed == 0 {
		c.ClockSpeed = DefaultClockSpeed
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate reports malformed pins, speed or timeout as ErrInvalidArgument.
func (c Config) Validate() error {
	if c.SDA < NoPin {
		return invalidArgument("sda pin %d", c.SDA)
	}
	if c.SCL < NoPin {
		return invalidArgument("scl pin %d", c.SCL)
	}
	if c.SDA != NoPin && c.SDA == c.SCL {
		return invalidArgument("sda and scl share pin %d", c.SDA)
	}
	if c.ClockSpeed < 0 || c.ClockSpeed > MaxClockSpeed {
		return invalidArgument("clock speed %s out of range (max %s)", c.ClockSpeed, MaxClockSpeed)
	}
	if c.Timeout < 0 && c.Timeout != NoTimeout {
		return invalidArgument("negative timeout %s", c.Timeout)
	}
	return nil
}
