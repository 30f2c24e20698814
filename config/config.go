// Package config loads named bus definitions from a YAML file.
//
//	default: imu
//	buses:
//	  imu:
//	    adapter: periph
//	    port: /dev/i2c-1
//	    clock: 400kHz
//	    timeout: 10ms
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cbus"
)

const (
	AdapterPeriph  = "periph"
	AdapterNanoPi  = "nanopi"
	AdapterMCP2221 = "mcp2221"
	AdapterSim     = "sim"
)

var Adapters = []string{AdapterPeriph, AdapterNanoPi, AdapterMCP2221, AdapterSim}

var ErrUnknownBus = errors.New("unknown bus")

type File struct {
	Default string         `yaml:"default"`
	Buses   map[string]Bus `yaml:"buses"`
}

// Bus is one named bus. Unset pins mean platform default, unset pull-up means enabled.
type Bus struct {
	Adapter string `yaml:"adapter"`
	Port    string `yaml:"port"`
	SDA     *int   `yaml:"sda,omitempty"`
	SCL     *int   `yaml:"scl,omitempty"`
	Pullup  *bool  `yaml:"pullup,omitempty"`
	Clock   string `yaml:"clock,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
	TenBit  bool   `yaml:"tenbit,omitempty"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	for name, b := range f.Buses {
		if !knownAdapter(b.Adapter) {
			return nil, fmt.Errorf("bus %s: unknown adapter %q (expected one of %v)", name, b.Adapter, Adapters)
		}
		if _, err := b.BusConfig(); err != nil {
			return nil, fmt.Errorf("bus %s: %w", name, err)
		}
	}
	if f.Default != "" {
		if _, ok := f.Buses[f.Default]; !ok {
			return nil, fmt.Errorf("default bus %q: %w", f.Default, ErrUnknownBus)
		}
	}
	return &f, nil
}

// Lookup returns the named bus. An empty name selects the default bus, or
// the only bus when there is exactly one.
func (f *File) Lookup(name string) (Bus, error) {
	if name == "" {
		name = f.Default
	}
	if name == "" && len(f.Buses) == 1 {
		for _, b := range f.Buses {
			return b, nil
		}
	}
	b, ok := f.Buses[name]
	if !ok {
		return Bus{}, fmt.Errorf("%w %q (configured: %v)", ErrUnknownBus, name, f.Names())
	}
	return b, nil
}

func (f *File) Names() []string {
	names := make([]string, 0, len(f.Buses))
	for name := range f.Buses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BusConfig converts the file entry into a bus configuration.
func (b Bus) BusConfig() (i2cbus.Config, error) {
	cfg := i2cbus.DefaultConfig()
	if b.SDA != nil {
		cfg.SDA = *b.SDA
	}
	if b.SCL != nil {
		cfg.SCL = *b.SCL
	}
	if b.Pullup != nil {
		cfg.SDAPullup = *b.Pullup
		cfg.SCLPullup = *b.Pullup
	}
	if b.Clock != "" {
		var f physic.Frequency
		if err := f.Set(b.Clock); err != nil {
			return cfg, fmt.Errorf("%w: clock %q: %v", i2cbus.ErrInvalidArgument, b.Clock, err)
		}
		cfg.ClockSpeed = f
	}
	if b.Timeout != "" {
		d, err := time.ParseDuration(b.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("%w: timeout %q: %v", i2cbus.ErrInvalidArgument, b.Timeout, err)
		}
		cfg.Timeout = d
		if d == 0 {
			cfg.Timeout = i2cbus.NoTimeout
		}
	}
	cfg.TenBit = b.TenBit
	return cfg, cfg.Validate()
}

func knownAdapter(name string) bool {
	for _, a := range Adapters {
		if a == name {
			return true
		}
	}
	return false
}
