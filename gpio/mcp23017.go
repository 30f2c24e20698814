package gpio

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/i2cbus"
)

const DefaultMCP23017Address i2cbus.Addr = 0x21

// Port selects one of the two 8-bit I/O ports.
type Port byte

const (
	PortA Port = iota
	PortB
)

func (p Port) String() string {
	if p == PortB {
		return "B"
	}
	return "A"
}

type register byte

// Register order as laid out in bank 0.
const (
	regIODIR register = iota
	regIPOL
	regGPINTEN
	regDEFVAL
	regINTCON
	regIOCON
	regGPPU
	regINTF
	regINTCAP
	regGPIO
	regOLAT
)

// IOCON bits
const (
	ioconBank   = 7
	ioconMirror = 6
	ioconSeqOp  = 5
)

type MCP23017Option func(*MCP23017)

// WithRetryLimit sets how many times a call is attempted when the bus
// reports ErrBusBusy. The bus is released between attempts.
func WithRetryLimit(limit int) MCP23017Option {
	return func(m *MCP23017) {
		m.retryLimit = limit
	}
}

/*
MCP23017 is a Microchip 16-bit I/O expander.

Steps to read GPIO:

1. Set 0xFF to IODIR (all inputs)
2. Configure pull-ups in GPPU
3. Read the GPIO register
*/
type MCP23017 struct {
	regs       i2cbus.Registers
	address    i2cbus.Addr
	bank       byte
	retryLimit int
}

func NewMCP23017(regs i2cbus.Registers, address i2cbus.Addr, opts ...MCP23017Option) *MCP23017 {
	m := &MCP23017{regs: regs, address: address, retryLimit: 1}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// addr maps a register to its address in the current bank mode.
func (m *MCP23017) addr(reg register, port Port) byte {
	if m.bank == 0 {
		return byte(reg)<<1 | byte(port)
	}
	return byte(port)<<4 | byte(reg)
}

func (m *MCP23017) retry(ctx context.Context, fn func() error) error {
	var err error
	for i := max(m.retryLimit, 1); i > 0; i-- {
		err = fn()
		if err == nil || !errors.Is(err, i2cbus.ErrBusBusy) {
			return err
		}
		// try to release the bus
		if r, ok := m.regs.(i2cbus.Releaser); ok {
			_ = r.Release(ctx)
		}
	}
	return fmt.Errorf("retry limit reached: %w", err)
}

// SetDirection writes IODIR; a set bit makes the pin an input.
func (m *MCP23017) SetDirection(ctx context.Context, port Port, inputs byte) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteByte(ctx, m.address, m.addr(regIODIR, port), inputs)
	})
	if err != nil {
		return fmt.Errorf("could not set direction of gpio %s set: %w", port, err)
	}
	return nil
}

// SetPinDirection changes the direction of a single pin.
func (m *MCP23017) SetPinDirection(ctx context.Context, port Port, pin uint8, input bool) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteBit(ctx, m.address, m.addr(regIODIR, port), pin, input)
	})
	if err != nil {
		return fmt.Errorf("could not set direction of pin %s%d: %w", port, pin, err)
	}
	return nil
}

// PullUp sets up pull-up resistors on a port.
func (m *MCP23017) PullUp(ctx context.Context, port Port, settings byte) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteByte(ctx, m.address, m.addr(regGPPU, port), settings)
	})
	if err != nil {
		return fmt.Errorf("could not set pull-up on gpio %s set: %w", port, err)
	}
	return nil
}

// Invert sets input polarity; a set bit reads the inverted pin level.
func (m *MCP23017) Invert(ctx context.Context, port Port, mask byte) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteByte(ctx, m.address, m.addr(regIPOL, port), mask)
	})
	if err != nil {
		return fmt.Errorf("could not set polarity of gpio %s set: %w", port, err)
	}
	return nil
}

// Read returns the levels of a port.
func (m *MCP23017) Read(ctx context.Context, port Port) (byte, error) {
	var res byte
	err := m.retry(ctx, func() error {
		var err error
		res, err = m.regs.ReadByte(ctx, m.address, m.addr(regGPIO, port))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("could not read gpio %s set: %w", port, err)
	}
	return res, nil
}

// ReadAll returns the levels of port A and port B.
func (m *MCP23017) ReadAll(ctx context.Context) ([]byte, error) {
	res := make([]byte, 2)
	var err error
	res[0], err = m.Read(ctx, PortA)
	if err != nil {
		return nil, err
	}
	res[1], err = m.Read(ctx, PortB)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *MCP23017) ReadPin(ctx context.Context, port Port, pin uint8) (bool, error) {
	var res bool
	err := m.retry(ctx, func() error {
		var err error
		res, err = m.regs.ReadBit(ctx, m.address, m.addr(regGPIO, port), pin)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("could not read pin %s%d: %w", port, pin, err)
	}
	return res, nil
}

// Write sets the output latch of a port.
func (m *MCP23017) Write(ctx context.Context, port Port, value byte) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteByte(ctx, m.address, m.addr(regOLAT, port), value)
	})
	if err != nil {
		return fmt.Errorf("could not write gpio %s set: %w", port, err)
	}
	return nil
}

// WritePin sets a single output latch bit, leaving the other pins alone.
func (m *MCP23017) WritePin(ctx context.Context, port Port, pin uint8, value bool) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteBit(ctx, m.address, m.addr(regOLAT, port), pin, value)
	})
	if err != nil {
		return fmt.Errorf("could not write pin %s%d: %w", port, pin, err)
	}
	return nil
}

// Settings reads the IOCON register.
func (m *MCP23017) Settings(ctx context.Context) (byte, error) {
	var res byte
	err := m.retry(ctx, func() error {
		var err error
		res, err = m.regs.ReadByte(ctx, m.address, m.addr(regIOCON, PortA))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("could not read settings: %w", err)
	}
	return res, nil
}

// WriteSettings writes the IOCON register and tracks the BANK bit.
func (m *MCP23017) WriteSettings(ctx context.Context, settings byte) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteByte(ctx, m.address, m.addr(regIOCON, PortA), settings)
	})
	if err != nil {
		return fmt.Errorf("could not write settings: %w", err)
	}
	m.bank = settings >> ioconBank
	return nil
}

// SetBank switches between interleaved (0) and segregated (1) register layouts.
func (m *MCP23017) SetBank(ctx context.Context, bank byte) error {
	if bank > 1 {
		return fmt.Errorf("%w: bank %d", i2cbus.ErrInvalidArgument, bank)
	}
	err := m.retry(ctx, func() error {
		return m.regs.WriteBit(ctx, m.address, m.addr(regIOCON, PortA), ioconBank, bank == 1)
	})
	if err != nil {
		return fmt.Errorf("could not switch to bank %d: %w", bank, err)
	}
	m.bank = bank
	return nil
}

// MirrorInterrupts ties INTA and INTB together.
func (m *MCP23017) MirrorInterrupts(ctx context.Context, mirror bool) error {
	err := m.retry(ctx, func() error {
		return m.regs.WriteBit(ctx, m.address, m.addr(regIOCON, PortA), ioconMirror, mirror)
	})
	if err != nil {
		return fmt.Errorf("could not set interrupt mirroring: %w", err)
	}
	return nil
}

// Sequential enables or disables register address auto-increment.
func (m *MCP23017) Sequential(ctx context.Context, enabled bool) error {
	// SEQOP is active low
	err := m.retry(ctx, func() error {
		return m.regs.WriteBit(ctx, m.address, m.addr(regIOCON, PortA), ioconSeqOp, !enabled)
	})
	if err != nil {
		return fmt.Errorf("could not set sequential mode: %w", err)
	}
	return nil
}
