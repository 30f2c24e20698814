package i2cbus

import (
	"context"
	"fmt"
)

// Port identifies one physical bus instance. Its meaning is defined by the
// Driver: a device path for Linux hosts, a bus number for gobot adaptors,
// a device index for USB bridges.
type Port string

// Addr is a 7-bit or 10-bit slave address.
type Addr uint16

func (a Addr) String() string {
	return fmt.Sprintf("%#02x", uint16(a))
}

// Conn is a master driver installed on one port.
type Conn interface {
	// Tx runs a single transaction: start, address, w, repeated start, r, stop.
	// Both w and r empty is an address-only probe.
	Tx(ctx context.Context, addr Addr, w, r []byte) error
	Close() error
}

// Driver installs the platform master driver on a port.
type Driver interface {
	Install(ctx context.Context, port Port, cfg Config) (Conn, error)
}

// Releaser is implemented by connections able to abort a stuck transfer.
type Releaser interface {
	Release(ctx context.Context) error
}

// Registers is the register-level API device drivers depend on.
type Registers interface {
	ReadByte(ctx context.Context, dev Addr, reg byte) (byte, error)
	WriteByte(ctx context.Context, dev Addr, reg byte, value byte) error
	ReadBytes(ctx context.Context, dev Addr, reg byte, buf []byte) error
	WriteBytes(ctx context.Context, dev Addr, reg byte, data []byte) error
	ReadBit(ctx context.Context, dev Addr, reg byte, bitNum uint8) (bool, error)
	WriteBit(ctx context.Context, dev Addr, reg byte, bitNum uint8, value bool) error
	ReadBits(ctx context.Context, dev Addr, reg byte, bitStart, length uint8) (byte, error)
	WriteBits(ctx context.Context, dev Addr, reg byte, bitStart, length uint8, value byte) error
}

var _ Registers = &Bus{}
