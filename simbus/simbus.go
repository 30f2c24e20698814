// Package simbus is an in-memory I2C platform driver. Each simulated device
// is a 256 byte register file with an auto-incrementing register pointer,
// which is how most register based slaves behave.
//
// Example usage:
//
//	sim := simbus.New()
//	dev := sim.AddDevice(0x68)
//	dev.Set(0x75, 0x68)
//	bus, err := i2cbus.Open(ctx, sim, "sim", i2cbus.DefaultConfig())
package simbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/i2cbus"
)

// Tx is a recorded transaction.
type Tx struct {
	Addr    i2cbus.Addr
	Write   []byte
	ReadLen int
}

// IsProbe reports an address-only transaction.
func (t Tx) IsProbe() bool {
	return len(t.Write) == 0 && t.ReadLen == 0
}

// IsRead reports a transaction that reads data back.
func (t Tx) IsRead() bool {
	return t.ReadLen > 0
}

// TxBehaviorFunc is consulted before every transaction is executed.
// A non-nil error fails the transaction without touching any register.
type TxBehaviorFunc func(ctx context.Context, tx Tx) error

// Bus is a simulated platform driver. It is safe for concurrent use.
type Bus struct {
	mx         sync.Mutex
	devices    map[i2cbus.Addr]*Device
	log        []Tx
	behavior   TxBehaviorFunc
	installed  map[i2cbus.Port]i2cbus.Config
	InstallErr error
}

var _ i2cbus.Driver = &Bus{}

func New() *Bus {
	return &Bus{
		devices:   make(map[i2cbus.Addr]*Device),
		installed: make(map[i2cbus.Port]i2cbus.Config),
	}
}

// Device is one simulated slave.
type Device struct {
	Registers [256]byte
	pointer   byte
}

// Set presets a register value.
func (d *Device) Set(reg, value byte) *Device {
	d.Registers[reg] = value
	return d
}

func (d *Device) Get(reg byte) byte {
	return d.Registers[reg]
}

// AddDevice attaches a device answering at addr, replacing any existing one.
func (b *Bus) AddDevice(addr i2cbus.Addr) *Device {
	b.mx.Lock()
	defer b.mx.Unlock()
	d := &Device{}
	b.devices[addr] = d
	return d
}

func (b *Bus) RemoveDevice(addr i2cbus.Addr) {
	b.mx.Lock()
	defer b.mx.Unlock()
	delete(b.devices, addr)
}

func (b *Bus) Device(addr i2cbus.Addr) (*Device, bool) {
	b.mx.Lock()
	defer b.mx.Unlock()
	d, ok := b.devices[addr]
	return d, ok
}

// OnTx installs a behavior hook; nil removes it.
func (b *Bus) OnTx(fn TxBehaviorFunc) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.behavior = fn
}

// Transactions returns a copy of the transaction log.
func (b *Bus) Transactions() []Tx {
	b.mx.Lock()
	defer b.mx.Unlock()
	res := make([]Tx, len(b.log))
	copy(res, b.log)
	return res
}

// Count returns the number of transactions issued so far, failed ones included.
func (b *Bus) Count() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return len(b.log)
}

func (b *Bus) ResetLog() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.log = nil
}

// Installed returns the configuration a port was installed with.
func (b *Bus) Installed(port i2cbus.Port) (i2cbus.Config, bool) {
	b.mx.Lock()
	defer b.mx.Unlock()
	cfg, ok := b.installed[port]
	return cfg, ok
}

func (b *Bus) Install(ctx context.Context, port i2cbus.Port, cfg i2cbus.Config) (i2cbus.Conn, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.InstallErr != nil {
		return nil, b.InstallErr
	}
	if _, ok := b.installed[port]; ok {
		return nil, fmt.Errorf("port %s: %w", port, i2cbus.ErrAlreadyInstalled)
	}
	b.installed[port] = cfg
	return &conn{bus: b, port: port}, nil
}

type conn struct {
	bus    *Bus
	port   i2cbus.Port
	closed bool
}

func (c *conn) Tx(ctx context.Context, addr i2cbus.Addr, w, r []byte) error {
	b := c.bus
	b.mx.Lock()
	if c.closed {
		b.mx.Unlock()
		return i2cbus.ErrDriverNotReady
	}
	tx := Tx{Addr: addr, Write: append([]byte(nil), w...), ReadLen: len(r)}
	b.log = append(b.log, tx)
	behavior := b.behavior
	b.mx.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if behavior != nil {
		if err := behavior(ctx, tx); err != nil {
			return err
		}
	}

	b.mx.Lock()
	defer b.mx.Unlock()
	d, ok := b.devices[addr]
	if !ok {
		return fmt.Errorf("address %s: %w", addr, i2cbus.ErrTransferFailed)
	}
	if len(w) > 0 {
		d.pointer = w[0]
		for _, v := range w[1:] {
			d.Registers[d.pointer] = v
			d.pointer++
		}
	}
	for i := range r {
		r[i] = d.Registers[d.pointer]
		d.pointer++
	}
	return nil
}

func (c *conn) Close() error {
	b := c.bus
	b.mx.Lock()
	defer b.mx.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	delete(b.installed, c.port)
	return nil
}

// FailReads fails every read from addr with err.
func FailReads(addr i2cbus.Addr, err error) TxBehaviorFunc {
	return func(ctx context.Context, tx Tx) error {
		if tx.Addr == addr && tx.IsRead() {
			return err
		}
		return nil
	}
}

// FailWrites fails every data write (not pointer-only writes) to addr with err.
func FailWrites(addr i2cbus.Addr, err error) TxBehaviorFunc {
	return func(ctx context.Context, tx Tx) error {
		if tx.Addr == addr && !tx.IsRead() && len(tx.Write) > 1 {
			return err
		}
		return nil
	}
}
