// Package adapter drives USB to I2C bridges.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/i2cctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MCP2221 system clock used to derive the I2C speed divider.
const mcp2221Clock = 12_000_000

// MaxTransfer is the largest payload a single HID report carries.
const MaxTransfer = 60

const (
	cmdStatusSetParams   = 0x10
	cmdI2CWriteData      = 0x90
	cmdI2CReadData       = 0x91
	cmdI2CReadRepStart   = 0x93
	cmdI2CWriteDataNoStp = 0x94
	cmdI2CGetData        = 0x40

	subCmdCancel   = 0x10
	subCmdSetSpeed = 0x20

	// I2C engine state reported at offset 8 of the status response.
	stateAddrNACK = 0x25
)

var ErrCommandFailed = errors.New("command failed")

// MCP2221 talks to a Microchip MCP2221(A) over HID. It is both the platform
// driver and the installed connection; the HID device is opened per command.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	// index selects among several attached bridges, -1 requires exactly one
	index int
}

var _ i2cbus.Driver = &MCP2221{}
var _ i2cbus.Conn = &MCP2221{}
var _ i2cbus.Releaser = &MCP2221{}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	I2CState               int    `yaml:"i2c_state"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
		index:        -1,
	}
}

// Install selects the bridge (port is its enumeration index, empty for the
// only attached one) and programs the I2C clock divider. SDA/SCL are fixed
// on GP pins of the chip so pin settings are ignored.
func (d *MCP2221) Install(ctx context.Context, port i2cbus.Port, cfg i2cbus.Config) (i2cbus.Conn, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	index, err := parseIndex(port)
	if err != nil {
		return nil, err
	}
	d.index = index
	divider, err := speedDivider(cfg)
	if err != nil {
		return nil, err
	}
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[3] = subCmdSetSpeed
	d.request[4] = divider
	err = d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not set i2c speed: %w", err)
	}
	if d.response[3] != subCmdSetSpeed {
		// the engine refuses new settings while a transfer is pending
		return nil, fmt.Errorf("i2c speed not accepted: %w", i2cbus.ErrBusBusy)
	}
	slog.Debug("mcp2221 installed", "index", d.index, "speed", cfg.ClockSpeed.String(), "divider", divider)
	return d, nil
}

// NewMCP2221At returns a bridge bound to port without installing it, for
// maintenance commands such as Status and ReleaseBus.
func NewMCP2221At(port i2cbus.Port) (*MCP2221, error) {
	index, err := parseIndex(port)
	if err != nil {
		return nil, err
	}
	d := NewMCP2221()
	d.index = index
	return d, nil
}

// parseIndex maps a port to the bridge enumeration index, -1 for empty.
func parseIndex(port i2cbus.Port) (int, error) {
	if port == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(string(port))
	if err != nil || n < 0 {
		return -1, fmt.Errorf("%w: mcp2221 device index %q", i2cbus.ErrInvalidArgument, port)
	}
	return n, nil
}

func speedDivider(cfg i2cbus.Config) (byte, error) {
	hz := int64(cfg.ClockSpeed / physic.Hertz)
	if hz <= 0 {
		return 0, fmt.Errorf("%w: mcp2221 clock speed %s", i2cbus.ErrInvalidArgument, cfg.ClockSpeed)
	}
	div := mcp2221Clock/hz - 3
	if div < 1 || div > 255 {
		return 0, fmt.Errorf("%w: mcp2221 cannot run at %s", i2cbus.ErrInvalidArgument, cfg.ClockSpeed)
	}
	return byte(div), nil
}

// Tx writes w and reads r. When both are present the read follows a
// repeated start.
func (d *MCP2221) Tx(ctx context.Context, addr i2cbus.Addr, w, r []byte) error {
	if len(w) > MaxTransfer || len(r) > MaxTransfer {
		return fmt.Errorf("%w: mcp2221 transfers are limited to %d bytes", i2cbus.ErrInvalidArgument, MaxTransfer)
	}
	if addr > 0x7F {
		return fmt.Errorf("%w: mcp2221 supports 7-bit addresses only", i2cbus.ErrInvalidArgument)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	switch {
	case len(r) == 0:
		return d.writeTo(ctx, cmdI2CWriteData, byte(addr), w)
	case len(w) == 0:
		return d.readFrom(ctx, cmdI2CReadData, byte(addr), r)
	default:
		err := d.writeTo(ctx, cmdI2CWriteDataNoStp, byte(addr), w)
		if err != nil {
			return err
		}
		return d.readFrom(ctx, cmdI2CReadRepStart, byte(addr), r)
	}
}

func (d *MCP2221) writeTo(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %#02x failed: %w", address, err)
	}
	// write could not be performed
	if d.response[1] == 0x01 {
		slog.Debug("mcp2221 engine busy", "addr", address)
		return i2cbus.ErrBusBusy
	}
	state, err := d.engineState(ctx)
	if err != nil {
		return err
	}
	if state == stateAddrNACK {
		return fmt.Errorf("%w: address %#02x not acknowledged", i2cbus.ErrTransferFailed, address)
	}
	return nil
}

func (d *MCP2221) readFrom(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %#02x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return i2cbus.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdI2CGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("%w: error reading slave %#02x data from the I2C engine", i2cbus.ErrTransferFailed, address)
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("%w: invalid data size byte; expected %d, got %d", i2cbus.ErrTransferFailed, len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) engineState(ctx context.Context) (byte, error) {
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.send(ctx)
	if err != nil {
		return 0, fmt.Errorf("status request failed: %w", err)
	}
	return d.response[8], nil
}

// Close is a no-op; the HID device is only held open for a single command.
func (d *MCP2221) Close() error {
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		8: I2C communication state
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	return &MCP2221Status{
		I2CState:               int(buffer[8]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

// Release cancels the current transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = subCmdCancel
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, fmt.Errorf("%w: MCP2221 device not found", i2cbus.ErrDriverNotReady)
	}
	if d.index < 0 && len(devs) > 1 {
		return nil, fmt.Errorf("%w: ambiguous device identification (%d bridges attached)", i2cbus.ErrInvalidArgument, len(devs))
	}
	index := max(d.index, 0)
	if index >= len(devs) {
		return nil, fmt.Errorf("%w: no device with index %d", i2cbus.ErrDriverNotReady, index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("%w: error opening device: %w", i2cbus.ErrDriverNotReady, err)
	}
	return dev, nil
}

// send writes the request report and reads the response report.
func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := i2cctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "dump", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "dump", hex.Dump(d.response))
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#02x, expected %#02x", ErrCommandFailed, d.response[0], d.request[0])
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
