package i2cbus

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/mklimuk/i2cbus/i2cctx"
)

// WriteBytes writes data to consecutive registers starting at reg in a single
// transaction. There is no retry: any unacknowledged byte fails the call.
func (b *Bus) WriteBytes(ctx context.Context, dev Addr, reg byte, data []byte) error {
	if len(data) == 0 {
		return invalidArgument("empty write to %s register %#02x", dev, reg)
	}
	if err := b.checkAddr(dev); err != nil {
		return err
	}
	buf := make([]byte, 1+len(data))
	buf[0] = reg
	copy(buf[1:], data)
	if i2cctx.IsVerbose(ctx) {
		slog.Debug("register write", "port", b.port, "dev", dev.String(), "reg", reg, "data", hex.EncodeToString(data))
	}
	err := b.tx(ctx, dev, buf, nil)
	if err != nil {
		return fmt.Errorf("could not write %d bytes to %s register %#02x: %w", len(data), dev, reg, err)
	}
	return nil
}

func (b *Bus) WriteByte(ctx context.Context, dev Addr, reg byte, value byte) error {
	return b.WriteBytes(ctx, dev, reg, []byte{value})
}

// ReadBytes fills buf from consecutive registers starting at reg. The register
// pointer write and the read share one transaction (repeated start).
func (b *Bus) ReadBytes(ctx context.Context, dev Addr, reg byte, buf []byte) error {
	if len(buf) == 0 {
		return invalidArgument("empty read from %s register %#02x", dev, reg)
	}
	if err := b.checkAddr(dev); err != nil {
		return err
	}
	err := b.tx(ctx, dev, []byte{reg}, buf)
	if err != nil {
		return fmt.Errorf("could not read %d bytes from %s register %#02x: %w", len(buf), dev, reg, err)
	}
	if i2cctx.IsVerbose(ctx) {
		slog.Debug("register read", "port", b.port, "dev", dev.String(), "reg", reg, "data", hex.EncodeToString(buf))
	}
	return nil
}

func (b *Bus) ReadByte(ctx context.Context, dev Addr, reg byte) (byte, error) {
	buf := []byte{0x00}
	err := b.ReadBytes(ctx, dev, reg, buf)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}
