package i2cbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Scan range excludes the reserved 0x00-0x02 and 0x78-0x7F addresses.
const (
	ScanFirst Addr = 0x03
	ScanLast  Addr = 0x77
)

// TestConnection issues an address-only transaction. It returns nil when a
// device acknowledged dev and ErrTransferFailed when nobody did.
func (b *Bus) TestConnection(ctx context.Context, dev Addr) error {
	if err := b.checkAddr(dev); err != nil {
		return err
	}
	err := b.tx(ctx, dev, nil, nil)
	if err != nil {
		return fmt.Errorf("no response from %s: %w", dev, err)
	}
	return nil
}

// Scan probes every address in ScanFirst..ScanLast and returns the ones that
// acknowledged, in ascending order. Unreachable addresses are skipped; a
// driver failure or a cancelled context stops the scan.
func (b *Bus) Scan(ctx context.Context) ([]Addr, error) {
	if b.conn == nil {
		return nil, ErrDriverNotReady
	}
	slog.Info("scanning i2c bus", "port", b.port, "from", ScanFirst.String(), "to", ScanLast.String())
	var found []Addr
	for addr := ScanFirst; addr <= ScanLast; addr++ {
		if err := ctx.Err(); err != nil {
			return found, contextError(err)
		}
		err := b.TestConnection(ctx, addr)
		switch {
		case err == nil:
			slog.Info("device found", "port", b.port, "addr", addr.String())
			found = append(found, addr)
		case errors.Is(err, ErrDriverNotReady), errors.Is(err, context.Canceled):
			return found, fmt.Errorf("scan aborted at %s: %w", addr, err)
		case errors.Is(err, ErrTimeout):
			slog.Warn("probe timed out", "port", b.port, "addr", addr.String())
		default:
			slog.Debug("no device", "port", b.port, "addr", addr.String(), "error", err)
		}
	}
	slog.Info("scan finished", "port", b.port, "found", len(found))
	return found, nil
}
