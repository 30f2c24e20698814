package i2cbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Bus is a handle to one physical I2C port.
//
// A Bus does no locking of its own and is not safe for concurrent use;
// callers sharing a port must serialize access.
type Bus struct {
	driver  Driver
	port    Port
	conn    Conn
	timeout time.Duration
	tenBit  bool
}

// New creates a handle for port. The driver is installed by Begin.
func New(driver Driver, port Port) *Bus {
	return &Bus{
		driver:  driver,
		port:    port,
		timeout: DefaultTimeout,
	}
}

// Open creates a handle and installs the driver. Callers must Close it.
func Open(ctx context.Context, driver Driver, port Port, cfg Config) (*Bus, error) {
	b := New(driver, port)
	err := b.Begin(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// With opens a bus, runs fn and uninstalls the driver on every exit path.
func With(ctx context.Context, driver Driver, port Port, cfg Config, fn func(*Bus) error) (err error) {
	b, err := Open(ctx, driver, port, cfg)
	if err != nil {
		return err
	}
	defer func() {
		cerr := b.Close()
		if cerr != nil && err == nil {
			err = fmt.Errorf("could not close bus %s: %w", port, cerr)
		}
	}()
	return fn(b)
}

// Begin validates cfg and installs the platform driver.
func (b *Bus) Begin(ctx context.Context, cfg Config) error {
	if b.conn != nil {
		return fmt.Errorf("bus %s: %w", b.port, ErrAlreadyInstalled)
	}
	if b.driver == nil {
		return invalidArgument("bus %s: no driver", b.port)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	conn, err := b.driver.Install(ctx, b.port, cfg)
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return fmt.Errorf("bus %s: %w", b.port, err)
		}
		return fmt.Errorf("bus %s: %w: %w", b.port, ErrDriverInstall, err)
	}
	b.conn = conn
	b.SetTimeout(cfg.Timeout)
	b.tenBit = cfg.TenBit
	slog.Debug("i2c driver installed", "port", b.port, "clock", cfg.ClockSpeed.String(), "timeout", cfg.Timeout)
	return nil
}

// Close uninstalls the driver. Closing an uninstalled bus is a no-op.
func (b *Bus) Close() error {
	if b.conn == nil {
		return nil
	}
	conn := b.conn
	b.conn = nil
	err := conn.Close()
	if err != nil {
		return fmt.Errorf("could not uninstall driver on %s: %w", b.port, err)
	}
	slog.Debug("i2c driver uninstalled", "port", b.port)
	return nil
}

// SetTimeout sets the default per-call timeout. Zero disables it.
// A deadline already set on the call context takes precedence.
func (b *Bus) SetTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}
	b.timeout = timeout
}

func (b *Bus) Timeout() time.Duration {
	return b.timeout
}

func (b *Bus) Port() Port {
	return b.port
}

func (b *Bus) Installed() bool {
	return b.conn != nil
}

// Release asks the driver to abort a stuck transfer, if it can.
func (b *Bus) Release(ctx context.Context) error {
	if b.conn == nil {
		return ErrDriverNotReady
	}
	r, ok := b.conn.(Releaser)
	if !ok {
		return nil
	}
	return r.Release(ctx)
}

func (b *Bus) checkAddr(dev Addr) error {
	if b.tenBit {
		if dev > 0x3FF {
			return invalidArgument("10-bit address %s out of range", dev)
		}
		return nil
	}
	if dev > 0x7F {
		return invalidArgument("7-bit address %s out of range", dev)
	}
	return nil
}

// tx runs one transaction under the handle's default deadline.
func (b *Bus) tx(ctx context.Context, dev Addr, w, r []byte) error {
	if b.conn == nil {
		return ErrDriverNotReady
	}
	if _, ok := ctx.Deadline(); !ok && b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}
	err := b.conn.Tx(ctx, dev, w, r)
	if err != nil {
		return contextError(err)
	}
	return nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
