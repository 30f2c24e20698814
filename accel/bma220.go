package accel

import (
	"context"
	"fmt"

	"github.com/mklimuk/i2cbus"
)

const (
	regRange         = 0x22
	regLatch         = 0x1C
	regSlopeSettings = 0x12
	regSlopeDet      = 0x1A
	regWatchdog      = 0x2E
	regInterrupts    = 0x18
)

const BMA220Address i2cbus.Addr = 0x0A

// Range is the BMA220 full scale setting.
type Range byte

const (
	Range2G Range = iota
	Range4G
	Range8G
	Range16G
)

// BMA220 represents Bosch BMA220 accelerometer
type BMA220 struct {
	regs i2cbus.Registers
	addr i2cbus.Addr
}

func NewBMA220(regs i2cbus.Registers) *BMA220 {
	return &BMA220{regs: regs, addr: BMA220Address}
}

/*
en_slope_x (0x1A.5) enable slope detection on x-axis
en_slope_y (0x1A.4) enable slope detection on y-axis
en_slope_z (0x1A.3) enable slope detection on z-axis
slope_th (0x12[5:2]) define the threshold level of the slope 1 LSB threshold is 1 LSB of acc_data
slope_dur (0x12[1:0]) define the number of consecutive slope data points above slope_th which are required to set the interrupt ("00" = 1,"01" = 2,"10" = 3, "11" = 4)
slope_filt (0x12.6) defines whether filtered or unfiltered acceleration data should be used (evaluated) ('0'=unfiltered, '1'=filtered)
lat_int (0x1C[6:4]) interrupt latch time, 111 latches permanently
reset_int (0x1C.7) clears latched interrupts
*/
func (b *BMA220) InitMotionDetection(ctx context.Context) error {
	err := b.SetRange(ctx, Range16G)
	if err != nil {
		return fmt.Errorf("could not set detection sensitivity: %w", err)
	}
	// permanent interrupt latch
	err = b.regs.WriteBits(ctx, b.addr, regLatch, 6, 3, 0b111)
	if err != nil {
		return fmt.Errorf("could not set interrupt settings: %w", err)
	}
	// slope detection on all axes
	err = b.regs.WriteBits(ctx, b.addr, regSlopeDet, 5, 3, 0b111)
	if err != nil {
		return fmt.Errorf("could not enable slope detection: %w", err)
	}
	err = b.SetSlope(ctx, 1, 1, true)
	if err != nil {
		return err
	}
	// enable watchdog
	err = b.regs.WriteByte(ctx, b.addr, regWatchdog, 0x06)
	if err != nil {
		return fmt.Errorf("could not set watchdog settings: %w", err)
	}
	return nil
}

func (b *BMA220) SetRange(ctx context.Context, r Range) error {
	if r > Range16G {
		return fmt.Errorf("%w: range %d", i2cbus.ErrInvalidArgument, r)
	}
	return b.regs.WriteBits(ctx, b.addr, regRange, 1, 2, byte(r))
}

// SetSlope configures the slope threshold (0-15), the number of samples
// above it (1-4) and whether filtered data is evaluated.
func (b *BMA220) SetSlope(ctx context.Context, threshold, duration byte, filtered bool) error {
	if threshold > 0x0F || duration < 1 || duration > 4 {
		return fmt.Errorf("%w: slope threshold %d duration %d", i2cbus.ErrInvalidArgument, threshold, duration)
	}
	reg, err := b.regs.ReadByte(ctx, b.addr, regSlopeSettings)
	if err != nil {
		return fmt.Errorf("could not read slope detection settings: %w", err)
	}
	reg, _ = i2cbus.InjectBits(reg, 5, 4, threshold)
	reg, _ = i2cbus.InjectBits(reg, 1, 2, duration-1)
	var filt byte
	if filtered {
		filt = 1
	}
	reg, _ = i2cbus.InjectBits(reg, 6, 1, filt)
	err = b.regs.WriteByte(ctx, b.addr, regSlopeSettings, reg)
	if err != nil {
		return fmt.Errorf("could not set slope detection settings: %w", err)
	}
	return nil
}

func (b *BMA220) CheckMotionInterrupt(ctx context.Context) (bool, error) {
	// slope detection is on bit 0
	motion, err := b.regs.ReadBit(ctx, b.addr, regInterrupts, 0)
	if err != nil {
		return false, fmt.Errorf("could not read interrupt status: %w", err)
	}
	return motion, nil
}

func (b *BMA220) ResetMotionInterrupt(ctx context.Context) error {
	err := b.regs.WriteBit(ctx, b.addr, regLatch, 7, true)
	if err != nil {
		return fmt.Errorf("could not reset interrupt: %w", err)
	}
	return nil
}
