package i2cbus

import (
	"context"
	"fmt"
)

// Bit fields are addressed by their most significant bit. Bits are numbered
// 7..0 with 0 being the LSB, so a field of length n starting at bitStart
// covers bits bitStart..bitStart-n+1.

func checkField(bitStart, length uint8) error {
	if length == 0 || length > 8 {
		return invalidArgument("bit field length %d", length)
	}
	if bitStart > 7 {
		return invalidArgument("bit field start %d", bitStart)
	}
	if bitStart+1 < length {
		return invalidArgument("bit field of length %d does not fit below bit %d", length, bitStart)
	}
	return nil
}

// FieldMask returns the mask covering the field.
func FieldMask(bitStart, length uint8) (byte, error) {
	if err := checkField(bitStart, length); err != nil {
		return 0, err
	}
	return fieldMask(bitStart, length), nil
}

func fieldMask(bitStart, length uint8) byte {
	return byte(((1 << length) - 1) << (bitStart - length + 1))
}

// ExtractBits isolates the field from a register value.
func ExtractBits(reg byte, bitStart, length uint8) (byte, error) {
	if err := checkField(bitStart, length); err != nil {
		return 0, err
	}
	return extractBits(reg, bitStart, length), nil
}

func extractBits(reg byte, bitStart, length uint8) byte {
	return (reg >> (bitStart - length + 1)) & byte((1<<length)-1)
}

// InjectBits replaces the field in reg with value, clipped to the field width.
func InjectBits(reg byte, bitStart, length uint8, value byte) (byte, error) {
	if err := checkField(bitStart, length); err != nil {
		return 0, err
	}
	return injectBits(reg, bitStart, length, value), nil
}

func injectBits(reg byte, bitStart, length uint8, value byte) byte {
	mask := fieldMask(bitStart, length)
	return (reg &^ mask) | ((value << (bitStart - length + 1)) & mask)
}

// WriteBits updates a field of a register without disturbing the other bits.
// A failed read aborts the call before any write; the returned error then
// matches ErrRegisterRead, while a rejected write matches ErrRegisterWrite.
func (b *Bus) WriteBits(ctx context.Context, dev Addr, reg byte, bitStart, length uint8, value byte) error {
	if err := checkField(bitStart, length); err != nil {
		return err
	}
	old, err := b.ReadByte(ctx, dev, reg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterRead, err)
	}
	err = b.WriteByte(ctx, dev, reg, injectBits(old, bitStart, length, value))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterWrite, err)
	}
	return nil
}

func (b *Bus) WriteBit(ctx context.Context, dev Addr, reg byte, bitNum uint8, value bool) error {
	var v byte
	if value {
		v = 1
	}
	return b.WriteBits(ctx, dev, reg, bitNum, 1, v)
}

// ReadBits returns the field right-aligned.
func (b *Bus) ReadBits(ctx context.Context, dev Addr, reg byte, bitStart, length uint8) (byte, error) {
	if err := checkField(bitStart, length); err != nil {
		return 0, err
	}
	val, err := b.ReadByte(ctx, dev, reg)
	if err != nil {
		return 0, err
	}
	return extractBits(val, bitStart, length), nil
}

func (b *Bus) ReadBit(ctx context.Context, dev Addr, reg byte, bitNum uint8) (bool, error) {
	v, err := b.ReadBits(ctx, dev, reg, bitNum, 1)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}
