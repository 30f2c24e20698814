package i2cbus

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransferFailed means the slave did not acknowledge the transfer.
	ErrTransferFailed = errors.New("transfer failed (no ACK from slave)")
	// ErrDriverNotReady means the driver is not installed or not in master mode.
	ErrDriverNotReady = errors.New("driver not installed")
	// ErrTimeout means the bus stayed busy beyond the deadline.
	ErrTimeout = errors.New("bus timeout")
	ErrBusBusy = fmt.Errorf("%w: I2C engine is busy (command not completed)", ErrTimeout)

	ErrDriverInstall    = errors.New("driver install failed")
	ErrAlreadyInstalled = errors.New("driver already installed")

	// ErrRegisterRead and ErrRegisterWrite tell the two halves of a
	// read-modify-write apart.
	ErrRegisterRead  = errors.New("register read failed")
	ErrRegisterWrite = errors.New("register write failed")
)

// Outcome is the coarse classification of an operation result.
type Outcome int

const (
	Success Outcome = iota
	InvalidArgument
	TransferFailed
	DriverNotReady
	Timeout
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "SUCCESS"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case TransferFailed:
		return "TRANSFER_FAILED"
	case DriverNotReady:
		return "DRIVER_NOT_READY"
	case Timeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// OutcomeOf classifies err. A nil error is Success.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidArgument):
		return InvalidArgument
	case errors.Is(err, ErrDriverNotReady):
		return DriverNotReady
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, ErrTransferFailed):
		return TransferFailed
	default:
		return Unknown
	}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
