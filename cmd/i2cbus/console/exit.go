package console

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cbus"
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// ExitCode maps a bus error to the process exit code.
func ExitCode(err error) int {
	switch i2cbus.OutcomeOf(err) {
	case i2cbus.Success:
		return 0
	case i2cbus.InvalidArgument:
		return 2
	case i2cbus.TransferFailed:
		return 3
	case i2cbus.DriverNotReady:
		return 4
	case i2cbus.Timeout:
		return 5
	default:
		return 1
	}
}

// Fail reports err with an exit code derived from its outcome.
func Fail(err error, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf("%s: %s (%s)", fmt.Sprintf(msg, args...), Red(err), i2cbus.OutcomeOf(err)), ExitCode(err))
}
