package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/i2cbus"
)

func TestPromptLine(t *testing.T) {
	assert.Equal(t, "write? [N/y]:", promptLine("write?", []string{No, Yes}))
	assert.Equal(t, "continue? [Y/n]:", promptLine("continue?", []string{Yes, No}))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		response string
		want     string
	}{
		{"", No},
		{"y", Yes},
		{" Y ", Yes},
		{"n", No},
		{"yes", No},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, match(test.response, []string{No, Yes}), test.response)
	}
}

func TestOutput(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() { SetOutput(nil, nil) })

	Infof("found %d devices", 2)
	Errorf("bad %s", "address")
	Warn(errors.New("busy").Error())
	assert.Equal(t, "... found 2 devices\n", out.String())
	assert.Equal(t, "ERROR: bad address\nWARN: busy\n", errOut.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(i2cbus.ErrInvalidArgument))
	assert.Equal(t, 3, ExitCode(i2cbus.ErrTransferFailed))
	assert.Equal(t, 4, ExitCode(i2cbus.ErrDriverNotReady))
	assert.Equal(t, 5, ExitCode(i2cbus.ErrBusBusy))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))

	color.NoColor = true
	err := Fail(i2cbus.ErrTransferFailed, "could not read %s", "0x68")
	assert.Equal(t, 3, err.ExitCode())
	assert.Equal(t, "could not read 0x68: transfer failed (no ACK from slave) (TRANSFER_FAILED)", err.Error())
}
