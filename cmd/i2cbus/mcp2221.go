package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2cbus"
	"github.com/mklimuk/i2cbus/adapter"
	"github.com/mklimuk/i2cbus/cmd/i2cbus/console"
	"github.com/mklimuk/i2cbus/config"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		a, err := bridgeAt(c)
		if err != nil {
			return err
		}
		status, err := a.Status(commandContext(c))
		if err != nil {
			return console.Fail(err, "adapter communication error")
		}
		return printYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Action: func(c *cli.Context) error {
		a, err := bridgeAt(c)
		if err != nil {
			return err
		}
		status, err := a.ReleaseBus(commandContext(c))
		if err != nil {
			return console.Fail(err, "adapter communication error")
		}
		return printYAML(status)
	},
}

// bridgeAt selects the bridge from --port or, when the selected bus is an
// MCP2221, from its configured port.
func bridgeAt(c *cli.Context) (*adapter.MCP2221, error) {
	target, err := resolveBus(c)
	if err != nil {
		return nil, console.Fail(err, "invalid bus settings")
	}
	var port i2cbus.Port
	if target.adapter == config.AdapterMCP2221 || c.IsSet("port") {
		port = target.port
	}
	a, err := adapter.NewMCP2221At(port)
	if err != nil {
		return nil, console.Fail(err, "invalid bridge port")
	}
	return a, nil
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(console.Writer())
	defer enc.Close()
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
