package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// smokeRuns exercise the cli against the simulated bus.
var smokeRuns = [][]string{
	{"scan"},
	{"probe", "0x68"},
	{"get", "0x68", "0x75"},
	{"getbits", "0x68", "0x75", "6", "6"},
	{"--yes", "setbits", "0x68", "0x6b", "6", "1", "0"},
	{"temperature"},
	{"gpio", "read"},
}

func SmokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the cli against the simulated bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := cmd.Flags().GetString("bin")
			if err != nil {
				return fmt.Errorf("could not get bin flag: %w", err)
			}
			for _, run := range smokeRuns {
				err := smoke(cmd.Context(), bin, run)
				if err != nil {
					return err
				}
			}
			slog.Info("smoke test passed", "runs", len(smokeRuns))
			return nil
		},
	}
	cmd.Flags().String("bin", binaryPath, "cli binary to test")
	return cmd
}

func smoke(ctx context.Context, bin string, args []string) error {
	full := append([]string{"--adapter", "sim"}, args...)
	slog.Info("running", "bin", bin, "args", full)
	c := exec.CommandContext(ctx, bin, full...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("%v failed: %w", args, err)
	}
	return nil
}
