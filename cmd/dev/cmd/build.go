package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const (
	binaryPath  = "dist/i2cbus"
	mainPackage = "./cmd/i2cbus"
	buildImage  = "gophertribe/gobuild:1.25-bookworm"
)

type target struct {
	os, arch           string
	crossOS, crossArch string
}

func (t target) native() bool {
	return t.os == runtime.GOOS && t.arch == runtime.GOARCH
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the i2cbus cli",
		Long: `Build the i2cbus cli into dist/.

Native builds run go build with cgo enabled (karalabe/hid needs it). Builds for
another os/arch run this tool inside the gobuild docker image, which then
cross-compiles with --cross-os and --cross-arch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := cmd.Flag("version").Value.String()
			t := target{
				os:        cmd.Flag("os").Value.String(),
				arch:      cmd.Flag("arch").Value.String(),
				crossOS:   cmd.Flag("cross-os").Value.String(),
				crossArch: cmd.Flag("cross-arch").Value.String(),
			}
			if t.native() {
				return nativeBuild(version, t)
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			slog.Info("building in docker", "os", t.os, "arch", t.arch, "image", buildImage)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch),
				[]string{"build", "--version", version, "--cross-os", t.crossOS, "--cross-arch", t.crossArch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   buildImage,
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}

func nativeBuild(version string, t target) error {
	goos, goarch := t.os, t.arch
	if t.crossOS != "" && t.crossArch != "" {
		goos, goarch = t.crossOS, t.crossArch
	}
	slog.Info("building", "bin", binaryPath, "os", goos, "arch", goarch, "version", version)
	return build.GoBuild(binaryPath, mainPackage, build.GoBuildOpts{
		Version:       version,
		InjectVersion: true,
		ConfigPackage: "main",
		EnableCgo:     true,
		Arch:          goarch,
		OS:            goos,
	})
}
