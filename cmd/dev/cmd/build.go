package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const (
	binary  = "dist/adxl345"
	mainPkg = "./cmd/adxl345"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the adxl345 cli",
		Long: `Build the adxl345 cli. Native builds run go build with cgo enabled (required by
the MCP2221 HID backend); foreign targets are built inside the gobuild docker image.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			goos, err := cmd.Flags().GetString("os")
			if err != nil {
				return fmt.Errorf("could not get os flag: %w", err)
			}
			goarch, err := cmd.Flags().GetString("arch")
			if err != nil {
				return fmt.Errorf("could not get arch flag: %w", err)
			}
			version, err := cmd.Flags().GetString("version")
			if err != nil {
				return fmt.Errorf("could not get version flag: %w", err)
			}
			crossOS, _ := cmd.Flags().GetString("cross-os")
			crossArch, _ := cmd.Flags().GetString("cross-arch")

			if goos == runtime.GOOS && goarch == runtime.GOARCH {
				if crossOS != "" && crossArch != "" {
					goos, goarch = crossOS, crossArch
				}
				return build.GoBuild(binary, mainPkg, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          goarch,
					OS:            goos,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			image, _ := cmd.Flags().GetString("image")
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, goarch),
				[]string{"build", "--version", version, "--cross-os", crossOS, "--cross-arch", crossArch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   image,
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	cmd.Flags().String("image", "gophertribe/gobuild:1.25-bookworm", "docker image used for foreign targets")
	return cmd
}
