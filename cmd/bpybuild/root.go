// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configFile string
}

// newRootCommand creates the bpybuild command tree bound to app.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "bpybuild",
		Short: "Build Blender as a Python module, package it and test it",
		Long: TitleStyle.Render("bpybuild") + SubtitleStyle.Render(" - Blender as a Python module, built for every Python you need") + `

bpybuild clones Blender, compiles the bpy module for one or more Python
versions in parallel, packages each build as a platform-tagged wheel and
smoke-tests the wheel with tox. Every task writes its own log file under
log/<build|package|test>/.

` + SubtitleStyle.Render("Examples:") + `
  bpybuild build   --blender 4.0.2 --python 3.10,3.11
  bpybuild package --blender 4.0.2 --python 3.10 --system manylinux_2_28_x86_64
  bpybuild test    --blender 4.0.2 --python 3.10 --system manylinux_2_28_x86_64
  bpybuild all     --blender 4.0.2 --python 3.10 --python 3.11 --system manylinux_2_28_x86_64
  bpybuild config show`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ./bpybuild.cue, then the user config dir)")

	rootCmd.AddCommand(
		newBuildCommand(app, flags),
		newPackageCommand(app, flags),
		newTestCommand(app, flags),
		newAllCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI and exits the process with the resulting status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
