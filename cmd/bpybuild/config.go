// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"bpybuild/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `bpybuild config` command tree.
func newConfigCommand(app *App, root *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bpybuild configuration",
		Long: `Inspect bpybuild configuration.

Configuration is read from --config, else ./bpybuild.cue, else
<user config dir>/bpybuild/config.cue. Every key can be overridden with a
BPYBUILD_<SECTION>_<KEY> environment variable or in ./.env.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd.Context(), root)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			fmt.Fprintf(app.stdout, "// config file: %s\n\n", describeSource(loaded.Path))
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd.Context(), root)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			if loaded.Path != "" {
				fmt.Fprintln(app.stdout, loaded.Path)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("(using defaults; create)"),
				CmdStyle.Render(filepath.Join(dir, config.ConfigFileName)))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the user config dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render(iconSuccess), path)
			return nil
		},
	})

	return cfgCmd
}

func describeSource(path string) string {
	if path == "" {
		return "(using defaults)"
	}
	return path
}
