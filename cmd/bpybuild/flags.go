// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"bpybuild/pkg/types"
	"bpybuild/pkg/version"

	"github.com/spf13/cobra"
)

var (
	// ErrMissingSystem is returned when --system is empty.
	ErrMissingSystem = errors.New("--system must not be empty")
	// ErrNoPython is returned when --python names no version.
	ErrNoPython = errors.New("at least one --python version is required")
)

// targetFlags are the version selection flags of the task commands.
type targetFlags struct {
	blender string
	pythons []string
	system  string
	jobs    int
}

// target is the parsed form of targetFlags.
type target struct {
	blender version.Version
	pythons []version.Version
	tag     types.PlatformTag
}

func (f *targetFlags) register(cmd *cobra.Command, withSystem, withJobs bool) {
	cmd.Flags().StringVarP(&f.blender, "blender", "b", "", "Blender version to target (e.g. 4.0.2)")
	cmd.Flags().StringSliceVarP(&f.pythons, "python", "p", nil, "Python version(s) to target; repeatable or comma separated")
	_ = cmd.MarkFlagRequired("blender")
	_ = cmd.MarkFlagRequired("python")
	if withSystem {
		cmd.Flags().StringVarP(&f.system, "system", "s", "", "platform tag of the wheel (e.g. manylinux_2_28_x86_64)")
		_ = cmd.MarkFlagRequired("system")
	}
	if withJobs {
		cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "concurrent builds (default: config jobs, else number of CPUs)")
	}
}

func (f *targetFlags) parse(withSystem bool) (*target, error) {
	blender, err := version.Parse(f.blender)
	if err != nil {
		return nil, err
	}
	pythons, err := version.ParseList(f.pythons)
	if err != nil {
		return nil, err
	}
	if len(pythons) == 0 {
		return nil, ErrNoPython
	}
	t := &target{blender: blender, pythons: pythons, tag: types.PlatformTag(f.system)}
	if withSystem && t.tag == "" {
		return nil, ErrMissingSystem
	}
	return t, nil
}
