// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestGitBackendValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   GitBackend
		wantErr bool
	}{
		{GitBackendExec, false},
		{GitBackendGoGit, false},
		{"", true},
		{"hg", true},
		{"EXEC", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()
			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidGitBackend) {
				t.Errorf("error should wrap ErrInvalidGitBackend, got: %v", err)
			}
			var be *InvalidGitBackendError
			if !errors.As(err, &be) || be.Value != tt.value {
				t.Errorf("error should be *InvalidGitBackendError for %q, got: %T", tt.value, err)
			}
		})
	}
}

func TestConfigValidateCollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Jobs = -2
	cfg.LogDir = "  "
	cfg.Source.GitBackend = "bzr"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
	}
	var ce *InvalidConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error should be *InvalidConfigError, got %T", err)
	}
	if len(ce.FieldErrors) != 3 {
		t.Errorf("field errors = %d, want 3: %v", len(ce.FieldErrors), ce.FieldErrors)
	}
}

func TestOptionsMapping(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DistDir = "/out"
	cfg.Toolchain.CMake = "cmake3"
	cfg.Toolchain.PythonPrefix = "/usr/bin/python"
	cfg.Packaging.LicenseFile = "COPYING"

	b := cfg.BuildOptions()
	if b.DistDir != "/out" || b.CMakeBinary != "cmake3" || b.MakeTarget != "bpy" {
		t.Errorf("BuildOptions() = %+v", b)
	}
	p := cfg.PackagingOptions()
	if p.DistDir != "/out" || p.PythonPrefix != "/usr/bin/python" || p.LicenseFile != "COPYING" {
		t.Errorf("PackagingOptions() = %+v", p)
	}
}
