// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ExitCode
		wantValid bool
	}{
		{name: "success is valid", value: ExitSuccess, wantValid: true},
		{name: "failure is valid", value: ExitFailure, wantValid: true},
		{name: "tox failure is valid", value: 42, wantValid: true},
		{name: "255 is valid", value: 255, wantValid: true},
		{name: "negative is invalid", value: -1, wantValid: false},
		{name: "256 is invalid", value: 256, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Fatalf("ExitCode(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error does not wrap ErrInvalidExitCode: %v", err)
			}
		})
	}
}

func TestExitCodeMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     ExitCode
		expected ExitCode
		want     bool
	}{
		{0, 0, true},
		{1, 0, false},
		{0, 1, false},
		{3, 3, true},
	}

	for _, tt := range tests {
		if got := tt.code.Matches(tt.expected); got != tt.want {
			t.Errorf("ExitCode(%d).Matches(%d) = %v, want %v", tt.code, tt.expected, got, tt.want)
		}
	}

	if !ExitCode(0).IsSuccess() || ExitCode(2).IsSuccess() {
		t.Error("IsSuccess() disagrees with zero-means-success")
	}
}
