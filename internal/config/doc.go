// SPDX-License-Identifier: MPL-2.0

// Package config handles bpybuild configuration using Viper with CUE as the file format.
//
// Values are resolved in this order, later sources winning: built-in defaults,
// the CUE config file, a .env file in the working directory, and BPYBUILD_*
// environment variables. The config file is the one passed with --config,
// else ./bpybuild.cue, else <user config dir>/bpybuild/config.cue.
//
// Config files are validated against the closed #Config schema in
// config_schema.cue, so unknown keys are rejected.
package config
