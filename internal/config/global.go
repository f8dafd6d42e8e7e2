// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces os.UserConfigDir()/bpybuild when non-empty.
var configDirOverride string

// SetConfigDirOverride points ConfigDir at dir. Tests use it so that the
// fallback config.cue and `config init` never touch the real user directory.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset drops any override set by SetConfigDirOverride.
func Reset() {
	SetConfigDirOverride("")
}
