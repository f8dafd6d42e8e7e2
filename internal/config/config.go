// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bpybuild/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "bpybuild"
	// EnvPrefix prefixes every environment override, e.g. BPYBUILD_DIST_DIR.
	EnvPrefix = "BPYBUILD"
	// ConfigFileName is the name of the config file in the user config dir.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is the name of the config file in the working directory.
	LocalConfigFileName = "bpybuild.cue"
	// EnvFileName is the dotenv file read from the working directory.
	EnvFileName = ".env"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

var envKeyReplacer = strings.NewReplacer(".", "_")

// ConfigDir returns the bpybuild configuration directory under the
// platform's user config dir.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	path, err := resolveConfigFile(opts, workDir)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'bpybuild config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	if err := loadDotEnv(v, filepath.Join(workDir, EnvFileName)); err != nil {
		return nil, "", issue.WrapWithContext(err, "load .env file", filepath.Join(workDir, EnvFileName))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check BPYBUILD_* environment variables and .env for typos").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

// resolveConfigFile picks the config file to read. An explicit path must
// exist; the implicit locations are optional.
func resolveConfigFile(opts LoadOptions, workDir string) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if local := filepath.Join(workDir, LocalConfigFileName); fileExists(local) {
		return local, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if user := filepath.Join(cfgDir, ConfigFileName); fileExists(user) {
		return user, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("dist_dir", d.DistDir)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("source.repo_url", d.Source.RepoURL)
	v.SetDefault("source.libs_url", d.Source.LibsURL)
	v.SetDefault("source.git_backend", string(d.Source.GitBackend))
	v.SetDefault("toolchain.git", d.Toolchain.Git)
	v.SetDefault("toolchain.svn", d.Toolchain.SVN)
	v.SetDefault("toolchain.make", d.Toolchain.Make)
	v.SetDefault("toolchain.cmake", d.Toolchain.CMake)
	v.SetDefault("toolchain.python_prefix", d.Toolchain.PythonPrefix)
	v.SetDefault("toolchain.tox", d.Toolchain.Tox)
	v.SetDefault("build.make_target", d.Build.MakeTarget)
	v.SetDefault("build.build_dir_name", d.Build.BuildDirName)
	v.SetDefault("build.lib_dir_name", d.Build.LibDirName)
	v.SetDefault("packaging.license_file", d.Packaging.LicenseFile)
	v.SetDefault("packaging.readme_file", d.Packaging.ReadmeFile)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
}

// loadDotEnv applies BPYBUILD_* entries of a dotenv file. Variables already
// set in the process environment win over the file.
func loadDotEnv(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	for _, key := range v.AllKeys() {
		name := EnvName(key)
		val, ok := values[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(key, val)
	}
	return nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError renders CUE errors as "<file>: <field path>: <message>".
func formatCUEError(err error, path string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.Join(cueerrors.Path(e), ".")
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(e.Error(), field), ":"))
		if field != "" {
			msg = field + ": " + msg
		}
		lines = append(lines, msg)
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", path, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", path, strings.Join(lines, "\n  "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the user config
// directory unless a file already exists there. It returns the file path.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName)
	if fileExists(cfgPath) {
		return cfgPath, nil
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// bpybuild configuration file\n\n")
	fmt.Fprintf(&sb, "dist_dir: %q\n", cfg.DistDir)
	fmt.Fprintf(&sb, "log_dir:  %q\n", cfg.LogDir)
	fmt.Fprintf(&sb, "jobs:     %d\n", cfg.Jobs)

	sb.WriteString("\nsource: {\n")
	fmt.Fprintf(&sb, "\trepo_url:    %q\n", cfg.Source.RepoURL)
	fmt.Fprintf(&sb, "\tlibs_url:    %q\n", cfg.Source.LibsURL)
	fmt.Fprintf(&sb, "\tgit_backend: %q\n", cfg.Source.GitBackend)
	sb.WriteString("}\n")

	sb.WriteString("\ntoolchain: {\n")
	fmt.Fprintf(&sb, "\tgit:           %q\n", cfg.Toolchain.Git)
	fmt.Fprintf(&sb, "\tsvn:           %q\n", cfg.Toolchain.SVN)
	fmt.Fprintf(&sb, "\tmake:          %q\n", cfg.Toolchain.Make)
	fmt.Fprintf(&sb, "\tcmake:         %q\n", cfg.Toolchain.CMake)
	fmt.Fprintf(&sb, "\tpython_prefix: %q\n", cfg.Toolchain.PythonPrefix)
	fmt.Fprintf(&sb, "\ttox:           %q\n", cfg.Toolchain.Tox)
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tmake_target:    %q\n", cfg.Build.MakeTarget)
	fmt.Fprintf(&sb, "\tbuild_dir_name: %q\n", cfg.Build.BuildDirName)
	fmt.Fprintf(&sb, "\tlib_dir_name:   %q\n", cfg.Build.LibDirName)
	sb.WriteString("}\n")

	sb.WriteString("\npackaging: {\n")
	fmt.Fprintf(&sb, "\tlicense_file: %q\n", cfg.Packaging.LicenseFile)
	fmt.Fprintf(&sb, "\treadme_file:  %q\n", cfg.Packaging.ReadmeFile)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	sb.WriteString("\ntelemetry: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Telemetry.Enabled)
	sb.WriteString("}\n")

	return sb.String()
}
