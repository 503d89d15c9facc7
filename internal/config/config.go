// Package config loads remlint settings from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Keys understood in config files. Each may be overridden by an
// environment variable named after it, for example
// REMLINT_DIAGNOSTICS_ENABLED for diagnostics.enabled.
const (
	KeyDiagnosticsEnabled = "diagnostics.enabled"
	KeyLogLevel           = "log.level"
	KeyOutputFormat       = "output.format"
	KeyMatchNames         = "match.names"
)

// ProjectFile is the name of the per-project config file.
const ProjectFile = ".remlint.yaml"

// Paths records the config files consulted by Load. A path is empty when
// it could not be determined.
type Paths struct {
	Global  string
	Project string
}

// Config is the merged configuration.
type Config struct {
	// DiagnosticsEnabled reports whether diagnostics are published at all.
	DiagnosticsEnabled bool
	LogLevel           string
	OutputFormat       string

	// Names are the base names of files treated as Remfiles regardless
	// of the language id reported by an editor.
	Names []string

	Paths Paths
}

// Default returns the configuration used when no files are present.
func Default() *Config {
	return fromViper(newViper(), Paths{})
}

// Load merges configuration in priority order: built-in defaults, then
// the global file, then the project file in projectDir, then environment
// variables.
func Load(projectDir string) (*Config, error) {
	v := newViper()
	paths := Paths{
		Global:  globalConfigPath(),
		Project: projectConfigPath(projectDir),
	}
	if err := mergeConfigFile(v, paths.Global); err != nil {
		return nil, err
	}
	if err := mergeConfigFile(v, paths.Project); err != nil {
		return nil, err
	}
	return fromViper(v, paths), nil
}

// IsRemfile reports whether a document should be validated: either the
// editor identified it as a Remfile, or its base name is one of c.Names.
func (c *Config) IsRemfile(languageID, path string) bool {
	if languageID == "remfile" {
		return true
	}
	if path == "" {
		return false
	}
	return slices.Contains(c.Names, filepath.Base(path))
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("REMLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDiagnosticsEnabled, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyOutputFormat, "text")
	v.SetDefault(KeyMatchNames, []string{"Remfile"})
	return v
}

func fromViper(v *viper.Viper, paths Paths) *Config {
	return &Config{
		DiagnosticsEnabled: v.GetBool(KeyDiagnosticsEnabled),
		LogLevel:           v.GetString(KeyLogLevel),
		OutputFormat:       v.GetString(KeyOutputFormat),
		Names:              v.GetStringSlice(KeyMatchNames),
		Paths:              paths,
	}
}

func globalConfigPath() string {
	if path, ok := os.LookupEnv("REMLINT_GLOBAL_CONFIG"); ok && path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "remlint", "config.yaml")
}

func projectConfigPath(projectDir string) string {
	if projectDir == "" {
		return ""
	}
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return ""
	}
	return filepath.Join(projectDir, ProjectFile)
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
