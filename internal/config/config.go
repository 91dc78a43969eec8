// Package config resolves the CLI's own local preferences (output format,
// base directory, verbosity) from a layered precedence chain: flags > env
// vars > project dotfile > home dotfile > defaults. This is distinct from
// the Artifact Store's marshal.json/run-configuration.json, which are
// plain JSON by spec and loaded directly through internal/artifactstore —
// this package only ever touches the CLI's own YAML dotfile.
//
// Follows a Load/Resolve/merge
// precedence chain, generalized from AgentOps's env-var surface to
// plan-marshall's own.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultOutput  = "table"
	defaultBaseDir = ".marshall"
)

// Config holds the CLI's own resolved preferences.
type Config struct {
	Output  string `yaml:"output" json:"output"`
	BaseDir string `yaml:"base_dir" json:"base_dir"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{Output: defaultOutput, BaseDir: defaultBaseDir}
}

// Source identifies where a resolved value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.plan-marshall/config.yaml"
	SourceProject Source = ".plan-marshall/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// Resolved pairs a value with where it came from.
type Resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// ResolvedConfig is Config with source provenance attached to every field,
// the shape the `config` subcommand renders.
type ResolvedConfig struct {
	Output  Resolved `json:"output"`
	BaseDir Resolved `json:"base_dir"`
	Verbose Resolved `json:"verbose"`
}

// FlagOverrides carries explicit command-line flag values; zero values
// mean "not set" and do not override lower-precedence sources.
type FlagOverrides struct {
	Output  string
	BaseDir string
	Verbose bool
}

// Resolve runs the full precedence chain and reports, per field, which
// source won.
func Resolve(flags FlagOverrides) *ResolvedConfig {
	home, _ := loadDotfile(homeConfigPath())
	project, _ := loadDotfile(projectConfigPath())

	rc := &ResolvedConfig{
		Output:  resolveString(stringOf(home, "output"), stringOf(project, "output"), os.Getenv("PLANMARSHALL_OUTPUT"), flags.Output, defaultOutput),
		BaseDir: resolveString(stringOf(home, "base_dir"), stringOf(project, "base_dir"), os.Getenv("PLANMARSHALL_BASE_DIR"), flags.BaseDir, defaultBaseDir),
		Verbose: Resolved{Value: false, Source: SourceDefault},
	}

	if home != nil && home.Verbose {
		rc.Verbose = Resolved{Value: true, Source: SourceHome}
	}
	if project != nil && project.Verbose {
		rc.Verbose = Resolved{Value: true, Source: SourceProject}
	}
	if envBool("PLANMARSHALL_VERBOSE") {
		rc.Verbose = Resolved{Value: true, Source: SourceEnv}
	}
	if flags.Verbose {
		rc.Verbose = Resolved{Value: true, Source: SourceFlag}
	}

	return rc
}

func resolveString(home, project, env, flag, def string) Resolved {
	result := Resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = Resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = Resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = Resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = Resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

func stringOf(cfg *Config, field string) string {
	if cfg == nil {
		return ""
	}
	switch field {
	case "output":
		return cfg.Output
	case "base_dir":
		return cfg.BaseDir
	default:
		return ""
	}
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".plan-marshall", "config.yaml")
}

func projectConfigPath() string {
	if override := os.Getenv("PLANMARSHALL_CONFIG"); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".plan-marshall", "config.yaml")
}

func loadDotfile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
