// Package config handles loading the qa-runner configuration.
//
// The configuration source is layered, later layers overriding earlier
// ones:
//
//  1. Built-in defaults.
//  2. An optional config file: qa-runner.yaml (YAML) or qa-runner.json
//     (JSON with comments, parsed via github.com/tidwall/jsonc).
//  3. Environment variables: MODE, MAX_RETRIES, MAX_CONCURRENCY — the
//     variables the original deployment wrapper consumed.
//
// CLI flags form a fourth layer applied by the cli package on top of
// the loaded Config.
//
// The result is converted once into a model.RunConfig at process start
// and is immutable afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/qa-runner/internal/model"
)

// Default configuration values. The retry and concurrency defaults
// match the original deployment wrapper.
const (
	DefaultMaxRetries     = 5
	DefaultMaxConcurrency = 3

	// DefaultLogFile is the fail log location, relative to the working
	// directory. It is recreated fresh at the start of every run.
	DefaultLogFile = "fail.log"
)

// defaultFileNames are probed in order when no --config path is given.
var defaultFileNames = []string{"qa-runner.yaml", "qa-runner.yml", "qa-runner.json"}

// Config is the fully resolved wrapper configuration.
type Config struct {
	// Mode is the raw configured mode string. It is deliberately NOT
	// validated at load time: an invalid mode must reach the fail log,
	// not fail the config layer.
	Mode string

	// MaxRetries bounds the Worker retry loop.
	MaxRetries int

	// MaxConcurrency is passed through to the Worker.
	MaxConcurrency int

	// PrepareCommand is the Preparer program and its fixed leading
	// arguments. The input and output paths are appended per run.
	PrepareCommand []string

	// RunCommand is the Worker program and its fixed leading
	// arguments. The concurrency limit and output path are appended
	// per invocation.
	RunCommand []string

	// LogFile is the fail log path.
	LogFile string
}

// Default returns a Config populated with built-in defaults.
// The mode has no default: the configuration source must define it.
func Default() *Config {
	return &Config{
		MaxRetries:     DefaultMaxRetries,
		MaxConcurrency: DefaultMaxConcurrency,
		PrepareCommand: []string{"python3", "prepare.py"},
		RunCommand:     []string{"python3", "run.py"},
		LogFile:        DefaultLogFile,
	}
}

// fileConfig is the on-disk representation. Numeric fields are
// pointers so that an explicit 0 can be distinguished from absence.
type fileConfig struct {
	Mode           string   `json:"mode" yaml:"mode"`
	MaxRetries     *int     `json:"maxRetries" yaml:"maxRetries"`
	MaxConcurrency *int     `json:"maxConcurrency" yaml:"maxConcurrency"`
	PrepareCommand []string `json:"prepareCommand" yaml:"prepareCommand"`
	RunCommand     []string `json:"runCommand" yaml:"runCommand"`
	LogFile        string   `json:"logFile" yaml:"logFile"`
}

// Load builds the configuration from defaults, an optional config
// file, and environment overrides.
//
// If explicitPath is non-empty the file must exist and parse; an
// unreadable configuration source is fatal before any subprocess runs.
// Otherwise the default file names are probed in the working directory
// and a missing file simply means defaults apply.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	path, err := resolvePath(explicitPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePath determines which config file to read, if any.
func resolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}
	for _, name := range defaultFileNames {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

// mergeFile overlays the values from a config file onto cfg.
// YAML files are parsed with yaml.v3; anything else is treated as
// JSONC — comments are stripped with jsonc before standard JSON
// parsing, so hand-maintained config files may carry annotations.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var f fileConfig
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if f.Mode != "" {
		c.Mode = f.Mode
	}
	if f.MaxRetries != nil {
		c.MaxRetries = *f.MaxRetries
	}
	if f.MaxConcurrency != nil {
		c.MaxConcurrency = *f.MaxConcurrency
	}
	if len(f.PrepareCommand) > 0 {
		c.PrepareCommand = f.PrepareCommand
	}
	if len(f.RunCommand) > 0 {
		c.RunCommand = f.RunCommand
	}
	if f.LogFile != "" {
		c.LogFile = f.LogFile
	}
	return nil
}

// applyEnv overlays the original wrapper's environment variables.
// The lookup function is injected for testability (os.LookupEnv in
// production).
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MODE"); ok {
		c.Mode = v
	}
	if v, ok := lookup("MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_RETRIES value %q: %w", v, err)
		}
		c.MaxRetries = n
	}
	if v, ok := lookup("MAX_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_CONCURRENCY value %q: %w", v, err)
		}
		c.MaxConcurrency = n
	}
	return nil
}

// RunConfig converts the loaded configuration into the immutable
// model.RunConfig consumed by the orchestrator, validating the numeric
// ranges. The mode passes through unvalidated (lowercased only) so the
// orchestrator can log an invalid mode per its contract.
func (c *Config) RunConfig() (model.RunConfig, error) {
	rc := model.RunConfig{
		Mode:           model.Mode(strings.ToLower(c.Mode)),
		MaxRetries:     c.MaxRetries,
		MaxConcurrency: c.MaxConcurrency,
	}
	if err := rc.Validate(); err != nil {
		return model.RunConfig{}, err
	}
	return rc, nil
}
