package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "/etc/pmmenu.yaml"

// Tools holds the names or paths of the wrapped Privilege Manager binaries.
// Bare names are resolved through PATH at invocation time.
type Tools struct {
	Pmpolicy     string `yaml:"pmpolicy,omitempty"`
	Pmcheck      string `yaml:"pmcheck,omitempty"`
	Pmlog        string `yaml:"pmlog,omitempty"`
	Pmreplay     string `yaml:"pmreplay,omitempty"`
	Pmsrvinfo    string `yaml:"pmsrvinfo,omitempty"`
	Pmclientinfo string `yaml:"pmclientinfo,omitempty"`
	Pmplugininfo string `yaml:"pmplugininfo,omitempty"`
}

// Config is the top-level pmmenu.yaml model.
type Config struct {
	WorkspaceRoot string `yaml:"workspace_root"`
	OplogPath     string `yaml:"oplog_path"`
	Editor        string `yaml:"editor,omitempty"`
	ValidatorMode string `yaml:"validator_mode,omitempty"`
	Tools         Tools  `yaml:"tools,omitempty"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		WorkspaceRoot: "/var/tmp/pmpolicy",
		OplogPath:     "/var/tmp/pmmenu.log",
		ValidatorMode: "sudo",
		Tools: Tools{
			Pmpolicy:     "pmpolicy",
			Pmcheck:      "pmcheck",
			Pmlog:        "pmlog",
			Pmreplay:     "pmreplay",
			Pmsrvinfo:    "pmsrvinfo",
			Pmclientinfo: "pmclientinfo",
			Pmplugininfo: "pmplugininfo",
		},
	}
}

// Load reads a config file. A missing file at DefaultPath falls back to
// Default(); a missing file at an explicitly requested path is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates config content. Absent keys keep their
// Default() values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.WorkspaceRoot == "" {
		return fmt.Errorf("config: workspace_root is required")
	}
	if !filepath.IsAbs(cfg.WorkspaceRoot) {
		return fmt.Errorf("config: workspace_root must be an absolute path: %s", cfg.WorkspaceRoot)
	}
	if cfg.OplogPath == "" {
		return fmt.Errorf("config: oplog_path is required")
	}
	if !filepath.IsAbs(cfg.OplogPath) {
		return fmt.Errorf("config: oplog_path must be an absolute path: %s", cfg.OplogPath)
	}
	for label, v := range map[string]string{
		"tools.pmpolicy":     cfg.Tools.Pmpolicy,
		"tools.pmcheck":      cfg.Tools.Pmcheck,
		"tools.pmlog":        cfg.Tools.Pmlog,
		"tools.pmreplay":     cfg.Tools.Pmreplay,
		"tools.pmsrvinfo":    cfg.Tools.Pmsrvinfo,
		"tools.pmclientinfo": cfg.Tools.Pmclientinfo,
		"tools.pmplugininfo": cfg.Tools.Pmplugininfo,
	} {
		if v == "" {
			return fmt.Errorf("config: %s must not be empty", label)
		}
	}
	return nil
}
