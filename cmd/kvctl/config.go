package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds the tuning knobs kvctl passes through to [kvdb.Open].
type Config struct {
	Dir             string `json:"dir"`
	CreateIfMissing bool   `json:"create_if_missing,omitempty"` //nolint:tagliatelle
	WriteBufferSize int    `json:"write_buffer_size,omitempty"` //nolint:tagliatelle
	CacheSize       int    `json:"cache_size,omitempty"`        //nolint:tagliatelle
}

// ConfigSources tracks which config files contributed to the final Config,
// for diagnostics.
type ConfigSources struct {
	Global  string
	Project string
}

// DefaultConfig returns Config's zero-knob defaults; zero fields are filled
// in by kvdb.DefaultOptions when Dir is opened.
func DefaultConfig() Config {
	return Config{
		Dir:             ".kvdb",
		CreateIfMissing: true,
	}
}

// ConfigFileName is the default project config file name, looked for in
// the current working directory.
const ConfigFileName = ".kvctl.json"

var errConfigFileNotFound = errors.New("kvctl: config file not found")

// getGlobalConfigPath returns ~/.config/kvctl/config.json (honoring
// $XDG_CONFIG_HOME), or "" if it cannot be determined.
func getGlobalConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "kvctl", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "kvctl", "config.json")
}

// LoadConfig loads configuration with the following precedence (highest
// wins): defaults, global user config, project config (.kvctl.json in
// workDir, or an explicit configPath), then cliOverrides.Dir when
// dirFlagSet is true. The other fields of cliOverrides are not applied
// here; the caller applies the remaining flag overrides.
func LoadConfig(workDir, configPath string, cliOverrides Config, dirFlagSet bool) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	globalCfg, globalPath, err := loadConfigFileOptional(getGlobalConfigPath())
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if dirFlagSet {
		cfg.Dir = cliOverrides.Dir
	}

	return cfg, sources, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath != "" {
		path := configPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}

		cfg, _, err := loadConfigFileOptional(path)

		return cfg, path, err
	}

	path := filepath.Join(workDir, ConfigFileName)

	return loadConfigFileOptional(path)
}

// loadConfigFileOptional reads and parses a JSONC config file at path. A
// missing file, or an empty path, is not an error - it yields a zero
// Config and an empty path.
func loadConfigFileOptional(path string) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, "", fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	return cfg, path, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Dir != "" {
		base.Dir = overlay.Dir
	}

	if overlay.CreateIfMissing {
		base.CreateIfMissing = true
	}

	if overlay.WriteBufferSize > 0 {
		base.WriteBufferSize = overlay.WriteBufferSize
	}

	if overlay.CacheSize > 0 {
		base.CacheSize = overlay.CacheSize
	}

	return base
}

// FormatConfig renders cfg as indented JSON, for the "config" one-shot
// command.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return strings.TrimRight(string(data), "\n"), nil
}
