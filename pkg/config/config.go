package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where Load looks when no path is given
const DefaultPath = "~/.sceneio.toml"

// Config holds the settings shared by every command
type Config struct {
	LogLevel             string `toml:"log_level"`
	Workers              int    `toml:"workers"`
	LoadMeshes           bool   `toml:"load_meshes"`
	LoadTextures         bool   `toml:"load_textures"`
	KeepConstantTextures bool   `toml:"keep_constant_textures"`
	ExternalMeshes       bool   `toml:"external_meshes"`
	OutputDir            string `toml:"output_dir"`
}

// Default returns the settings used when no config file exists
func Default() Config {
	return Config{
		LogLevel:     "notice",
		Workers:      runtime.NumCPU(),
		LoadMeshes:   true,
		LoadTextures: true,
	}
}

// Load reads a TOML config file on top of the defaults. A leading ~ in path
// is expanded; a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to expand config path %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", expanded, err)
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", expanded, err)
	}
	return cfg, nil
}

// Parse decodes TOML into cfg, leaving unset keys untouched. Unknown keys
// are an error.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return nil
}

// OutputPath expands ~ in the configured output directory
func (c Config) OutputPath() (string, error) {
	if c.OutputDir == "" {
		return "", nil
	}
	return homedir.Expand(c.OutputDir)
}
