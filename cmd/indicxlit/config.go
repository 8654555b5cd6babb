package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config mirrors ~/.config/indicxlit/config.yaml. Pointer fields separate
// "not set" from zero values.
type Config struct {
	ModelDir string `yaml:"model_dir"`
	DictDir  string `yaml:"dict_dir"`
	DictURL  string `yaml:"dict_url"`

	BeamWidth    *int64   `yaml:"beam_width"`
	MaxLen       *int64   `yaml:"max_len"`
	Rescore      *bool    `yaml:"rescore"`
	RescoreAlpha *float64 `yaml:"rescore_alpha"`
	Parallelism  *int64   `yaml:"parallelism"`

	// Runtime
	Provider       string `yaml:"provider"`
	Threads        *int64 `yaml:"threads"`
	OnnxRuntimeLib string `yaml:"onnxruntime_lib"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
	MaxCount      *int64 `yaml:"max_count"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "indicxlit", "config.yaml")
}

// LoadConfig reads path, or the default location when path is empty. A
// missing default file yields a zero Config; a missing explicit file is an
// error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyGlobalConfig applies logging defaults when the flags were not set.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyEngineConfig applies config file defaults to the engine flags that
// were not set on the command line or through the environment.
func applyEngineConfig(c *cli.Command, cfg Config) {
	if cfg.ModelDir != "" && !c.IsSet("model-dir") {
		modelDir = cfg.ModelDir
	}
	if cfg.DictDir != "" && !c.IsSet("dict-dir") {
		dictDir = cfg.DictDir
	}
	if cfg.DictURL != "" && !c.IsSet("dict-url") {
		dictURL = cfg.DictURL
	}
	if cfg.BeamWidth != nil && !c.IsSet("beam-width") {
		beamWidth = *cfg.BeamWidth
	}
	if cfg.MaxLen != nil && !c.IsSet("max-len") {
		maxLen = *cfg.MaxLen
	}
	if cfg.Rescore != nil && !c.IsSet("rescore") {
		rescoreFlag = *cfg.Rescore
	}
	if cfg.RescoreAlpha != nil && !c.IsSet("rescore-alpha") {
		rescoreAlpha = *cfg.RescoreAlpha
	}
	if cfg.Parallelism != nil && !c.IsSet("parallelism") {
		parallelism = *cfg.Parallelism
	}
	if cfg.Provider != "" && !c.IsSet("provider") {
		provider = cfg.Provider
	}
	if cfg.Threads != nil && !c.IsSet("threads") {
		threads = *cfg.Threads
	}
	if cfg.OnnxRuntimeLib != "" && !c.IsSet("onnxruntime-lib") {
		ortLibrary = cfg.OnnxRuntimeLib
	}
}

// applyServeConfig applies config file defaults to serve-only flags.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxCount *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxCount != nil && !c.IsSet("max-count") {
		*maxCount = *cfg.MaxCount
	}
}
