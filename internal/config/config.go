// Package config handles moletool configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/voxelsplace/mole/mole"
)

// Config holds all tool settings.
type Config struct {
	Codec   CodecConfig   `yaml:"codec"`
	Import  ImportConfig  `yaml:"import"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// CodecConfig tunes the container codec.
type CodecConfig struct {
	Level        string `yaml:"level"` // fastest, default, better, best
	MaxDecodedMB int    `yaml:"max_decoded_mb"`
}

// ImportConfig controls glb2mole and img2mole.
type ImportConfig struct {
	DedupeImages bool `yaml:"dedupe_images"`
}

// ExportConfig controls mole2glb.
type ExportConfig struct {
	Generator string `yaml:"generator"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Codec: CodecConfig{
			Level:        "best",
			MaxDecodedMB: 1024,
		},
		Import: ImportConfig{
			DedupeImages: true,
		},
		Export: ExportConfig{
			Generator: "moletool",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults,
// unless ./moletool.yaml exists.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("moletool.yaml"); err != nil {
			return cfg, nil
		}
		path = "moletool.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if _, err := cfg.CodecSettings(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// CodecSettings builds the mole codec described by the config.
func (c *Config) CodecSettings() (mole.Codec, error) {
	cd := mole.DefaultCodec
	if c.Codec.Level != "" {
		lvl, err := parseLevel(c.Codec.Level)
		if err != nil {
			return cd, err
		}
		cd.Level = lvl
	}
	if c.Codec.MaxDecodedMB > 0 {
		cd.MaxDecodedSize = uint64(c.Codec.MaxDecodedMB) << 20
	}
	return cd, nil
}

func parseLevel(name string) (zstd.EncoderLevel, error) {
	ok, lvl := zstd.EncoderLevelFromString(name)
	if !ok {
		return 0, fmt.Errorf("unknown codec level %q", name)
	}
	return lvl, nil
}
