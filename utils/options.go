package utils

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/voxelsplace/mole/internal/config"
	"github.com/voxelsplace/mole/internal/logger"
	"github.com/voxelsplace/mole/mole"
)

// Options carries the settings every Run* helper needs.
type Options struct {
	Codec     mole.Codec
	Dedupe    bool
	Generator string
}

// DefaultOptions returns the options of an empty config file.
func DefaultOptions() Options {
	opt, err := OptionsFromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return opt
}

// OptionsFromConfig builds Options from a loaded config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	cd, err := cfg.CodecSettings()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Codec:     cd,
		Dedupe:    cfg.Import.DedupeImages,
		Generator: cfg.Export.Generator,
	}, nil
}

func (o Options) readContainer(path string) (*mole.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	c, err := o.Codec.Decode(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded container",
		zap.String("file", path),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return c, nil
}

func (o Options) writeContainer(c *mole.Container, path string) error {
	start := time.Now()
	data, err := o.Codec.Encode(c)
	if err != nil {
		return err
	}
	logger.Info("encoded container",
		zap.String("file", path),
		zap.Int("models", len(c.Models)),
		zap.Int("materials", len(c.Materials)),
		zap.Int("images", len(c.Images)),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return os.WriteFile(path, data, 0o644)
}
