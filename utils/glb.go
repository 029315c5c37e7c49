package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/voxelsplace/mole/api"
	"github.com/voxelsplace/mole/internal/logger"
	"github.com/voxelsplace/mole/mole"
)

// RunGLB2Mole converts a .glb (or self-contained .gltf) into a .mole file.
func RunGLB2Mole(opt Options, inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	c, err := api.GLBToContainer(data, opt.Dedupe)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	for _, is := range mole.Validate(c) {
		logger.Warn("imported data issue", zap.String("issue", is.String()))
	}
	return opt.writeContainer(c, outPath)
}

// RunMole2GLB converts a .mole file into a .glb.
func RunMole2GLB(opt Options, inPath, outPath string) error {
	c, err := opt.readContainer(inPath)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	glb, err := api.ContainerToGLB(c, opt.Generator)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	logger.Info("exported glb", zap.String("file", outPath), zap.Int("bytes", len(glb)))
	return os.WriteFile(outPath, glb, 0o644)
}
