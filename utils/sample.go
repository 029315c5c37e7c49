package utils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/voxelsplace/mole/api"
	"github.com/voxelsplace/mole/internal/logger"
)

// RunSample writes a textured cube to outPath. A zero seed picks one from
// the clock.
func RunSample(opt Options, outPath string, seed int64, texSize int) error {
	if texSize > 4096 {
		return fmt.Errorf("texture size %d too large (max 4096)", texSize)
	}
	if seed == 0 {
		seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	logger.Debug("generating sample", zap.Int64("seed", seed), zap.Int("tex_size", texSize))
	return opt.writeContainer(api.SampleCube(seed, texSize), outPath)
}
