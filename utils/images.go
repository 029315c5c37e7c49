package utils

import (
	"fmt"
	"os"
	"sync"

	"github.com/voxelsplace/mole/api"
)

// RunImages2Mole reads raster files and writes a texture-only .mole file.
func RunImages2Mole(opt Options, inputFiles []string, outputFile string) error {
	if len(inputFiles) == 0 {
		return fmt.Errorf("no image files provided")
	}
	blobs := make([][]byte, len(inputFiles))
	errs := make([]error, len(inputFiles))

	var wg sync.WaitGroup
	for i := range inputFiles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			blobs[i], errs[i] = os.ReadFile(inputFiles[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	c, err := api.ImagesToContainer(blobs, opt.Dedupe)
	if err != nil {
		return err
	}
	return opt.writeContainer(c, outputFile)
}
