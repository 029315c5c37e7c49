package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/voxelsplace/mole/api"
	"github.com/voxelsplace/mole/mole"
)

// RunInfo prints a summary of a .mole file. It fails when the file has
// validation errors, so it can gate a content pipeline.
func RunInfo(opt Options, inPath string, w io.Writer) error {
	fi, err := os.Stat(inPath)
	if err != nil {
		return err
	}
	c, err := opt.readContainer(inPath)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	s := api.Summarize(c)
	fmt.Fprintf(w, "File:      %s (%d bytes)\n", inPath, fi.Size())
	if err := s.WriteText(w); err != nil {
		return err
	}
	if mole.HasErrors(s.Issues) {
		return fmt.Errorf("%s: %d validation issue(s)", inPath, len(s.Issues))
	}
	return nil
}
