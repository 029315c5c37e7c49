package api

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/voxelsplace/mole/mole"
)

// ImageSummary describes one embedded image.
type ImageSummary struct {
	Index       int
	Width       uint32
	Height      uint32
	ColorSpace  string
	Bytes       int
	Fingerprint uint64
}

// Summary describes a container for the info command.
type Summary struct {
	Models    int
	Materials int
	Images    []ImageSummary
	Vertices  int
	Triangles int
	Issues    []mole.Issue
}

// Fingerprint hashes an image's dimensions, color space and pixels.
func Fingerprint(img mole.Image) uint64 {
	var hdr [9]byte
	hdr[0] = uint8(img.ColorSpace)
	binary.LittleEndian.PutUint32(hdr[1:], img.Width)
	binary.LittleEndian.PutUint32(hdr[5:], img.Height)
	h := xxhash.New()
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(img.Pixels)
	return h.Sum64()
}

// DedupeImages drops images whose pixels duplicate an earlier image. It
// returns the kept images and, for each input index, its new index.
func DedupeImages(images []mole.Image) ([]mole.Image, []uint32) {
	kept := make([]mole.Image, 0, len(images))
	remap := make([]uint32, len(images))
	index := make(map[uint64][]int, len(images))
	for i, img := range images {
		fp := Fingerprint(img)
		found := -1
		// Fingerprints can collide; compare before sharing.
		for _, k := range index[fp] {
			if sameImage(kept[k], img) {
				found = k
				break
			}
		}
		if found < 0 {
			found = len(kept)
			kept = append(kept, img)
			index[fp] = append(index[fp], found)
		}
		remap[i] = uint32(found)
	}
	return kept, remap
}

func sameImage(a, b mole.Image) bool {
	return a.ColorSpace == b.ColorSpace && a.Width == b.Width && a.Height == b.Height && bytes.Equal(a.Pixels, b.Pixels)
}

// Summarize counts the contents of c and runs mole.Validate on it.
func Summarize(c *mole.Container) Summary {
	s := Summary{
		Models:    len(c.Models),
		Materials: len(c.Materials),
		Issues:    mole.Validate(c),
	}
	for _, m := range c.Models {
		s.Vertices += len(m.Vertices)
		s.Triangles += len(m.Indices) / 3
	}
	for i, img := range c.Images {
		s.Images = append(s.Images, ImageSummary{
			Index:       i,
			Width:       img.Width,
			Height:      img.Height,
			ColorSpace:  img.ColorSpace.String(),
			Bytes:       len(img.Pixels),
			Fingerprint: Fingerprint(img),
		})
	}
	return s
}

// WriteText prints s in a human-readable form.
func (s Summary) WriteText(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Models:    %d\n", s.Models)
	fmt.Fprintf(&buf, "Materials: %d\n", s.Materials)
	fmt.Fprintf(&buf, "Images:    %d\n", len(s.Images))
	fmt.Fprintf(&buf, "Vertices:  %d\n", s.Vertices)
	fmt.Fprintf(&buf, "Triangles: %d\n", s.Triangles)
	for _, img := range s.Images {
		fmt.Fprintf(&buf, "  image %d: %dx%d %s %d bytes xxh64=%016x\n",
			img.Index, img.Width, img.Height, img.ColorSpace, img.Bytes, img.Fingerprint)
	}
	if len(s.Issues) == 0 {
		buf.WriteString("No issues\n")
	}
	for _, is := range s.Issues {
		fmt.Fprintf(&buf, "  %s\n", is)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
