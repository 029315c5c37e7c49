// Package raster decodes texture files into the straight-alpha RGBA
// buffers embedded in Mole containers.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration

	"github.com/voxelsplace/mole/mole"
)

// Decode decodes PNG, JPEG, BMP, WebP or TGA data. TGA has no magic number,
// so it is tried when nothing registered recognises the data.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, format, nil
	}
	if !errors.Is(err, image.ErrFormat) {
		return nil, format, err
	}
	img, tgaErr := DecodeTGA(data)
	if tgaErr != nil {
		return nil, "", fmt.Errorf("unrecognised image format: %w", tgaErr)
	}
	return img, "tga", nil
}

// LoadImage decodes data into a Mole image.
func LoadImage(data []byte) (mole.Image, error) {
	img, _, err := Decode(data)
	if err != nil {
		return mole.Image{}, err
	}
	return mole.ImageFrom(img), nil
}
