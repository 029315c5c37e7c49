package mole

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ColorSpace tags how an Image's RGB channels are encoded. New variants may
// be added; the wire form is the variant name.
type ColorSpace uint8

const (
	// ColorSpaceSRGB is standard-gamma RGB.
	ColorSpaceSRGB ColorSpace = iota
)

var colorSpaceNames = map[ColorSpace]string{
	ColorSpaceSRGB: "SRGB",
}

// String returns the wire name of cs.
func (cs ColorSpace) String() string {
	if name, ok := colorSpaceNames[cs]; ok {
		return name
	}
	return fmt.Sprintf("ColorSpace(%d)", uint8(cs))
}

// ParseColorSpace maps a wire name back to a ColorSpace.
func ParseColorSpace(name string) (ColorSpace, error) {
	for cs, n := range colorSpaceNames {
		if n == name {
			return cs, nil
		}
	}
	return 0, fmt.Errorf("unknown color space %q", name)
}

// Image is a raster embedded in the container: Width*Height texels of
// interleaved, straight-alpha RGBA, row-major, no padding, no mipmaps.
type Image struct {
	ColorSpace ColorSpace
	Width      uint32
	Height     uint32
	Pixels     []byte
}

// String describes the image header. Pixel data is reported by length only.
func (img Image) String() string {
	return fmt.Sprintf("Image{ColorSpace: %s, Width: %d, Height: %d, Pixels: %d bytes}",
		img.ColorSpace, img.Width, img.Height, len(img.Pixels))
}

// NewImage builds an sRGB Image from an RGBA buffer. It panics if
// len(pixels) != width*height*4; callers own that precondition.
func NewImage(width, height uint32, pixels []byte) Image {
	want := uint64(width) * uint64(height) * 4
	if uint64(len(pixels)) != want {
		panic(fmt.Sprintf("mole: pixel buffer is %d bytes, %dx%d RGBA needs %d", len(pixels), width, height, want))
	}
	return Image{
		ColorSpace: ColorSpaceSRGB,
		Width:      width,
		Height:     height,
		Pixels:     pixels,
	}
}

// ImageFromNRGBA copies a decoded raster into a new Image, dropping any
// stride padding.
func ImageFromNRGBA(src *image.NRGBA) Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(pixels[y*w*4:(y+1)*w*4], row[:w*4])
	}
	return NewImage(uint32(w), uint32(h), pixels)
}

// ImageFrom converts any decoded image to an Image. Colors are converted to
// straight (non-premultiplied) alpha.
func ImageFrom(src image.Image) Image {
	if nrgba, ok := src.(*image.NRGBA); ok {
		return ImageFromNRGBA(nrgba)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return ImageFromNRGBA(dst)
}

// NRGBA returns a view of img as a Go image sharing the pixel buffer.
// It returns an error when the buffer does not match the dimensions, which
// can happen for decoded (untrusted) containers.
func (img Image) NRGBA() (*image.NRGBA, error) {
	want := uint64(img.Width) * uint64(img.Height) * 4
	if uint64(len(img.Pixels)) != want {
		return nil, fmt.Errorf("image %dx%d has %d bytes, want %d", img.Width, img.Height, len(img.Pixels), want)
	}
	return &image.NRGBA{
		Pix:    img.Pixels,
		Stride: int(img.Width) * 4,
		Rect:   image.Rect(0, 0, int(img.Width), int(img.Height)),
	}, nil
}
