package raster

import (
	"fmt"
	"image"
)

// TGA image types.
const (
	tgaTypeUncompressed = 2
	tgaTypeRLE          = 10
)

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// data with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}
	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != tgaTypeUncompressed && imageType != tgaTypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty TGA image")
	}
	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	d := tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}
	var err error
	if imageType == tgaTypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.NRGBA
	src         []byte
	pos         int
	bpp         int
	topToBottom bool
}

// texel reads one BGR(A) texel from the source.
func (d *tgaDecoder) texel() ([4]byte, error) {
	if d.pos+d.bpp > len(d.src) {
		return [4]byte{}, fmt.Errorf("TGA pixel data truncated")
	}
	p := d.src[d.pos:]
	d.pos += d.bpp
	c := [4]byte{p[2], p[1], p[0], 255}
	if d.bpp == 4 {
		c[3] = p[3]
	}
	return c, nil
}

// put stores c at linear file order i.
func (d *tgaDecoder) put(i int, c [4]byte) {
	w, h := d.img.Rect.Dx(), d.img.Rect.Dy()
	x, y := i%w, i/w
	if !d.topToBottom {
		y = h - 1 - y
	}
	copy(d.img.Pix[d.img.PixOffset(x, y):], c[:])
}

func (d *tgaDecoder) raw() error {
	n := d.img.Rect.Dx() * d.img.Rect.Dy()
	for i := 0; i < n; i++ {
		c, err := d.texel()
		if err != nil {
			return err
		}
		d.put(i, c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	n := d.img.Rect.Dx() * d.img.Rect.Dy()
	for i := 0; i < n; {
		if d.pos >= len(d.src) {
			return fmt.Errorf("TGA RLE data truncated")
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1
		if packet&0x80 != 0 {
			c, err := d.texel()
			if err != nil {
				return err
			}
			for j := 0; j < count && i < n; j++ {
				d.put(i, c)
				i++
			}
			continue
		}
		for j := 0; j < count && i < n; j++ {
			c, err := d.texel()
			if err != nil {
				return err
			}
			d.put(i, c)
			i++
		}
	}
	return nil
}
