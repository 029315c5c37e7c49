package mole

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestNewImage(t *testing.T) {
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	img := NewImage(2, 1, pixels)
	if img.ColorSpace != ColorSpaceSRGB {
		t.Errorf("expected sRGB, got %v", img.ColorSpace)
	}
	if img.Width != 2 || img.Height != 1 {
		t.Errorf("expected 2x1, got %dx%d", img.Width, img.Height)
	}
	if !bytes.Equal(img.Pixels, pixels) {
		t.Errorf("pixels differ")
	}
}

func TestNewImage_PanicsOnSizeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		w, h   uint32
		pixels []byte
	}{
		{"short", 2, 2, make([]byte, 15)},
		{"long", 1, 1, make([]byte, 5)},
		{"rgb", 2, 2, make([]byte, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			NewImage(tt.w, tt.h, tt.pixels)
		})
	}
}

func TestImageFromNRGBA_StripsStride(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 128})
		}
	}
	sub := src.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)
	img := ImageFromNRGBA(sub)
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("expected 2x2, got %dx%d", img.Width, img.Height)
	}
	want := []byte{
		1, 1, 7, 128, 2, 1, 7, 128,
		1, 2, 7, 128, 2, 2, 7, 128,
	}
	if !bytes.Equal(img.Pixels, want) {
		t.Fatalf("got %v, want %v", img.Pixels, want)
	}
}

func TestImageFrom_StraightAlpha(t *testing.T) {
	// Premultiplied source: half-transparent red.
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 128, A: 128})
	img := ImageFrom(src)
	want := []byte{255, 0, 0, 128}
	if !bytes.Equal(img.Pixels, want) {
		t.Fatalf("got %v, want %v", img.Pixels, want)
	}
}

func TestImage_NRGBA(t *testing.T) {
	img := NewImage(2, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	n, err := img.NRGBA()
	if err != nil {
		t.Fatalf("NRGBA failed: %v", err)
	}
	if got := n.NRGBAAt(1, 0); got != (color.NRGBA{R: 5, G: 6, B: 7, A: 8}) {
		t.Fatalf("unexpected texel %v", got)
	}

	bad := Image{Width: 2, Height: 2, Pixels: []byte{1}}
	if _, err := bad.NRGBA(); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}

func TestColorSpace_Names(t *testing.T) {
	if ColorSpaceSRGB.String() != "SRGB" {
		t.Errorf("got %q", ColorSpaceSRGB.String())
	}
	cs, err := ParseColorSpace("SRGB")
	if err != nil || cs != ColorSpaceSRGB {
		t.Errorf("ParseColorSpace(SRGB) = %v, %v", cs, err)
	}
	if _, err := ParseColorSpace("Linear"); err == nil {
		t.Errorf("expected error for unknown name")
	}
	if got := ColorSpace(9).String(); got != "ColorSpace(9)" {
		t.Errorf("got %q", got)
	}
}

func TestImage_StringOmitsPixels(t *testing.T) {
	img := NewImage(2, 2, bytes.Repeat([]byte{201}, 16))
	want := "Image{ColorSpace: SRGB, Width: 2, Height: 2, Pixels: 16 bytes}"
	if got := img.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	got := fmt.Sprintf("%+v", &Container{Images: []Image{img}})
	if !strings.Contains(got, want) || strings.Contains(got, "201") {
		t.Errorf("container formatting leaks pixel data: %s", got)
	}
}
