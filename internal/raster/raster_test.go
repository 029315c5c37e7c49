package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func tgaHeader(imageType, bpp, descriptor byte, w, h int) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	hdr[17] = descriptor
	return hdr
}

func TestDecodeTGA_UncompressedBottomUp(t *testing.T) {
	data := tgaHeader(tgaTypeUncompressed, 24, 0, 2, 2)
	// File order is bottom row first, BGR.
	data = append(data,
		0, 0, 255, 0, 255, 0, // bottom: red, green
		255, 0, 0, 255, 255, 255, // top: blue, white
	)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{0, 0, 255, 255}},
		{1, 0, color.NRGBA{255, 255, 255, 255}},
		{0, 1, color.NRGBA{255, 0, 0, 255}},
		{1, 1, color.NRGBA{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeTGA_RLETopDown(t *testing.T) {
	data := tgaHeader(tgaTypeRLE, 32, 0x20, 3, 1)
	data = append(data,
		0x81, 10, 20, 30, 40, // run of 2
		0x00, 1, 2, 3, 4, // raw 1
	)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	want := []byte{30, 20, 10, 40, 30, 20, 10, 40, 3, 2, 1, 4}
	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("got %v, want %v", img.Pix, want)
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{0, 0, 2}},
		{"color mapped", func() []byte { h := tgaHeader(1, 24, 0, 1, 1); h[1] = 1; return h }()},
		{"bit depth", tgaHeader(tgaTypeUncompressed, 16, 0, 1, 1)},
		{"truncated raw", append(tgaHeader(tgaTypeUncompressed, 24, 0, 2, 1), 1, 2, 3)},
		{"truncated rle", append(tgaHeader(tgaTypeRLE, 24, 0, 4, 1), 0x81, 1, 2, 3)},
		{"empty", tgaHeader(tgaTypeUncompressed, 24, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 60})
	src.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestLoadImage_PNG(t *testing.T) {
	img, err := LoadImage(encodePNG(t))
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	want := []byte{200, 100, 50, 60, 1, 2, 3, 255}
	if img.Width != 2 || img.Height != 1 || !bytes.Equal(img.Pixels, want) {
		t.Fatalf("got %dx%d %v", img.Width, img.Height, img.Pixels)
	}
}

func TestDecode_FallsBackToTGA(t *testing.T) {
	data := append(tgaHeader(tgaTypeUncompressed, 32, 0x20, 1, 1), 1, 2, 3, 4)
	_, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "tga" {
		t.Fatalf("expected tga, got %s", format)
	}
	if _, _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Fatalf("expected error for garbage")
	}
}
