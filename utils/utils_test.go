package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/voxelsplace/mole/internal/config"
	"github.com/voxelsplace/mole/mole"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readMole(t *testing.T, path string) *mole.Container {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	c, err := mole.Decode(data)
	if err != nil {
		t.Fatalf("Decode(%s) failed: %v", path, err)
	}
	return c
}

func TestSampleToGLBAndBack(t *testing.T) {
	dir := t.TempDir()
	opt := DefaultOptions()
	molePath := filepath.Join(dir, "cube.mole")
	glbPath := filepath.Join(dir, "cube.glb")
	backPath := filepath.Join(dir, "back.mole")

	if err := RunSample(opt, molePath, 42, 8); err != nil {
		t.Fatalf("RunSample failed: %v", err)
	}
	if err := RunMole2GLB(opt, molePath, glbPath); err != nil {
		t.Fatalf("RunMole2GLB failed: %v", err)
	}
	glb, err := os.ReadFile(glbPath)
	if err != nil {
		t.Fatalf("Failed to read glb: %v", err)
	}
	if !bytes.HasPrefix(glb, []byte("glTF")) {
		t.Fatalf("Output is not a binary glTF")
	}
	if err := RunGLB2Mole(opt, glbPath, backPath); err != nil {
		t.Fatalf("RunGLB2Mole failed: %v", err)
	}

	orig := readMole(t, molePath)
	back := readMole(t, backPath)
	if !reflect.DeepEqual(orig, back) {
		t.Fatalf("Container changed across glb round trip:\n got %+v\nwant %+v", back, orig)
	}
}

func TestSample_Deterministic(t *testing.T) {
	dir := t.TempDir()
	opt := DefaultOptions()
	a := filepath.Join(dir, "a.mole")
	b := filepath.Join(dir, "b.mole")
	if err := RunSample(opt, a, 7, 4); err != nil {
		t.Fatalf("RunSample failed: %v", err)
	}
	if err := RunSample(opt, b, 7, 4); err != nil {
		t.Fatalf("RunSample failed: %v", err)
	}
	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if !bytes.Equal(da, db) {
		t.Fatalf("Same seed produced different files")
	}
	if err := RunSample(opt, filepath.Join(dir, "big.mole"), 1, 5000); err == nil {
		t.Fatalf("Expected error for oversized texture")
	}
}

func TestImages2Mole(t *testing.T) {
	dir := t.TempDir()
	red := filepath.Join(dir, "red.png")
	blue := filepath.Join(dir, "blue.png")
	writePNG(t, red, color.NRGBA{255, 0, 0, 255})
	writePNG(t, blue, color.NRGBA{0, 0, 255, 128})
	out := filepath.Join(dir, "tex.mole")

	if err := RunImages2Mole(DefaultOptions(), []string{red, blue, red}, out); err != nil {
		t.Fatalf("RunImages2Mole failed: %v", err)
	}
	c := readMole(t, out)
	if len(c.Images) != 2 || len(c.Materials) != 2 || len(c.Models) != 0 {
		t.Fatalf("got %d images, %d materials, %d models; want 2, 2, 0",
			len(c.Images), len(c.Materials), len(c.Models))
	}
	if got := c.Images[1].Pixels[3]; got != 128 {
		t.Fatalf("alpha = %d, want 128", got)
	}

	opt := DefaultOptions()
	opt.Dedupe = false
	if err := RunImages2Mole(opt, []string{red, red}, out); err != nil {
		t.Fatalf("RunImages2Mole failed: %v", err)
	}
	if c := readMole(t, out); len(c.Images) != 2 {
		t.Fatalf("got %d images without dedupe, want 2", len(c.Images))
	}
}

func TestImages2Mole_Errors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tex.mole")
	if err := RunImages2Mole(DefaultOptions(), nil, out); err == nil {
		t.Fatalf("Expected error for empty input list")
	}
	if err := RunImages2Mole(DefaultOptions(), []string{filepath.Join(dir, "missing.png")}, out); err == nil {
		t.Fatalf("Expected error for missing file")
	}
	junk := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(junk, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RunImages2Mole(DefaultOptions(), []string{junk}, out); err == nil {
		t.Fatalf("Expected error for undecodable image")
	}
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	opt := DefaultOptions()
	path := filepath.Join(dir, "cube.mole")
	if err := RunSample(opt, path, 3, 4); err != nil {
		t.Fatalf("RunSample failed: %v", err)
	}
	var out bytes.Buffer
	if err := RunInfo(opt, path, &out); err != nil {
		t.Fatalf("RunInfo failed: %v", err)
	}
	for _, want := range []string{"Models:    1", "Triangles: 12", "image 0: 4x4 SRGB 64 bytes", "No issues"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("info output missing %q:\n%s", want, out.String())
		}
	}
}

func TestInfo_InvalidContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.mole")
	c := &mole.Container{
		Models: []mole.Model{{
			Vertices: []mole.Vertex{{}},
			Indices:  []uint32{0, 0, 5},
		}},
	}
	data, err := mole.Encode(c)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := RunInfo(DefaultOptions(), path, &out); err == nil {
		t.Fatalf("Expected error for container with validation errors")
	}
	if err := RunMole2GLB(DefaultOptions(), path, filepath.Join(dir, "bad.glb")); err == nil {
		t.Fatalf("Expected export to refuse invalid container")
	}
}

func TestMole2GLB_CorruptInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.mole")
	if err := os.WriteFile(path, []byte("definitely not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := RunMole2GLB(DefaultOptions(), path, filepath.Join(dir, "out.glb"))
	if err == nil {
		t.Fatalf("Expected error for corrupt input")
	}
	if !strings.Contains(err.Error(), "corrupt.mole") {
		t.Fatalf("error %q does not name the input file", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Codec.Level = "fastest"
	cfg.Codec.MaxDecodedMB = 2
	cfg.Import.DedupeImages = false
	cfg.Export.Generator = "pipeline"
	opt, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opt.Dedupe || opt.Generator != "pipeline" || opt.Codec.MaxDecodedSize != 2<<20 {
		t.Fatalf("unexpected options %+v", opt)
	}

	cfg.Codec.Level = "warp"
	if _, err := OptionsFromConfig(cfg); err == nil {
		t.Fatalf("Expected error for unknown level")
	}
}
