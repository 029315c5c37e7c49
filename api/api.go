// Package api exposes byte-oriented conversions between Mole containers and
// other asset formats. It is shared by the CLI and the wasm build.
package api

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/voxelsplace/mole/internal/raster"
	"github.com/voxelsplace/mole/mole"
)

// DefaultGenerator is written to exported glTF assets.
const DefaultGenerator = "Mole -> GLB"

// MoleToGLB takes .mole file bytes and returns .glb bytes.
func MoleToGLB(moleBytes []byte) ([]byte, error) {
	c, err := mole.Decode(moleBytes)
	if err != nil {
		return nil, err
	}
	return ContainerToGLB(c, DefaultGenerator)
}

// GLBToMole takes .glb bytes and returns .mole file bytes.
func GLBToMole(glbBytes []byte) ([]byte, error) {
	c, err := GLBToContainer(glbBytes, true)
	if err != nil {
		return nil, err
	}
	return mole.Encode(c)
}

// ImagesToContainer decodes raster files into a texture-only container.
// Each image gets a default material using it as albedo texture.
func ImagesToContainer(files [][]byte, dedupe bool) (*mole.Container, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no images")
	}
	c := new(mole.Container)
	for i, data := range files {
		img, err := raster.LoadImage(data)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		c.Images = append(c.Images, img)
	}
	remap := identity(len(c.Images))
	if dedupe {
		c.Images, remap = DedupeImages(c.Images)
	}
	seen := make(map[uint32]bool, len(c.Images))
	for _, idx := range remap {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		m := mole.DefaultMaterial()
		m.AlbedoTexture = mole.U32(idx)
		c.Materials = append(c.Materials, m)
	}
	return c, nil
}

// cubeFaces lists normal, u axis and v axis per face.
var cubeFaces = [6][3]mole.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// SampleCube builds a unit cube with a checker albedo texture whose two
// colors are picked from seed.
func SampleCube(seed int64, texSize int) *mole.Container {
	if texSize < 2 {
		texSize = 2
	}
	r := rand.New(rand.NewSource(seed))
	var colors [2][4]byte
	for i := range colors {
		colors[i] = [4]byte{uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256)), 255}
	}
	pixels := make([]byte, 0, texSize*texSize*4)
	cell := max(texSize/8, 1)
	for y := 0; y < texSize; y++ {
		for x := 0; x < texSize; x++ {
			pixels = append(pixels, colors[(x/cell+y/cell)%2][:]...)
		}
	}

	var model mole.Model
	for _, f := range cubeFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(model.Vertices))
		for _, c := range [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			var p mole.Vec3
			for k := 0; k < 3; k++ {
				p[k] = 0.5*n[k] + (c[0]-0.5)*u[k] + (c[1]-0.5)*v[k]
			}
			model.Vertices = append(model.Vertices, mole.Vertex{Position: p, TexCoord: mole.Vec2{c[0], 1 - c[1]}, Normal: n})
		}
		model.Indices = append(model.Indices, base, base+1, base+2, base, base+2, base+3)
	}

	mat := mole.DefaultMaterial()
	mat.AlbedoTexture = mole.U32(0)
	mat.Roughness = float32(math.Round(r.Float64()*100) / 100)
	return &mole.Container{
		Models:    []mole.Model{model},
		Materials: []mole.Material{mat},
		Images:    []mole.Image{mole.NewImage(uint32(texSize), uint32(texSize), pixels)},
	}
}
