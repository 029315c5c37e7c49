package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/voxelsplace/mole/internal/raster"
	"github.com/voxelsplace/mole/mole"
)

// extrasKey holds the material fields glTF cannot express directly.
const extrasKey = "mole"

type materialExtras struct {
	TexCoordScale    mole.Vec2 `json:"tex_coord_scale"`
	TexCoordOffset   mole.Vec2 `json:"tex_coord_offset"`
	RoughnessTexture *uint32   `json:"roughness_texture,omitempty"`
	MetalnessTexture *uint32   `json:"metalness_texture,omitempty"`
}

// ContainerToGLB exports c as a binary glTF document: one mesh and node per
// model, one texture per image (embedded as PNG). Models without vertices
// are skipped since glTF cannot express them. The container must pass
// mole.Validate without errors.
func ContainerToGLB(c *mole.Container, generator string) ([]byte, error) {
	if issues := mole.Validate(c); mole.HasErrors(issues) {
		return nil, fmt.Errorf("invalid container: %s", issues[0])
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = generator

	for i, img := range c.Images {
		nrgba, err := img.NRGBA()
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, nrgba); err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		imgIdx, err := modeler.WriteImage(doc, fmt.Sprintf("image%d", i), "image/png", &buf)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
	}

	for i, m := range c.Materials {
		doc.Materials = append(doc.Materials, exportMaterial(i, m))
	}

	for i, m := range c.Models {
		if len(m.Vertices) == 0 {
			continue
		}
		positions := make([][3]float32, len(m.Vertices))
		normals := make([][3]float32, len(m.Vertices))
		uvs := make([][2]float32, len(m.Vertices))
		for vi, v := range m.Vertices {
			positions[vi] = v.Position
			normals[vi] = v.Normal
			uvs[vi] = v.TexCoord
		}
		prim := &gltf.Primitive{
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION:   modeler.WritePosition(doc, positions),
				gltf.NORMAL:     modeler.WriteNormal(doc, normals),
				gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
			},
			Material: gltf.Index(int(m.Material)),
		}
		if len(m.Indices) > 0 {
			prim.Indices = gltf.Index(modeler.WriteIndices(doc, m.Indices))
		}
		name := fmt.Sprintf("model%d", i)
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func exportMaterial(i int, m mole.Material) *gltf.Material {
	albedo := [4]float64{float64(m.Albedo[0]), float64(m.Albedo[1]), float64(m.Albedo[2]), float64(m.Albedo[3])}
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &albedo,
		MetallicFactor:  gltf.Float(float64(m.Metalness)),
		RoughnessFactor: gltf.Float(float64(m.Roughness)),
	}
	if m.AlbedoTexture != nil {
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: int(*m.AlbedoTexture)}
	}
	// glTF packs roughness (G) and metalness (B) into one texture.
	mr := m.RoughnessTexture
	if mr == nil {
		mr = m.MetalnessTexture
	}
	if mr != nil {
		pbr.MetallicRoughnessTexture = &gltf.TextureInfo{Index: int(*mr)}
	}

	out := &gltf.Material{
		Name:                 fmt.Sprintf("material%d", i),
		PBRMetallicRoughness: pbr,
		DoubleSided:          m.DoubleSided,
		AlphaMode:            gltf.AlphaOpaque,
		Extras: map[string]any{extrasKey: materialExtras{
			TexCoordScale:    m.TexCoordScale,
			TexCoordOffset:   m.TexCoordOffset,
			RoughnessTexture: m.RoughnessTexture,
			MetalnessTexture: m.MetalnessTexture,
		}},
	}
	if m.AlphaClipThreshold != nil {
		out.AlphaMode = gltf.AlphaMask
		out.AlphaCutoff = gltf.Float(float64(*m.AlphaClipThreshold))
	}
	if m.NormalMap != nil {
		out.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(int(*m.NormalMap))}
	}
	return out
}

// GLBToContainer imports a glTF document (binary or embedded JSON). Every
// triangle primitive becomes a Model; node transforms are not applied.
// With dedupe set, images with identical pixels share one entry.
func GLBToContainer(data []byte, dedupe bool) (*mole.Container, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glTF: %w", err)
	}

	c := new(mole.Container)
	for i, gi := range doc.Images {
		raw, err := imageData(doc, gi)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		img, err := raster.LoadImage(raw)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		c.Images = append(c.Images, img)
	}
	imageRemap := identity(len(c.Images))
	if dedupe {
		c.Images, imageRemap = DedupeImages(c.Images)
	}
	texture := func(ti int) *uint32 {
		if ti < 0 || ti >= len(doc.Textures) || doc.Textures[ti].Source == nil {
			return nil
		}
		src := *doc.Textures[ti].Source
		if src < 0 || src >= len(imageRemap) {
			return nil
		}
		return mole.U32(imageRemap[src])
	}

	for i, gm := range doc.Materials {
		m, err := importMaterial(gm, texture)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		c.Materials = append(c.Materials, m)
	}

	defaultMaterial := -1
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			model, err := importPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if prim.Material != nil {
				if *prim.Material < 0 || *prim.Material >= len(doc.Materials) {
					return nil, fmt.Errorf("mesh %d primitive %d: material %d out of range", mi, pi, *prim.Material)
				}
				model.Material = uint32(*prim.Material)
			} else {
				if defaultMaterial < 0 {
					defaultMaterial = len(c.Materials)
					c.Materials = append(c.Materials, gltfDefaultMaterial())
				}
				model.Material = uint32(defaultMaterial)
			}
			c.Models = append(c.Models, model)
		}
	}
	return c, nil
}

func imageData(doc *gltf.Document, img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	return nil, fmt.Errorf("external image %q not supported", img.URI)
}

// gltfDefaultMaterial mirrors the glTF default material.
func gltfDefaultMaterial() mole.Material {
	m := mole.DefaultMaterial()
	m.Metalness = 1
	return m
}

func importMaterial(gm *gltf.Material, texture func(int) *uint32) (mole.Material, error) {
	m := gltfDefaultMaterial()
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			m.Albedo = mole.Vec4{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
		}
		if pbr.BaseColorTexture != nil {
			m.AlbedoTexture = texture(pbr.BaseColorTexture.Index)
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = float32(*pbr.RoughnessFactor)
		}
		if pbr.MetallicFactor != nil {
			m.Metalness = float32(*pbr.MetallicFactor)
		}
		if pbr.MetallicRoughnessTexture != nil {
			m.RoughnessTexture = texture(pbr.MetallicRoughnessTexture.Index)
			m.MetalnessTexture = texture(pbr.MetallicRoughnessTexture.Index)
		}
	}
	if gm.AlphaMode == gltf.AlphaMask {
		cutoff := float32(0.5)
		if gm.AlphaCutoff != nil {
			cutoff = float32(*gm.AlphaCutoff)
		}
		m.AlphaClipThreshold = &cutoff
	}
	m.DoubleSided = gm.DoubleSided
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		m.NormalMap = texture(*gm.NormalTexture.Index)
	}

	extras, ok := gm.Extras.(map[string]any)
	if !ok || extras[extrasKey] == nil {
		return m, nil
	}
	// Round trip through JSON to read the typed extras back.
	raw, err := json.Marshal(extras[extrasKey])
	if err != nil {
		return m, err
	}
	var ext materialExtras
	if err := json.Unmarshal(raw, &ext); err != nil {
		return m, fmt.Errorf("extras: %w", err)
	}
	m.TexCoordScale = ext.TexCoordScale
	m.TexCoordOffset = ext.TexCoordOffset
	if m.RoughnessTexture != nil || m.MetalnessTexture != nil {
		m.RoughnessTexture = optTexture(ext.RoughnessTexture, texture)
		m.MetalnessTexture = optTexture(ext.MetalnessTexture, texture)
	}
	return m, nil
}

// optTexture resolves an exported image index. Exported textures map 1:1 to
// images, so the image index doubles as the texture index.
func optTexture(idx *uint32, texture func(int) *uint32) *uint32 {
	if idx == nil {
		return nil
	}
	return texture(int(*idx))
}

func importPrimitive(doc *gltf.Document, prim *gltf.Primitive) (mole.Model, error) {
	var model mole.Model
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return model, fmt.Errorf("missing POSITION")
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return model, fmt.Errorf("POSITION: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return model, fmt.Errorf("POSITION: %w", err)
	}
	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = accessor(doc, idx); err == nil {
			normals, err = modeler.ReadNormal(doc, acr, nil)
		}
		if err != nil {
			return model, fmt.Errorf("NORMAL: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = accessor(doc, idx); err == nil {
			uvs, err = modeler.ReadTextureCoord(doc, acr, nil)
		}
		if err != nil {
			return model, fmt.Errorf("TEXCOORD_0: %w", err)
		}
	}
	if normals != nil && len(normals) != len(positions) {
		return model, fmt.Errorf("NORMAL has %d entries, POSITION %d", len(normals), len(positions))
	}
	if uvs != nil && len(uvs) != len(positions) {
		return model, fmt.Errorf("TEXCOORD_0 has %d entries, POSITION %d", len(uvs), len(positions))
	}

	model.Vertices = make([]mole.Vertex, len(positions))
	for i := range positions {
		v := mole.Vertex{Position: positions[i]}
		if normals != nil {
			v.Normal = normals[i]
		}
		if uvs != nil {
			v.TexCoord = uvs[i]
		}
		model.Vertices[i] = v
	}

	if prim.Indices != nil {
		if acr, err = accessor(doc, *prim.Indices); err == nil {
			model.Indices, err = modeler.ReadIndices(doc, acr, nil)
		}
		if err != nil {
			return model, fmt.Errorf("indices: %w", err)
		}
	} else {
		model.Indices = identity(len(positions))
	}
	return model, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

func identity(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
