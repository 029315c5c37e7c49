// Package mole implements the Mole model container: a self-contained asset
// file holding meshes, PBR materials and embedded RGBA textures, stored as a
// zstd-compressed MessagePack document.
package mole

// Vec2 is a 2-component float vector (texture coordinates, uv transforms).
type Vec2 [2]float32

// Vec3 is a 3-component float vector (positions, normals).
type Vec3 [3]float32

// Vec4 is a 4-component float vector (RGBA colors).
type Vec4 [4]float32

// Container is the root of a Mole file. All cross references inside it are
// positional indices into Models, Materials and Images, so order matters.
type Container struct {
	Models    []Model
	Materials []Material
	Images    []Image
}

// Model is a single mesh.
type Model struct {
	Vertices []Vertex

	// Indices point into Vertices. They are not validated on decode.
	Indices []uint32

	// Material is an index into Container.Materials.
	Material uint32
}

// Vertex is the unit of geometry.
type Vertex struct {
	Position Vec3
	TexCoord Vec2
	Normal   Vec3
}

// Material describes a metal/roughness PBR surface. Colors are sRGB.
//
// Each *Texture field and NormalMap is an optional index into
// Container.Images. When set, the effective value is the base value
// multiplied by the sampled texture; when nil the base value is used alone.
//
// TexCoordScale and TexCoordOffset are applied to the model's texture
// coordinates before sampling any of this material's textures.
type Material struct {
	Albedo             Vec4
	AlbedoTexture      *uint32
	AlphaClipThreshold *float32
	TexCoordScale      Vec2
	TexCoordOffset     Vec2
	DoubleSided        bool
	Roughness          float32
	RoughnessTexture   *uint32
	Metalness          float32
	MetalnessTexture   *uint32
	NormalMap          *uint32
}

// DefaultMaterial returns an opaque white, fully rough, non-metallic
// material with an identity texture transform.
func DefaultMaterial() Material {
	return Material{
		Albedo:        Vec4{1, 1, 1, 1},
		TexCoordScale: Vec2{1, 1},
		Roughness:     1,
	}
}

// U32 returns a pointer to v, for optional index fields.
func U32(v uint32) *uint32 { return &v }

// F32 returns a pointer to v, for optional float fields.
func F32(v float32) *float32 { return &v }
