package mole

import (
	"fmt"
	"math"
)

// IssueLevel represents severity of a validation issue.
type IssueLevel string

const (
	// IssueError marks a broken invariant; consumers must not index with it.
	IssueError IssueLevel = "error"
	// IssueWarning marks suspicious but usable data.
	IssueWarning IssueLevel = "warning"
)

// Issue codes.
const (
	CodeImageSize      = "image_size"
	CodeMaterialIndex  = "material_index"
	CodeTextureIndex   = "texture_index"
	CodeVertexIndex    = "vertex_index"
	CodeTriangleCount  = "triangle_count"
	CodeNonFinite      = "non_finite"
	CodeUnknownColorSp = "unknown_color_space"
)

// Issue represents a validation issue.
type Issue struct {
	Level   IssueLevel `json:"level" yaml:"level"`
	Code    string     `json:"code" yaml:"code"`
	Message string     `json:"message" yaml:"message"`
	Path    string     `json:"path,omitempty" yaml:"path,omitempty"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.Level, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Level, i.Path, i.Message)
}

// Validate checks the cross references of c. Decode never calls it: a
// decoded container is untrusted until its consumer validates it.
func Validate(c *Container) []Issue {
	var out []Issue

	for i, img := range c.Images {
		path := fmt.Sprintf("images[%d]", i)
		want := uint64(img.Width) * uint64(img.Height) * 4
		if uint64(len(img.Pixels)) != want {
			out = append(out, Issue{
				Level:   IssueError,
				Code:    CodeImageSize,
				Message: fmt.Sprintf("%dx%d needs %d bytes, has %d", img.Width, img.Height, want, len(img.Pixels)),
				Path:    path,
			})
		}
		if _, ok := colorSpaceNames[img.ColorSpace]; !ok {
			out = append(out, Issue{Level: IssueError, Code: CodeUnknownColorSp, Message: img.ColorSpace.String(), Path: path})
		}
	}

	images := uint32(len(c.Images))
	for i, m := range c.Materials {
		path := fmt.Sprintf("materials[%d]", i)
		checkTex := func(field string, idx *uint32) {
			if idx != nil && *idx >= images {
				out = append(out, Issue{
					Level:   IssueError,
					Code:    CodeTextureIndex,
					Message: fmt.Sprintf("%s %d out of range (%d images)", field, *idx, images),
					Path:    path,
				})
			}
		}
		checkTex("albedo_texture", m.AlbedoTexture)
		checkTex("roughness_texture", m.RoughnessTexture)
		checkTex("metalness_texture", m.MetalnessTexture)
		checkTex("normal_map", m.NormalMap)

		floats := append([]float32{m.Roughness, m.Metalness}, m.Albedo[:]...)
		floats = append(floats, m.TexCoordScale[:]...)
		floats = append(floats, m.TexCoordOffset[:]...)
		if m.AlphaClipThreshold != nil {
			floats = append(floats, *m.AlphaClipThreshold)
		}
		if !allFinite(floats) {
			out = append(out, Issue{Level: IssueWarning, Code: CodeNonFinite, Message: "non-finite material value", Path: path})
		}
	}

	materials := uint32(len(c.Materials))
	for i, m := range c.Models {
		path := fmt.Sprintf("models[%d]", i)
		if m.Material >= materials {
			out = append(out, Issue{
				Level:   IssueError,
				Code:    CodeMaterialIndex,
				Message: fmt.Sprintf("material %d out of range (%d materials)", m.Material, materials),
				Path:    path,
			})
		}
		if len(m.Indices)%3 != 0 {
			out = append(out, Issue{
				Level:   IssueWarning,
				Code:    CodeTriangleCount,
				Message: fmt.Sprintf("%d indices is not a whole number of triangles", len(m.Indices)),
				Path:    path,
			})
		}
		vertices := uint32(len(m.Vertices))
		for j, idx := range m.Indices {
			if idx >= vertices {
				out = append(out, Issue{
					Level:   IssueError,
					Code:    CodeVertexIndex,
					Message: fmt.Sprintf("index %d out of range (%d vertices)", idx, vertices),
					Path:    fmt.Sprintf("%s.indices[%d]", path, j),
				})
				break
			}
		}
		for j, v := range m.Vertices {
			if !allFinite(v.Position[:]) || !allFinite(v.TexCoord[:]) || !allFinite(v.Normal[:]) {
				out = append(out, Issue{
					Level:   IssueWarning,
					Code:    CodeNonFinite,
					Message: "non-finite vertex attribute",
					Path:    fmt.Sprintf("%s.vertices[%d]", path, j),
				})
				break
			}
		}
	}
	return out
}

// HasErrors reports whether any issue is at error level.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Level == IssueError {
			return true
		}
	}
	return false
}

func allFinite(v []float32) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}
