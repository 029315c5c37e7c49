package mole

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Every struct is written as a positional MessagePack array in field order.
// Decode also takes the named form: a map keyed by field name (or field
// position), where unknown keys are skipped and optional fields may be left
// out.
type structFields struct {
	names    []string
	optional uint32 // bit i set: field i may be missing from a map
}

var (
	containerFields = structFields{names: []string{"models", "materials", "images"}}
	modelFields     = structFields{names: []string{"vertices", "indices", "material"}}
	vertexFields    = structFields{names: []string{"position", "tex_coord", "normal"}}
	materialFields  = structFields{
		names: []string{
			"albedo", "albedo_texture", "alpha_clip_threshold",
			"tex_coord_scale", "tex_coord_offset", "double_sided",
			"roughness", "roughness_texture",
			"metalness", "metalness_texture", "normal_map",
		},
		optional: 1<<1 | 1<<2 | 1<<7 | 1<<9 | 1<<10,
	}
	imageFields = structFields{names: []string{"color_space", "width", "height", "pixels"}}
)

// maxPrealloc bounds slice capacity taken from an untrusted length prefix.
const maxPrealloc = 1 << 16

// EncodeMsgpack implements msgpack.CustomEncoder.
func (c Container) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(containerFields.names)); err != nil {
		return err
	}
	if err := encodeLen(enc, len(c.Models)); err != nil {
		return err
	}
	for i := range c.Models {
		if err := c.Models[i].EncodeMsgpack(enc); err != nil {
			return fmt.Errorf("model %d: %w", i, err)
		}
	}
	if err := encodeLen(enc, len(c.Materials)); err != nil {
		return err
	}
	for i := range c.Materials {
		if err := c.Materials[i].EncodeMsgpack(enc); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
	}
	if err := encodeLen(enc, len(c.Images)); err != nil {
		return err
	}
	for i := range c.Images {
		if err := c.Images[i].EncodeMsgpack(enc); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (c *Container) DecodeMsgpack(dec *msgpack.Decoder) error {
	var out Container
	err := decodeStruct(dec, containerFields, func(field int) error {
		n, err := decodeLen(dec)
		if err != nil {
			return err
		}
		switch field {
		case 0:
			out.Models = nil
			for i := 0; i < n; i++ {
				if i == 0 {
					out.Models = make([]Model, 0, min(n, maxPrealloc))
				}
				var m Model
				if err := m.DecodeMsgpack(dec); err != nil {
					return fmt.Errorf("model %d: %w", i, err)
				}
				out.Models = append(out.Models, m)
			}
		case 1:
			out.Materials = nil
			for i := 0; i < n; i++ {
				if i == 0 {
					out.Materials = make([]Material, 0, min(n, maxPrealloc))
				}
				var m Material
				if err := m.DecodeMsgpack(dec); err != nil {
					return fmt.Errorf("material %d: %w", i, err)
				}
				out.Materials = append(out.Materials, m)
			}
		case 2:
			out.Images = nil
			for i := 0; i < n; i++ {
				if i == 0 {
					out.Images = make([]Image, 0, min(n, maxPrealloc))
				}
				var img Image
				if err := img.DecodeMsgpack(dec); err != nil {
					return fmt.Errorf("image %d: %w", i, err)
				}
				out.Images = append(out.Images, img)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("container: %w", err)
	}
	*c = out
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (m Model) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(modelFields.names)); err != nil {
		return err
	}
	if err := encodeLen(enc, len(m.Vertices)); err != nil {
		return err
	}
	for i := range m.Vertices {
		if err := m.Vertices[i].EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	if err := encodeLen(enc, len(m.Indices)); err != nil {
		return err
	}
	for _, idx := range m.Indices {
		if err := enc.EncodeUint(uint64(idx)); err != nil {
			return err
		}
	}
	return enc.EncodeUint(uint64(m.Material))
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (m *Model) DecodeMsgpack(dec *msgpack.Decoder) error {
	var out Model
	err := decodeStruct(dec, modelFields, func(field int) error {
		var err error
		switch field {
		case 0:
			n, err := decodeLen(dec)
			if err != nil {
				return err
			}
			out.Vertices = nil
			for i := 0; i < n; i++ {
				if i == 0 {
					out.Vertices = make([]Vertex, 0, min(n, maxPrealloc))
				}
				var v Vertex
				if err := v.DecodeMsgpack(dec); err != nil {
					return fmt.Errorf("vertex %d: %w", i, err)
				}
				out.Vertices = append(out.Vertices, v)
			}
		case 1:
			n, err := decodeLen(dec)
			if err != nil {
				return err
			}
			out.Indices = nil
			for i := 0; i < n; i++ {
				if i == 0 {
					out.Indices = make([]uint32, 0, min(n, maxPrealloc))
				}
				idx, err := decodeUint32(dec)
				if err != nil {
					return fmt.Errorf("index %d: %w", i, err)
				}
				out.Indices = append(out.Indices, idx)
			}
		case 2:
			out.Material, err = decodeUint32(dec)
		}
		return err
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (v Vertex) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(vertexFields.names)); err != nil {
		return err
	}
	if err := encodeFloats(enc, v.Position[:]); err != nil {
		return err
	}
	if err := encodeFloats(enc, v.TexCoord[:]); err != nil {
		return err
	}
	return encodeFloats(enc, v.Normal[:])
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Vertex) DecodeMsgpack(dec *msgpack.Decoder) error {
	var out Vertex
	err := decodeStruct(dec, vertexFields, func(field int) error {
		switch field {
		case 0:
			return decodeFloats(dec, out.Position[:])
		case 1:
			return decodeFloats(dec, out.TexCoord[:])
		default:
			return decodeFloats(dec, out.Normal[:])
		}
	})
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (m Material) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(materialFields.names)); err != nil {
		return err
	}
	if err := encodeFloats(enc, m.Albedo[:]); err != nil {
		return err
	}
	if err := encodeOptUint32(enc, m.AlbedoTexture); err != nil {
		return err
	}
	if m.AlphaClipThreshold == nil {
		if err := enc.EncodeNil(); err != nil {
			return err
		}
	} else if err := enc.EncodeFloat32(*m.AlphaClipThreshold); err != nil {
		return err
	}
	if err := encodeFloats(enc, m.TexCoordScale[:]); err != nil {
		return err
	}
	if err := encodeFloats(enc, m.TexCoordOffset[:]); err != nil {
		return err
	}
	if err := enc.EncodeBool(m.DoubleSided); err != nil {
		return err
	}
	if err := enc.EncodeFloat32(m.Roughness); err != nil {
		return err
	}
	if err := encodeOptUint32(enc, m.RoughnessTexture); err != nil {
		return err
	}
	if err := enc.EncodeFloat32(m.Metalness); err != nil {
		return err
	}
	if err := encodeOptUint32(enc, m.MetalnessTexture); err != nil {
		return err
	}
	return encodeOptUint32(enc, m.NormalMap)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (m *Material) DecodeMsgpack(dec *msgpack.Decoder) error {
	var out Material
	err := decodeStruct(dec, materialFields, func(field int) error {
		var err error
		switch field {
		case 0:
			err = decodeFloats(dec, out.Albedo[:])
		case 1:
			out.AlbedoTexture, err = decodeOptUint32(dec)
		case 2:
			out.AlphaClipThreshold, err = decodeOptFloat32(dec)
		case 3:
			err = decodeFloats(dec, out.TexCoordScale[:])
		case 4:
			err = decodeFloats(dec, out.TexCoordOffset[:])
		case 5:
			out.DoubleSided, err = dec.DecodeBool()
		case 6:
			out.Roughness, err = decodeFloat32(dec)
		case 7:
			out.RoughnessTexture, err = decodeOptUint32(dec)
		case 8:
			out.Metalness, err = decodeFloat32(dec)
		case 9:
			out.MetalnessTexture, err = decodeOptUint32(dec)
		case 10:
			out.NormalMap, err = decodeOptUint32(dec)
		}
		return err
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder. Pixels are written as an
// array of integers, one per channel byte.
func (img Image) EncodeMsgpack(enc *msgpack.Encoder) error {
	name, ok := colorSpaceNames[img.ColorSpace]
	if !ok {
		return fmt.Errorf("unrepresentable color space %d", uint8(img.ColorSpace))
	}
	if err := enc.EncodeArrayLen(len(imageFields.names)); err != nil {
		return err
	}
	if err := enc.EncodeString(name); err != nil {
		return err
	}
	if err := enc.EncodeUint(uint64(img.Width)); err != nil {
		return err
	}
	if err := enc.EncodeUint(uint64(img.Height)); err != nil {
		return err
	}
	if err := encodeLen(enc, len(img.Pixels)); err != nil {
		return err
	}
	for _, b := range img.Pixels {
		if err := enc.EncodeUint(uint64(b)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder. Pixels are accepted both
// as an integer array and as a bin blob.
func (img *Image) DecodeMsgpack(dec *msgpack.Decoder) error {
	var out Image
	err := decodeStruct(dec, imageFields, func(field int) error {
		var err error
		switch field {
		case 0:
			var name string
			if name, err = dec.DecodeString(); err == nil {
				out.ColorSpace, err = ParseColorSpace(name)
			}
		case 1:
			out.Width, err = decodeUint32(dec)
		case 2:
			out.Height, err = decodeUint32(dec)
		case 3:
			out.Pixels, err = decodePixels(dec)
		}
		return err
	})
	if err != nil {
		return err
	}
	*img = out
	return nil
}

func decodePixels(dec *msgpack.Decoder) ([]byte, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if code == msgpcode.Bin8 || code == msgpcode.Bin16 || code == msgpcode.Bin32 {
		b, err := dec.DecodeBytes()
		if err != nil || len(b) == 0 {
			return nil, err
		}
		return b, nil
	}
	n, err := decodeLen(dec)
	if err != nil {
		return nil, err
	}
	var pixels []byte
	for i := 0; i < n; i++ {
		if i == 0 {
			pixels = make([]byte, 0, min(n, maxPrealloc))
		}
		v, err := dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint8 {
			return nil, fmt.Errorf("channel value %d out of range", v)
		}
		pixels = append(pixels, byte(v))
	}
	return pixels, nil
}

func encodeLen(enc *msgpack.Encoder, n int) error {
	if uint64(n) > math.MaxUint32 {
		return fmt.Errorf("sequence of %d elements is too long", n)
	}
	return enc.EncodeArrayLen(n)
}

// decodeLen reads a sequence header. Nil is rejected: sequences are always
// written as arrays, possibly empty.
func decodeLen(dec *msgpack.Decoder) (int, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("expected array, got nil")
	}
	return n, nil
}

// decodeStruct reads a struct in either form and calls field with the
// position of each field present, in stream order.
func decodeStruct(dec *msgpack.Decoder, s structFields, field func(int) error) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	if !msgpcode.IsFixedMap(code) && code != msgpcode.Map16 && code != msgpcode.Map32 {
		if err := expectArray(dec, len(s.names)); err != nil {
			return err
		}
		for i, name := range s.names {
			if err := field(i); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	}

	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	var seen uint32
	for k := 0; k < n; k++ {
		i, err := s.decodeKey(dec)
		if err != nil {
			return err
		}
		if i < 0 {
			if err := dec.Skip(); err != nil {
				return err
			}
			continue
		}
		if seen&(1<<i) != 0 {
			return fmt.Errorf("duplicate field %q", s.names[i])
		}
		seen |= 1 << i
		if err := field(i); err != nil {
			return fmt.Errorf("%s: %w", s.names[i], err)
		}
	}
	for i, name := range s.names {
		if seen&(1<<i) == 0 && s.optional&(1<<i) == 0 {
			return fmt.Errorf("missing field %q", name)
		}
	}
	return nil
}

// decodeKey returns the position of the field a map key names, or -1 for
// keys that match no field.
func (s structFields) decodeKey(dec *msgpack.Decoder) (int, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}
	var name string
	switch {
	case msgpcode.IsString(code):
		if name, err = dec.DecodeString(); err != nil {
			return 0, err
		}
	case code == msgpcode.Bin8 || code == msgpcode.Bin16 || code == msgpcode.Bin32:
		b, err := dec.DecodeBytes()
		if err != nil {
			return 0, err
		}
		name = string(b)
	default:
		pos, err := dec.DecodeUint64()
		if err != nil {
			return 0, fmt.Errorf("field key: %w", err)
		}
		if pos >= uint64(len(s.names)) {
			return -1, nil
		}
		return int(pos), nil
	}
	for i, n := range s.names {
		if n == name {
			return i, nil
		}
	}
	return -1, nil
}

func expectArray(dec *msgpack.Decoder, fields int) error {
	n, err := decodeLen(dec)
	if err != nil {
		return err
	}
	if n != fields {
		return fmt.Errorf("expected %d fields, got %d", fields, n)
	}
	return nil
}

func encodeFloats(enc *msgpack.Encoder, v []float32) error {
	if err := enc.EncodeArrayLen(len(v)); err != nil {
		return err
	}
	for _, f := range v {
		if err := enc.EncodeFloat32(f); err != nil {
			return err
		}
	}
	return nil
}

func decodeFloats(dec *msgpack.Decoder, dst []float32) error {
	if err := expectArray(dec, len(dst)); err != nil {
		return err
	}
	for i := range dst {
		f, err := decodeFloat32(dec)
		if err != nil {
			return err
		}
		dst[i] = f
	}
	return nil
}

// decodeFloat32 reads a float32 exactly. Doubles and integers are accepted
// too and narrowed.
func decodeFloat32(dec *msgpack.Decoder) (float32, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}
	if code == msgpcode.Float {
		return dec.DecodeFloat32()
	}
	f, err := dec.DecodeFloat64()
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

func decodeOptFloat32(dec *msgpack.Decoder) (*float32, error) {
	isNil, err := decodeNil(dec)
	if err != nil || isNil {
		return nil, err
	}
	f, err := decodeFloat32(dec)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func encodeOptUint32(enc *msgpack.Encoder, v *uint32) error {
	if v == nil {
		return enc.EncodeNil()
	}
	return enc.EncodeUint(uint64(*v))
}

func decodeOptUint32(dec *msgpack.Decoder) (*uint32, error) {
	isNil, err := decodeNil(dec)
	if err != nil || isNil {
		return nil, err
	}
	v, err := decodeUint32(dec)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeUint32(dec *msgpack.Decoder) (uint32, error) {
	v, err := dec.DecodeUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("value %d overflows uint32", v)
	}
	return uint32(v), nil
}

// decodeNil consumes a nil if one is next and reports whether it did.
func decodeNil(dec *msgpack.Decoder) (bool, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return false, err
	}
	if code != msgpcode.Nil {
		return false, nil
	}
	return true, dec.DecodeNil()
}
