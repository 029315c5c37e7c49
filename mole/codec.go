package mole

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts containers to and from the compressed byte stream.
// A Codec holds only settings; every call builds its own zstd state, so a
// single Codec may be used from many goroutines.
type Codec struct {
	// Level is the zstd effort used by Encode.
	Level zstd.EncoderLevel

	// MaxDecodedSize caps the decompressed document size accepted by Decode.
	// Zero means the zstd default.
	MaxDecodedSize uint64
}

// DefaultCodec favours output size over encode latency.
var DefaultCodec = Codec{
	Level:          zstd.SpeedBestCompression,
	MaxDecodedSize: 1 << 30,
}

// Encode serializes c with DefaultCodec.
func Encode(c *Container) ([]byte, error) {
	return DefaultCodec.Encode(c)
}

// Decode parses data with DefaultCodec.
func Decode(data []byte) (*Container, error) {
	return DefaultCodec.Decode(data)
}

// Encode writes c as MessagePack and wraps it in a single zstd frame.
// Errors wrap ErrStructure or ErrCompression.
func (cd Codec) Encode(c *Container) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil container", ErrStructure)
	}
	var buf bytes.Buffer
	if err := c.EncodeMsgpack(msgpack.NewEncoder(&buf)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructure, err)
	}

	level := cd.Level
	if level == 0 {
		level = zstd.SpeedBestCompression
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompression, err)
	}
	out := enc.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len()/2))
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompression, err)
	}
	return out, nil
}

// Decode inflates data and parses the container. Cross references are not
// checked; see Validate. Errors wrap ErrCompression or ErrStructure and no
// partial container is ever returned.
func (cd Codec) Decode(data []byte) (*Container, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if cd.MaxDecodedSize > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(cd.MaxDecodedSize))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompression, err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompression, err)
	}

	// Bytes after the container are ignored.
	c := new(Container)
	if err := c.DecodeMsgpack(msgpack.NewDecoder(bytes.NewReader(raw))); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructure, err)
	}
	return c, nil
}
