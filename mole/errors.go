package mole

import "errors"

var (
	// ErrCompression indicates the zstd envelope could not be produced or read
	// (truncated, corrupt or foreign framing).
	ErrCompression = errors.New("mole: compression failure")

	// ErrStructure indicates the document does not match the container
	// layout (type mismatch, wrong element count, truncation, trailing data)
	// or holds a value that cannot be represented.
	ErrStructure = errors.New("mole: structural failure")
)
